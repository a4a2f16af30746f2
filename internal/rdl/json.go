package rdl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// designJSON is the interchange form an external front end can emit for a
// fully elaborated design. Addresses are parent-relative byte offsets;
// absolute addresses are computed while loading.
type designJSON struct {
	Addrmap    *componentJSON `json:"addrmap"`
	Parameters []paramJSON    `json:"parameters"`
}

type componentJSON struct {
	Kind        string          `json:"kind"`
	InstName    string          `json:"inst_name"`
	AddrOffset  uint64          `json:"addr_offset"`
	Size        uint64          `json:"size"`
	Dims        []uint64        `json:"dims,omitempty"`
	Stride      uint64          `json:"stride,omitempty"`
	External    bool            `json:"external,omitempty"`
	AccessWidth uint            `json:"accesswidth,omitempty"`
	RefParams   []string        `json:"ref_params,omitempty"`
	Children    []componentJSON `json:"children,omitempty"`
}

type paramJSON struct {
	Name  string `json:"name"`
	Type  string `json:"type"` // "int" or "bool"
	Value int64  `json:"value"`
	Bool  bool   `json:"bool_value"`
}

// LoadDesign reads the elaborated-design interchange JSON and builds the
// component tree. Unknown fields are rejected so a stale or misspelled
// design file fails loudly.
func LoadDesign(r io.Reader) (*Component, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var d designJSON
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing design: %w", err)
	}
	if d.Addrmap == nil {
		return nil, fmt.Errorf("design has no top-level addrmap")
	}

	top, err := buildComponent(*d.Addrmap, 0)
	if err != nil {
		return nil, err
	}
	if top.Kind != KindAddrmap {
		return nil, fmt.Errorf("top-level component %q must be an addrmap, got %s", top.InstName, top.Kind)
	}
	for _, p := range d.Parameters {
		decl := ParamDecl{Name: p.Name, Value: p.Value, Bool: p.Bool, IsBool: p.Type == "bool"}
		top.Params = append(top.Params, decl)
	}
	return top, nil
}

// LoadDesignFile is LoadDesign over a file path.
func LoadDesignFile(path string) (*Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening design: %w", err)
	}
	defer f.Close()
	top, err := LoadDesign(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return top, nil
}

func buildComponent(cj componentJSON, base uint64) (*Component, error) {
	kind, err := parseKind(cj.Kind)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", cj.InstName, err)
	}
	if cj.InstName == "" {
		return nil, fmt.Errorf("component of kind %s has no inst_name", kind)
	}

	c := &Component{
		Kind:        kind,
		InstName:    cj.InstName,
		AbsAddr:     base + cj.AddrOffset,
		Size:        cj.Size,
		Dims:        cj.Dims,
		Stride:      cj.Stride,
		External:    cj.External,
		AccessWidth: cj.AccessWidth,
		RefParams:   cj.RefParams,
	}
	for _, childJSON := range cj.Children {
		child, err := buildComponent(childJSON, c.AbsAddr)
		if err != nil {
			return nil, err
		}
		c.AddChild(child)
	}
	if c.Size == 0 {
		c.Size = extentOf(c)
	}
	return c, nil
}

// extentOf derives a composite component's element size from the furthest
// child extent when the front end did not record one.
func extentOf(c *Component) uint64 {
	var end uint64
	for _, child := range c.children {
		childEnd := child.AbsAddr - c.AbsAddr + child.TotalSize()
		if childEnd > end {
			end = childEnd
		}
	}
	return end
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "addrmap":
		return KindAddrmap, nil
	case "regfile":
		return KindRegfile, nil
	case "reg":
		return KindReg, nil
	case "mem":
		return KindMem, nil
	}
	return 0, fmt.Errorf("unknown component kind %q", s)
}
