package rdl

import "fmt"

// ParamUsage classifies how a root-level parameter participates in the
// design.
type ParamUsage int

const (
	// UsageDirect parameters do not affect the address map. They pass
	// through as module parameters on the generated decoder.
	UsageDirect ParamUsage = iota

	// UsageAddressModifying parameters control the effective element count
	// of an array. They become bounded enable parameters with a runtime
	// n <= N constraint; the elaborated maximum fixes the static shape.
	UsageAddressModifying
)

// ArrayEnable records that a root parameter controls the effective count of
// one array dimension.
type ArrayEnable struct {
	NodePath    string
	MaxElements uint64
	DimIndex    int
}

// Param is a root-level parameter extracted for decoder generation.
type Param struct {
	Name         string
	Value        int64
	Bool         bool
	IsBool       bool
	Usage        ParamUsage
	ArrayEnables []ArrayEnable
}

// SVType returns the SystemVerilog parameter type for the value.
func (p Param) SVType() string {
	if p.IsBool {
		return "bit"
	}
	return "int"
}

// SVValue returns the SystemVerilog default value text.
func (p Param) SVValue() string {
	if p.IsBool {
		if p.Bool {
			return "1'b1"
		}
		return "1'b0"
	}
	return fmt.Sprint(p.Value)
}

// ExtractParams classifies the top node's declared parameters by walking the
// tree once and collecting, per parameter, the components whose properties
// referenced it. The reference records are carried on the tree itself
// (Component.RefParams), so no global state and no interception of the
// front end's resolution machinery is involved.
func ExtractParams(top *Component) []Param {
	if len(top.Params) == 0 {
		return nil
	}

	refs := make(map[string][]*Component)
	var collect func(c *Component)
	collect = func(c *Component) {
		for _, name := range c.RefParams {
			refs[name] = append(refs[name], c)
		}
		for _, child := range c.Children(false) {
			collect(child)
		}
	}
	collect(top)

	out := make([]Param, 0, len(top.Params))
	for _, decl := range top.Params {
		p := Param{
			Name:   decl.Name,
			Value:  decl.Value,
			Bool:   decl.Bool,
			IsBool: decl.IsBool,
			Usage:  UsageDirect,
		}
		if !decl.IsBool {
			p.ArrayEnables = classifyEnables(top, decl, refs[decl.Name])
			if len(p.ArrayEnables) > 0 {
				p.Usage = UsageAddressModifying
			}
		}
		out = append(out, p)
	}
	return out
}

// classifyEnables matches an integer parameter's elaborated value against the
// array dimensions of components traced to it. A traced ancestor covers its
// whole subtree. Untraced arrays fall back to a value match on their
// dimensions, mirroring designs whose front ends do not record references.
func classifyEnables(top *Component, decl ParamDecl, traced []*Component) []ArrayEnable {
	var enables []ArrayEnable
	value := uint64(decl.Value)
	if decl.Value <= 0 {
		return nil
	}

	var walk func(c *Component)
	walk = func(c *Component) {
		if c != top && len(c.Dims) > 0 && c.CurrentIdx == nil {
			if len(traced) == 0 || isTraced(c, traced) || dimsContain(c.Dims, value) {
				for i, d := range c.Dims {
					if d == value {
						enables = append(enables, ArrayEnable{
							NodePath:    c.Path(top),
							MaxElements: d,
							DimIndex:    i,
						})
					}
				}
			}
		}
		for _, child := range c.Children(false) {
			walk(child)
		}
	}
	walk(top)
	return enables
}

func isTraced(c *Component, traced []*Component) bool {
	for _, t := range traced {
		for n := c; n != nil; n = n.parent {
			if n == t {
				return true
			}
		}
	}
	return false
}

func dimsContain(dims []uint64, v uint64) bool {
	for _, d := range dims {
		if d == v {
			return true
		}
	}
	return false
}
