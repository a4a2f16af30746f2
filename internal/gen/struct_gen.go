package gen

import (
	"fmt"
	"strings"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/rdl"
	"github.com/rdlgen/busdecoder/internal/sv"
)

// StructGen emits the nested selector-struct typedefs: one flag per
// decodable node, one nested struct per hierarchy level crossed before the
// decode boundary, and a decode-error flag on the outermost type.
type StructGen struct {
	Listener

	root      *sv.StructBody
	frames    []*sv.StructBody
	pushed    []bool
	emitted   []*sv.StructBody
	finalized bool
}

// Run walks the design and renders the typedefs.
func (g *StructGen) Run() string {
	Walk(g.DS.Top, g, g.DS.Unroll)
	return g.String()
}

// NewStructGen returns a generator for the given design state. Run it with
// Walk, then render with String.
func NewStructGen(ds *design.State) *StructGen {
	root := sv.NewStruct("cpuif_sel_t", false)
	return &StructGen{
		Listener: Listener{DS: ds},
		root:     root,
		frames:   []*sv.StructBody{root},
	}
}

func (g *StructGen) Enter(node *rdl.Component) Action {
	action := g.Listener.Enter(node)

	pushed := false
	if action == Continue && node.HasAddressableChildren() {
		frame := sv.NewStruct(fmt.Sprintf("cpuif_sel_%s_t", node.InstanceName()), false)
		g.frames = append(g.frames, frame)
		pushed = true
	}
	g.pushed = append(g.pushed, pushed)
	return action
}

func (g *StructGen) Exit(node *rdl.Component) {
	pushed := g.pushed[len(g.pushed)-1]
	g.pushed = g.pushed[:len(g.pushed)-1]

	typ := "logic"
	if pushed {
		frame := g.frames[len(g.frames)-1]
		g.frames = g.frames[:len(g.frames)-1]
		if !frame.Empty() {
			// Completed nested types surface in exit order, so inner
			// types always precede the types that reference them.
			g.emitted = append(g.emitted, frame)
			typ = frame.Name
		}
	}

	name := sv.SafeID(node.InstanceName())
	if node.IsArray() {
		// Runtime enable parameters never shrink the static shape; the
		// declared maximum extents always apply here.
		for _, d := range node.Dims {
			name += fmt.Sprintf("[%d]", d)
		}
	}
	g.frames[len(g.frames)-1].Addf("%s %s;", typ, name)

	g.Listener.Exit(node)
}

// String renders every completed typedef, dependencies first, closing with
// the outermost selector type carrying the decode-error flag.
func (g *StructGen) String() string {
	if len(g.frames) != 1 {
		panic("gen: struct frame stack not drained")
	}
	if !g.finalized {
		g.root.Add("logic cpuif_err;")
		g.finalized = true
	}

	parts := make([]string, 0, len(g.emitted)+1)
	for _, f := range g.emitted {
		parts = append(parts, f.String())
	}
	parts = append(parts, g.root.String())
	return strings.Join(parts, "\n")
}
