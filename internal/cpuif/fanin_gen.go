package cpuif

import (
	"fmt"
	"strings"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/gen"
	"github.com/rdlgen/busdecoder/internal/rdl"
	"github.com/rdlgen/busdecoder/internal/sv"
)

// FaninGen emits the always_comb block that muxes the selected target's
// responses back onto the internal cpuif_* signals. The block is seeded with
// idle defaults, gains one guarded assignment group per decode target, and
// closes with the decode-error responses.
type FaninGen struct {
	gen.Listener

	cp        Cpuif
	root      *sv.CombinationalBody
	stack     []fmt.Stringer
	finalized bool
}

// NewFaninGen returns a fanin generator for the given protocol instance.
func NewFaninGen(ds *design.State, cp Cpuif) *FaninGen {
	root := &sv.CombinationalBody{}
	addLines(&root.Body, cp.FaninWr(nil, false))
	addLines(&root.Body, cp.FaninRd(nil, false))
	return &FaninGen{
		Listener: gen.Listener{DS: ds},
		cp:       cp,
		root:     root,
		stack:    []fmt.Stringer{root},
	}
}

// Run walks the design and renders the fanin block.
func (g *FaninGen) Run() string {
	gen.Walk(g.DS.Top, g, g.DS.Unroll)
	return g.String()
}

func (g *FaninGen) Enter(node *rdl.Component) gen.Action {
	action := g.Listener.Enter(node)
	boundary := action == gen.SkipDescendants

	if node.IsArray() {
		base := len(g.Strides()) - len(node.Dims)
		for j, dim := range node.Dims {
			bound := fmt.Sprint(dim)
			if boundary {
				bound = g.cp.(paramNamer).paramName(node, j)
			}
			g.stack = append(g.stack, sv.NewForLoop("int", fmt.Sprintf("i%d", base+j), bound))
		}
	}

	if boundary {
		path := rdl.IndexedPath(g.DS.Top, node, "i")

		wr := &sv.IfBody{}
		addLines(wr.Branch("cpuif_wr_sel."+path), g.cp.FaninWr(node, false))
		g.topBody().Append(wr)

		rd := &sv.IfBody{}
		addLines(rd.Branch("cpuif_rd_sel."+path), g.cp.FaninRd(node, false))
		g.topBody().Append(rd)
	}
	return action
}

func (g *FaninGen) Exit(node *rdl.Component) {
	if node.IsArray() {
		for range node.Dims {
			fb, ok := g.pop().(*sv.ForLoopBody)
			if !ok {
				panic("cpuif: expected loop frame on fanin stack")
			}
			if !fb.Empty() {
				g.topBody().Append(fb)
			}
		}
	}
	g.Listener.Exit(node)
}

// String closes the block with the decode-error responses and renders it.
func (g *FaninGen) String() string {
	if len(g.stack) != 1 {
		panic("cpuif: fanin stack not drained")
	}
	if !g.finalized {
		wr := &sv.IfBody{}
		addLines(wr.Branch("cpuif_wr_sel.cpuif_err"), g.cp.FaninWr(nil, true))
		g.root.Append(wr)

		rd := &sv.IfBody{}
		addLines(rd.Branch("cpuif_rd_sel.cpuif_err"), g.cp.FaninRd(nil, true))
		g.root.Append(rd)
		g.finalized = true
	}
	return g.root.String()
}

func (g *FaninGen) topBody() *sv.Body {
	switch f := g.stack[len(g.stack)-1].(type) {
	case *sv.CombinationalBody:
		return &f.Body
	case *sv.ForLoopBody:
		return &f.Body
	}
	panic("cpuif: unexpected frame type on fanin stack")
}

func (g *FaninGen) pop() fmt.Stringer {
	if len(g.stack) <= 1 {
		panic("cpuif: fanin stack underflow")
	}
	f := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	return f
}

func addLines(b *sv.Body, text string) {
	for _, line := range strings.Split(text, "\n") {
		b.Add(line)
	}
}
