package cpuif

import (
	"fmt"
	"strings"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/gen"
	"github.com/rdlgen/busdecoder/internal/rdl"
	"github.com/rdlgen/busdecoder/internal/sv"
)

// paramNamer is implemented by every protocol base; generate and fanin loop
// bounds over a decode target's own dimensions use its element-count
// parameters so the static shape follows parameter overrides.
type paramNamer interface {
	paramName(node *rdl.Component, dim int) string
}

// FanoutGen walks the design and emits one continuous-assignment block per
// decode target, wrapping arrayed targets in generate-for loops.
type FanoutGen struct {
	gen.Listener

	cp     Cpuif
	blocks []string
}

// NewFanoutGen returns a fanout generator for the given protocol instance.
func NewFanoutGen(ds *design.State, cp Cpuif) *FanoutGen {
	return &FanoutGen{Listener: gen.Listener{DS: ds}, cp: cp}
}

// Run walks the design and renders the fanout blocks.
func (g *FanoutGen) Run() string {
	gen.Walk(g.DS.Top, g, g.DS.Unroll)
	return strings.Join(g.blocks, "\n\n")
}

func (g *FanoutGen) Enter(node *rdl.Component) gen.Action {
	action := g.Listener.Enter(node)
	if action != gen.SkipDescendants {
		return action
	}

	strides := append([]uint64(nil), g.Strides()...)
	text := g.cp.Fanout(node, strides)

	if len(strides) == 0 {
		g.blocks = append(g.blocks, text)
		return action
	}

	// One generate loop per open dimension along the path, outermost
	// first. The target's own dimensions are bounded by its element-count
	// parameters; enclosing (non-target) arrays use their literal extents.
	id := strings.ReplaceAll(node.Path(g.DS.Top), ".", "_")
	var outer, inner *sv.ForLoopBody
	ordinal := 0
	for _, comp := range arrayedChain(g.DS.Top, node) {
		for j, dim := range comp.Dims {
			bound := fmt.Sprint(dim)
			if comp == node {
				bound = g.cp.(paramNamer).paramName(node, j)
			}
			fb := sv.NewForLoop("genvar", fmt.Sprintf("gi%d", ordinal), bound)
			fb.Label = fmt.Sprintf("g_%s_%d", id, ordinal)
			if outer == nil {
				outer = fb
			} else {
				inner.Append(fb)
			}
			inner = fb
			ordinal++
		}
	}
	for _, line := range strings.Split(text, "\n") {
		inner.Add(line)
	}
	g.blocks = append(g.blocks, outer.String())
	return action
}

// arrayedChain returns the arrayed components from (and excluding) top down
// to and including node, outermost first. Non-arrayed path segments are
// skipped; they contribute no loop dimensions.
func arrayedChain(top, node *rdl.Component) []*rdl.Component {
	var chain []*rdl.Component
	for n := node; n != nil && n != top; n = n.Parent() {
		if n.IsArray() {
			chain = append(chain, n)
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
