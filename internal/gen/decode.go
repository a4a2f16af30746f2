package gen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/rdl"
	"github.com/rdlgen/busdecoder/internal/sv"
)

// Flavor selects the decode direction. Read and write decode are generated
// independently so protocols with split address channels wire up cleanly.
type Flavor string

const (
	FlavorRead  Flavor = "rd"
	FlavorWrite Flavor = "wr"
)

// AddrSignal is the direction's internal address wire.
func (f Flavor) AddrSignal() string {
	return fmt.Sprintf("cpuif_%s_addr", f)
}

// SelectSignal is the direction's selector-struct variable.
func (f Flavor) SelectSignal() string {
	return fmt.Sprintf("cpuif_%s_sel", f)
}

// SearchThreshold is the sibling count above which the flat if/else-if
// decode chain is reorganized into a binary decision tree. Leaf chains hold
// at most SearchThreshold+1 branches. The transform trades decode-logic
// area (duplicated error fallbacks) for O(log N) comparison depth.
const SearchThreshold = 3

type guard struct {
	cond string
	addr uint64
}

// DecodeGen emits the address-range comparison logic that drives one
// direction's selector struct.
type DecodeGen struct {
	Listener

	flavor Flavor
	root   *sv.IfBody
	stack  []fmt.Stringer // *sv.IfBody and *sv.ForLoopBody frames
	guards []guard
}

// NewDecodeGen returns a decode generator for the given direction.
func NewDecodeGen(ds *design.State, flavor Flavor) *DecodeGen {
	root := &sv.IfBody{}
	return &DecodeGen{
		Listener: Listener{DS: ds},
		flavor:   flavor,
		root:     root,
		stack:    []fmt.Stringer{root},
	}
}

// Run walks the design and renders the decode logic.
func (g *DecodeGen) Run() string {
	Walk(g.DS.Top, g, g.DS.Unroll)
	return g.String()
}

func (g *DecodeGen) Enter(node *rdl.Component) Action {
	action := g.Listener.Enter(node)
	boundary := action == SkipDescendants

	if node.IsArray() {
		// One pass over the whole array range guards the per-element
		// comparisons, so the loops only run for addresses that can hit.
		anc := g.strides[:len(g.strides)-len(node.Dims)]
		cond, addr := g.predicate(node, anc, g.extents[:len(anc)], node.TotalSize())
		g.guards = append(g.guards, guard{cond: cond, addr: addr})

		base := len(anc)
		for j, dim := range node.Dims {
			fb := sv.NewForLoop("int", fmt.Sprintf("i%d", base+j), fmt.Sprint(dim))
			g.stack = append(g.stack, fb)
		}
		inner := &sv.IfBody{}
		g.stack = append(g.stack, inner)

		if boundary {
			cond, addr := g.predicate(node, g.strides, g.extents, node.Size)
			inner.TaggedBranch(cond, addr).Add(g.selectAssign(node))
		}
		return action
	}

	if boundary {
		top, ok := g.top().(*sv.IfBody)
		if !ok {
			panic("gen: decode stack top is not a conditional frame")
		}
		cond, addr := g.predicate(node, g.strides, g.extents, node.TotalSize())
		top.TaggedBranch(cond, addr).Add(g.selectAssign(node))
	}
	return action
}

func (g *DecodeGen) Exit(node *rdl.Component) {
	if node.IsArray() {
		inner, ok := g.pop().(*sv.IfBody)
		if !ok {
			panic("gen: expected conditional frame on decode stack")
		}
		if !inner.Empty() {
			g.top().(*sv.ForLoopBody).Append(inner)
		}

		for j := len(node.Dims) - 1; j >= 0; j-- {
			fb := g.pop().(*sv.ForLoopBody)
			if j > 0 {
				if !fb.Empty() {
					g.top().(*sv.ForLoopBody).Append(fb)
				}
				continue
			}
			gd := g.guards[len(g.guards)-1]
			g.guards = g.guards[:len(g.guards)-1]
			if !fb.Empty() {
				parent, ok := g.top().(*sv.IfBody)
				if !ok {
					panic("gen: decode stack top is not a conditional frame")
				}
				parent.TaggedBranch(gd.cond, gd.addr).Append(fb)
			}
		}
	}
	g.Listener.Exit(node)
}

// predicate builds the address-range condition for a node whose range spans
// `span` bytes starting at its absolute address plus one index*stride term
// per open dimension in strides (extents holds the matching element counts).
// It returns the condition text and the concrete start address used for
// decision-tree ordering. Tautological bounds (lower of zero, upper of
// 2^addrWidth) are elided when no index terms apply. When the upper bound at
// the last element can reach 2^addrWidth, every operand is widened one bit so
// the sum cannot wrap to zero; the address signal zero-extends into the
// comparison.
func (g *DecodeGen) predicate(node *rdl.Component, strides, extents []uint64, span uint64) (string, uint64) {
	aw := g.DS.AddrWidth
	addrSig := g.flavor.AddrSignal()

	cw := aw
	if len(strides) > 0 && aw < 64 {
		maxUpper := node.AbsAddr + span
		for k, stride := range strides {
			maxUpper += (extents[k] - 1) * stride
		}
		if maxUpper >= 1<<aw {
			cw = aw + 1
		}
	}

	lower := sv.SizedInt(node.AbsAddr, cw)
	upper := lower.Plus(sv.SizedInt(span, cw))

	lowerParts := []string{lower.String()}
	upperParts := []string{upper.String()}
	for k, stride := range strides {
		term := fmt.Sprintf("(%d'(i%d)*%s)", cw, k, sv.SizedInt(stride, cw))
		lowerParts = append(lowerParts, term)
		upperParts = append(upperParts, term)
	}

	var conds []string
	if node.AbsAddr != 0 || len(strides) > 0 {
		conds = append(conds, fmt.Sprintf("%s >= (%s)", addrSig, strings.Join(lowerParts, "+")))
	}
	if uint64(node.AbsAddr)+span != 1<<aw || len(strides) > 0 {
		conds = append(conds, fmt.Sprintf("%s < (%s)", addrSig, strings.Join(upperParts, "+")))
	}
	if len(conds) == 0 {
		return "1'b1", node.AbsAddr
	}
	for i, c := range conds {
		conds[i] = "(" + c + ")"
	}
	return strings.Join(conds, " && "), node.AbsAddr
}

func (g *DecodeGen) selectAssign(node *rdl.Component) string {
	return fmt.Sprintf("%s.%s = 1'b1;", g.flavor.SelectSignal(), rdl.IndexedPath(g.DS.Top, node, "i"))
}

func (g *DecodeGen) errAssign() string {
	return fmt.Sprintf("%s.cpuif_err = 1'b1;", g.flavor.SelectSignal())
}

func (g *DecodeGen) top() fmt.Stringer {
	return g.stack[len(g.stack)-1]
}

func (g *DecodeGen) pop() fmt.Stringer {
	if len(g.stack) <= 1 {
		panic("gen: decode stack underflow")
	}
	f := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	return f
}

// String renders the decode chain. Wide flat chains of address-tagged
// branches are reorganized into a binary decision tree; otherwise a single
// trailing else sets the decode-error flag.
func (g *DecodeGen) String() string {
	if len(g.stack) != 1 {
		panic("gen: decode stack not drained")
	}
	branches := g.root.Branches()
	if len(branches) > SearchThreshold && allTagged(branches) {
		return g.searchTree(sortedByAddr(branches)).String()
	}
	flat := &sv.IfBody{}
	for _, br := range branches {
		flat.Branch(br.Cond).Append(br.Body())
	}
	flat.Else().Add(g.errAssign())
	return flat.String()
}

// searchTree recursively bisects the address-ordered branches. Because
// sibling ranges are disjoint, comparing against the first address of the
// right half preserves first-match semantics exactly.
func (g *DecodeGen) searchTree(branches []*sv.Branch) *sv.IfBody {
	out := &sv.IfBody{}
	if len(branches) <= SearchThreshold+1 {
		for _, br := range branches {
			out.Branch(br.Cond).Append(br.Body())
		}
		out.Else().Add(g.errAssign())
		return out
	}
	mid := len(branches) / 2
	split := sv.SizedInt(branches[mid].Addr, g.DS.AddrWidth)
	out.Branch(fmt.Sprintf("%s < %s", g.flavor.AddrSignal(), split)).
		Append(g.searchTree(branches[:mid]))
	out.Else().Append(g.searchTree(branches[mid:]))
	return out
}

func allTagged(branches []*sv.Branch) bool {
	for _, br := range branches {
		if !br.Tagged {
			return false
		}
	}
	return true
}

func sortedByAddr(branches []*sv.Branch) []*sv.Branch {
	out := append([]*sv.Branch(nil), branches...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
