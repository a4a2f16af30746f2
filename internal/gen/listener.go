// Package gen holds the tree-walk machinery and the generators that
// synthesize selector structs and address-decode logic from the elaborated
// component tree.
package gen

import (
	"fmt"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/rdl"
)

// Action tells the walker whether to descend into a node's children.
type Action int

const (
	Continue Action = iota
	SkipDescendants
)

// Visitor receives pre-order enter/exit callbacks for every addressable
// node. Enter may stop the descent below a node; Exit is still called for
// the node itself.
type Visitor interface {
	Enter(node *rdl.Component) Action
	Exit(node *rdl.Component)
}

// Walk runs a pre-order traversal over the addressable children of top (the
// top node itself is not visited). When unroll is set, arrayed children are
// expanded into concrete instances.
func Walk(top *rdl.Component, v Visitor, unroll bool) {
	var walk func(c *rdl.Component)
	walk = func(c *rdl.Component) {
		for _, child := range c.Children(unroll) {
			action := v.Enter(child)
			if action == Continue {
				walk(child)
			}
			v.Exit(child)
		}
	}
	walk(top)
}

// Listener is the traversal base every generator embeds. It tracks the
// current depth and the byte strides of all open array dimensions, and stops
// the descent at the decode boundary.
type Listener struct {
	DS *design.State

	strides []uint64
	extents []uint64
	depth   int
}

// Enter pushes the node's per-dimension strides and extents (outermost
// first), bumps the depth, and reports SkipDescendants once the node is a
// decode boundary.
func (l *Listener) Enter(node *rdl.Component) Action {
	if node.IsArray() {
		l.strides = append(l.strides, node.DimStrides()...)
		l.extents = append(l.extents, node.Dims...)
	}
	l.depth++
	if l.DS.Boundary(node, l.depth) {
		return SkipDescendants
	}
	return Continue
}

// Exit pops exactly the strides Enter pushed. Imbalance is a programming
// error, not a recoverable condition.
func (l *Listener) Exit(node *rdl.Component) {
	if node.IsArray() {
		n := len(node.Dims)
		if len(l.strides) < n {
			panic(fmt.Sprintf("gen: array stride stack underflow on exit of %q", node.InstName))
		}
		l.strides = l.strides[:len(l.strides)-n]
		l.extents = l.extents[:len(l.extents)-n]
	}
	l.depth--
}

// Strides returns the open array strides, outermost first. The slice aliases
// internal state and must not be retained across Exit calls.
func (l *Listener) Strides() []uint64 {
	return l.strides
}

// Extents returns the element counts of the open array dimensions, parallel
// to Strides. The slice aliases internal state and must not be retained
// across Exit calls.
func (l *Listener) Extents() []uint64 {
	return l.extents
}

// Depth returns the current traversal depth (1 = direct child of top).
func (l *Listener) Depth() int {
	return l.depth
}
