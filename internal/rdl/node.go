// Package rdl models the elaborated SystemRDL addressable-component tree
// that the bus-decoder generators consume. The tree is produced by an
// external front-end compiler; this package only reads it, expands arrays
// on request, and extracts root-level parameters.
package rdl

import (
	"fmt"
	"strings"
)

// Kind classifies an addressable component.
type Kind int

const (
	KindAddrmap Kind = iota
	KindRegfile
	KindReg
	KindMem
)

func (k Kind) String() string {
	switch k {
	case KindAddrmap:
		return "addrmap"
	case KindRegfile:
		return "regfile"
	case KindReg:
		return "reg"
	case KindMem:
		return "mem"
	}
	return "unknown"
}

// Component is one addressable node of the elaborated tree: a register, a
// register array, a nested address map, or an external block.
type Component struct {
	Kind     Kind
	InstName string

	// AbsAddr is the absolute byte offset of the component (of element
	// zero, for arrays).
	AbsAddr uint64

	// Size is the byte size of one element.
	Size uint64

	// Dims are the declared array extents, outermost first. Empty for
	// scalar instances.
	Dims []uint64

	// Stride is the byte distance between consecutive elements of the
	// innermost (fastest-varying) dimension. Zero for scalars.
	Stride uint64

	// CurrentIdx is set only on instances produced by unrolling an array.
	// A component with a concrete current index is never treated as
	// arrayed, regardless of its originating declaration.
	CurrentIdx []uint64

	// External marks a component whose internals are opaque to the
	// decoder. External components are always decode boundaries.
	External bool

	// AccessWidth is the software access width in bits. Registers only.
	AccessWidth uint

	// RefParams names the root-level parameters whose values this
	// component's properties referenced during elaboration. Recorded by
	// the front end; consumed by parameter classification.
	RefParams []string

	// Params are the root addrmap's declared parameters. Only meaningful
	// on the top node.
	Params []ParamDecl

	children []*Component
	parent   *Component
}

// ParamDecl is a root-level parameter declaration with its elaborated value.
type ParamDecl struct {
	Name   string
	Value  int64
	Bool   bool
	IsBool bool
}

// AddChild appends a child component and returns it, so trees can be built
// fluently in tests and front ends.
func (c *Component) AddChild(child *Component) *Component {
	child.parent = c
	c.children = append(c.children, child)
	return child
}

// Parent returns the enclosing component, or nil for the top node.
func (c *Component) Parent() *Component {
	return c.parent
}

// IsArray reports whether the component is an array instance that has not
// been unrolled into a concrete element.
func (c *Component) IsArray() bool {
	return len(c.Dims) > 0 && c.CurrentIdx == nil
}

// NElements returns the total element count, 1 for scalars and unrolled
// instances.
func (c *Component) NElements() uint64 {
	if !c.IsArray() {
		return 1
	}
	n := uint64(1)
	for _, d := range c.Dims {
		n *= d
	}
	return n
}

// ElementStride returns the innermost element stride, defaulting to the
// element size for contiguous arrays that declare no explicit stride.
func (c *Component) ElementStride() uint64 {
	if c.Stride != 0 {
		return c.Stride
	}
	return c.Size
}

// TotalSize is the byte span of the whole component: the contiguous
// stride*count span for arrays, the element size otherwise.
func (c *Component) TotalSize() uint64 {
	if !c.IsArray() {
		return c.Size
	}
	return c.ElementStride() * c.NElements()
}

// DimStrides returns the per-dimension byte strides, outermost first. The
// innermost stride is the declared element stride; each outer dimension's
// stride is the product of all inner extents and that stride.
func (c *Component) DimStrides() []uint64 {
	if !c.IsArray() {
		return nil
	}
	strides := make([]uint64, len(c.Dims))
	s := c.ElementStride()
	for i := len(c.Dims) - 1; i >= 0; i-- {
		strides[i] = s
		s *= c.Dims[i]
	}
	return strides
}

// HasAddressableChildren reports whether any child is itself addressable.
// Registers and memories are leaves in this model.
func (c *Component) HasAddressableChildren() bool {
	return len(c.children) > 0
}

// Children returns the child components in declaration order. When unroll is
// set, arrayed children are expanded into individually indexed instances in
// row-major order, with shifted absolute addresses.
func (c *Component) Children(unroll bool) []*Component {
	if !unroll {
		return c.children
	}
	var out []*Component
	for _, child := range c.children {
		if !child.IsArray() {
			out = append(out, child)
			continue
		}
		out = append(out, child.unrollInstances()...)
	}
	return out
}

// InstanceName returns the instance name, with concrete indices appended for
// unrolled instances (e.g. "blk_0_2").
func (c *Component) InstanceName() string {
	if c.CurrentIdx == nil {
		return c.InstName
	}
	parts := make([]string, 0, len(c.CurrentIdx)+1)
	parts = append(parts, c.InstName)
	for _, i := range c.CurrentIdx {
		parts = append(parts, fmt.Sprint(i))
	}
	return strings.Join(parts, "_")
}

func (c *Component) unrollInstances() []*Component {
	strides := c.DimStrides()
	n := c.NElements()
	out := make([]*Component, 0, n)
	idx := make([]uint64, len(c.Dims))
	for {
		var offset uint64
		for d, i := range idx {
			offset += i * strides[d]
		}
		inst := c.shiftCopy(offset)
		inst.CurrentIdx = append([]uint64(nil), idx...)
		inst.parent = c.parent
		out = append(out, inst)

		// Advance the row-major index vector.
		d := len(idx) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < c.Dims[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return out
		}
	}
}

// shiftCopy deep-copies the subtree with all absolute addresses moved by
// delta. Children keep their relative placement.
func (c *Component) shiftCopy(delta uint64) *Component {
	cp := *c
	cp.AbsAddr = c.AbsAddr + delta
	cp.children = make([]*Component, len(c.children))
	for i, child := range c.children {
		cc := child.shiftCopy(delta)
		cc.parent = &cp
		cp.children[i] = cc
	}
	return &cp
}

// Path returns the dotted instance path from (and excluding) top down to c.
func (c *Component) Path(top *Component) string {
	var segs []string
	for n := c; n != nil && n != top; n = n.parent {
		segs = append(segs, n.InstanceName())
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, ".")
}
