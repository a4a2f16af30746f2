// Package design computes the per-export aggregate state every generator
// shares: bus widths, names, the decode-depth boundary, and extracted
// root-level parameters. The state is built once per export and is
// read-only afterwards.
package design

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rdlgen/busdecoder/internal/rdl"
	"github.com/rdlgen/busdecoder/internal/sv"
)

// defaultDataWidth is used when the design contains no internal registers
// and the bus width cannot be inferred.
const defaultDataWidth = 32

// Config carries the user overrides that shape a DesignState.
type Config struct {
	// ModuleName overrides the generated module name. Defaults to the top
	// node's instance name.
	ModuleName string

	// PackageName overrides the generated package name. Defaults to the
	// module name with a "_pkg" suffix.
	PackageName string

	// AddressWidth overrides the slave-side address width. Must be at
	// least the computed minimum. Zero means "use the minimum".
	AddressWidth uint

	// DecodeDepth is the hierarchy depth at which decoding stops and a
	// subtree becomes a single opaque select target. Zero decodes all the
	// way down to leaf registers.
	DecodeDepth int

	// Unroll expands arrayed children into individually named instances
	// instead of true HDL arrays.
	Unroll bool
}

// State is the immutable per-export aggregate.
type State struct {
	Top         *rdl.Component
	ModuleName  string
	PackageName string
	DataWidth   uint
	AddrWidth   uint
	DecodeDepth int
	Unroll      bool

	HasExternalAddressable bool
	HasExternalBlock       bool

	// Params are the classified root-level parameters.
	Params []rdl.Param
}

// New scans the elaborated tree and builds the design state. It fails when
// an explicit address-width override is below the computed minimum.
func New(top *rdl.Component, cfg Config, log *zap.Logger) (*State, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.DecodeDepth < 0 {
		return nil, fmt.Errorf("decode depth must be >= 0, got %d", cfg.DecodeDepth)
	}

	s := &State{
		Top:         top,
		DecodeDepth: cfg.DecodeDepth,
		Unroll:      cfg.Unroll,
	}

	scan := scanDesign(top)
	s.DataWidth = scan.maxAccessWidth
	s.HasExternalAddressable = scan.hasExternalAddressable
	s.HasExternalBlock = scan.hasExternalBlock
	if s.DataWidth == 0 {
		log.Warn("design contains only external components; cannot infer bus width, assuming 32 bits",
			zap.String("top", top.InstName))
		s.DataWidth = defaultDataWidth
	}

	s.ModuleName = cfg.ModuleName
	if s.ModuleName == "" {
		s.ModuleName = sv.SafeID(top.InstName)
	}
	s.PackageName = cfg.PackageName
	if s.PackageName == "" {
		s.PackageName = s.ModuleName + "_pkg"
	}

	// The address width must enclose the whole map and still leave at
	// least one useful bit above the byte lanes.
	minWidth := max(sv.CeilLog2(top.TotalSize()), sv.CeilLog2(uint64(s.DataWidth/8))+1)
	s.AddrWidth = minWidth
	if cfg.AddressWidth != 0 {
		if cfg.AddressWidth < minWidth {
			return nil, fmt.Errorf("address width override %d is below the computed minimum %d",
				cfg.AddressWidth, minWidth)
		}
		s.AddrWidth = cfg.AddressWidth
	}

	s.Params = rdl.ExtractParams(top)
	return s, nil
}

// DataWidthBytes is the bus byte-lane count.
func (s *State) DataWidthBytes() uint {
	return s.DataWidth / 8
}

// Boundary reports whether a node at the given depth (1 = direct child of
// the top node) is a decode boundary: external blocks always are, nodes at
// the configured depth limit are, and leaves are.
func (s *State) Boundary(node *rdl.Component, depth int) bool {
	if node.External {
		return true
	}
	if s.DecodeDepth > 0 && depth >= s.DecodeDepth {
		return true
	}
	return !node.HasAddressableChildren()
}

// BoundaryNodes returns, in declaration order, every node sitting exactly at
// the decode boundary. These are the select targets: one master port group
// is generated per entry.
func (s *State) BoundaryNodes() []*rdl.Component {
	var out []*rdl.Component
	var walk func(c *rdl.Component, depth int)
	walk = func(c *rdl.Component, depth int) {
		for _, child := range c.Children(s.Unroll) {
			if s.Boundary(child, depth+1) {
				out = append(out, child)
				continue
			}
			walk(child, depth+1)
		}
	}
	walk(s.Top, 0)
	return out
}
