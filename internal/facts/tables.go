// Package facts flattens the elaborated component tree into relational
// tables. The rows are the single input shared by the CUE schema gate and
// the Rego design-rule policies.
package facts

import (
	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/rdl"
)

// Tables is the relational fact model. Each slice is a relation with flat
// rows.
type Tables struct {
	Design     DesignRow      `json:"design"`
	Components []ComponentRow `json:"components"`
}

// DesignRow carries the per-export aggregates.
type DesignRow struct {
	ModuleName  string `json:"module_name"`
	DataWidth   uint   `json:"data_width"`
	AddrWidth   uint   `json:"addr_width"`
	DecodeDepth int    `json:"decode_depth"`
	Unroll      bool   `json:"unroll"`
}

// ComponentRow is one addressable node, identified by its dotted instance
// path from the top node.
type ComponentRow struct {
	Path        string   `json:"path"`
	Kind        string   `json:"kind"`
	AbsAddr     uint64   `json:"abs_addr"`
	Size        uint64   `json:"size"`
	TotalSize   uint64   `json:"total_size"`
	Dims        []uint64 `json:"dims"`
	Stride      uint64   `json:"stride"`
	External    bool     `json:"external"`
	AccessWidth uint     `json:"access_width"`
}

// Extract flattens every addressable node of the design into fact rows.
// External subtrees contribute their boundary node but not their internals.
func Extract(ds *design.State) Tables {
	t := Tables{
		Design: DesignRow{
			ModuleName:  ds.ModuleName,
			DataWidth:   ds.DataWidth,
			AddrWidth:   ds.AddrWidth,
			DecodeDepth: ds.DecodeDepth,
			Unroll:      ds.Unroll,
		},
		Components: []ComponentRow{},
	}

	var walk func(c *rdl.Component)
	walk = func(c *rdl.Component) {
		for _, child := range c.Children(false) {
			dims := child.Dims
			if dims == nil {
				dims = []uint64{}
			}
			t.Components = append(t.Components, ComponentRow{
				Path:        child.Path(ds.Top),
				Kind:        child.Kind.String(),
				AbsAddr:     child.AbsAddr,
				Size:        child.Size,
				TotalSize:   child.TotalSize(),
				Dims:        dims,
				Stride:      child.ElementStride(),
				External:    child.External,
				AccessWidth: child.AccessWidth,
			})
			if !child.External {
				walk(child)
			}
		}
	}
	walk(ds.Top)
	return t
}
