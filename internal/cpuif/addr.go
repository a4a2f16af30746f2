package cpuif

import (
	"fmt"
	"strings"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/rdl"
	"github.com/rdlgen/busdecoder/internal/sv"
)

// ChildAddrWidthParam names the localparam holding a decode target's own
// address width. Targets below the top level contribute their full
// flattened path.
func ChildAddrWidthParam(ds *design.State, node *rdl.Component) string {
	id := strings.ReplaceAll(node.Path(ds.Top), ".", "_")
	return fmt.Sprintf("%s_%s_ADDR_WIDTH", strings.ToUpper(ds.ModuleName), strings.ToUpper(id))
}

// ChildAddrWidth is the number of address bits a decode target needs for its
// own byte range.
func ChildAddrWidth(node *rdl.Component) uint {
	return sv.CeilLog2(node.Size)
}

// CanTruncateAddr reports whether the child-relative address can be produced
// by slicing the low bits of the slave address: the child's element size
// must be a power of two, its base address aligned to that size, and every
// enclosing array stride a multiple of it.
func CanTruncateAddr(node *rdl.Component, strides []uint64) bool {
	if !sv.IsPow2(node.Size) {
		return false
	}
	if node.AbsAddr%node.Size != 0 {
		return false
	}
	for _, stride := range strides {
		if stride%node.Size != 0 {
			return false
		}
	}
	return true
}

// childAddrExpr renders the expression driving a selected child's address
// input from the slave-side address signal: a direct low-bit slice when the
// truncation preconditions hold, otherwise an explicit subtraction of the
// base address and every open index*stride term.
func childAddrExpr(ds *design.State, node *rdl.Component, strides []uint64, slaveAddr string) string {
	widthParam := ChildAddrWidthParam(ds, node)
	if CanTruncateAddr(node, strides) {
		return fmt.Sprintf("%s[%s-1:0]", slaveAddr, widthParam)
	}

	parts := []string{slaveAddr, sv.SizedInt(node.AbsAddr, ds.AddrWidth).String()}
	for i, stride := range strides {
		parts = append(parts, fmt.Sprintf("%d'(gi%d*%s)",
			ds.AddrWidth, i, sv.SizedInt(stride, ds.AddrWidth)))
	}
	return fmt.Sprintf("%s'(%s)", widthParam, strings.Join(parts, " - "))
}
