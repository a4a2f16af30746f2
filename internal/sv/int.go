package sv

import (
	"fmt"
	"math/bits"
)

// Int is a SystemVerilog integer literal with an optional bit width.
// A Width of zero means the literal is unsized.
type Int struct {
	Value uint64
	Width uint
}

// SizedInt returns a literal that renders with an explicit width cast.
func SizedInt(value uint64, width uint) Int {
	return Int{Value: value, Width: width}
}

// UnsizedInt returns a literal without an explicit width.
func UnsizedInt(value uint64) Int {
	return Int{Value: value}
}

func (i Int) String() string {
	if i.Width != 0 {
		return fmt.Sprintf("%d'h%x", i.Width, i.Value)
	}
	if bits.Len64(i.Value) > 32 {
		// The LRM only guarantees 32 bits for unsized literals, so larger
		// values must carry an explicit size.
		return fmt.Sprintf("%d'h%x", bits.Len64(i.Value), i.Value)
	}
	return fmt.Sprintf("'h%x", i.Value)
}

// Plus returns the sum. The result is sized to the wider operand when both
// operands are sized, and unsized otherwise.
func (i Int) Plus(other Int) Int {
	return Int{Value: i.Value + other.Value, Width: combineWidth(i.Width, other.Width)}
}

// Minus returns the difference, with the same width propagation as Plus.
func (i Int) Minus(other Int) Int {
	return Int{Value: i.Value - other.Value, Width: combineWidth(i.Width, other.Width)}
}

func combineWidth(a, b uint) uint {
	if a == 0 || b == 0 {
		return 0
	}
	return max(a, b)
}
