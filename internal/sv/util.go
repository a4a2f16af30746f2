package sv

import "math/bits"

// CeilLog2 returns the number of bits needed to index n distinct locations.
// CeilLog2(1) == 0, CeilLog2(4) == 2, CeilLog2(5) == 3.
func CeilLog2(n uint64) uint {
	if n <= 1 {
		return 0
	}
	return uint(bits.Len64(n - 1))
}

// IsPow2 reports whether n is a power of two. Zero is not a power of two.
func IsPow2(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// RoundupPow2 returns the smallest power of two that is >= n.
func RoundupPow2(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << CeilLog2(n)
}
