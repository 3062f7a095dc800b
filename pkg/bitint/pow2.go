// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-2 helpers used to size FFT plans
and validate analysis blocks on the render thread.

Design Principles:
- Zero Allocations: All operations use stack memory only
- Predictable Performance: O(1) constant time operations
- Real-Time Safe: No locks, syscalls, or blocking operations

Usage:

	// Reject blocks the FFT cannot transform exactly
	if !bitint.IsPowerOfTwo(frames) { ... }

	// Index a per-order plan table
	plan := plans[bitint.Log2(frames)]

	// Suggest a valid size in configuration errors
	size := bitint.NextPowerOfTwo(1000) // Returns 1024

----------------------------------------------------------------------

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of 2 are preserved:

	size = 8:  bits.Len(7) = 3, 1 << 3 = 8
	size = 9:  bits.Len(8) = 4, 1 << 4 = 16

Without the subtraction, 8 would become 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output  Explanation
//	4      4      Already power of 2 (preserved)
//	5      8      Next power after 5
//	0      1      Handle zero case
//	-1     1      Handle negative case
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// Powers of 2 have exactly one bit set, so n & (n-1) clears it to zero.
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
//	-8     false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the exponent of a power of 2, i.e. the FFT order of a block
// of n frames. The result is only meaningful when IsPowerOfTwo(n) holds;
// for other positive values it is the index of the lowest set bit, and for
// n <= 0 it is -1.
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
