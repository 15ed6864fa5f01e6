// Package varint implements the LEB128 codec for u128 values used by the
// runestone wire format (spec §4.1): each byte contributes 7 base-128 bits,
// little-endian group order, with bit 7 set on every non-final byte.
package varint

import (
	"fmt"
	"math/bits"
)

// Uint128 is an unsigned 128-bit integer stored as two big-endian machine
// words. It is comparable and usable as a map key, unlike math/big.Int,
// which every (block, tx) identifier and edict amount in this codec needs
// to be (AlkaneId and ProtostoneEdict.Id are used as map keys by the
// coin selector and the protoburn cycler).
type Uint128 struct {
	Hi, Lo uint64
}

// Zero is the zero-value Uint128, written out for readability at call
// sites that compare against it.
var Zero = Uint128{}

// FromUint64 promotes a uint64 to a Uint128.
func FromUint64(v uint64) Uint128 { return Uint128{Lo: v} }

// Uint64 returns the low 64 bits, with ok=false if the high bits are
// non-zero (value does not fit in a uint64).
func (u Uint128) Uint64() (v uint64, ok bool) {
	return u.Lo, u.Hi == 0
}

// IsZero reports whether u is the zero value.
func (u Uint128) IsZero() bool { return u.Hi == 0 && u.Lo == 0 }

// Cmp returns -1, 0, or 1 as u is less than, equal to, or greater than v.
func (u Uint128) Cmp(v Uint128) int {
	if u.Hi != v.Hi {
		if u.Hi < v.Hi {
			return -1
		}
		return 1
	}
	if u.Lo != v.Lo {
		if u.Lo < v.Lo {
			return -1
		}
		return 1
	}
	return 0
}

// Add returns u+v, wrapping on overflow (wire values never approach the
// 128-bit ceiling in practice; wrapping matches Rust's release-mode u128
// arithmetic rather than panicking).
func (u Uint128) Add(v Uint128) Uint128 {
	lo, carry := bits.Add64(u.Lo, v.Lo, 0)
	hi, _ := bits.Add64(u.Hi, v.Hi, carry)
	return Uint128{Hi: hi, Lo: lo}
}

// Sub returns u-v. The caller is responsible for ensuring u >= v; a
// smaller u wraps around modulo 2^128.
func (u Uint128) Sub(v Uint128) Uint128 {
	lo, borrow := bits.Sub64(u.Lo, v.Lo, 0)
	hi, _ := bits.Sub64(u.Hi, v.Hi, borrow)
	return Uint128{Hi: hi, Lo: lo}
}

// or7 ORs a 7-bit group into bit position shift..shift+6 of u.
func (u Uint128) or7(group byte, shift uint) Uint128 {
	v := uint64(group & 0x7f)
	if shift >= 64 {
		u.Hi |= v << (shift - 64)
	} else if shift+7 <= 64 {
		u.Lo |= v << shift
	} else {
		// straddles the 64-bit boundary
		u.Lo |= v << shift
		u.Hi |= v >> (64 - shift)
	}
	return u
}

// bitLen returns the number of bits needed to represent u, 0 for the zero
// value (matching math/bits.Len64 convention).
func (u Uint128) bitLen() int {
	if u.Hi != 0 {
		return 64 + bits.Len64(u.Hi)
	}
	return bits.Len64(u.Lo)
}

func (u Uint128) String() string {
	if u.Hi == 0 {
		return fmt.Sprintf("%d", u.Lo)
	}
	return decimalString(u)
}

// decimalString converts u to base-10 using long division by 10, which is
// simple and correct for the rare case (full deployments, huge edict
// amounts) where Hi != 0; it is not on any codec hot path.
func decimalString(u Uint128) string {
	if u.IsZero() {
		return "0"
	}
	digits := make([]byte, 0, 39)
	for !u.IsZero() {
		var rem uint64
		u, rem = divmod10(u)
		digits = append(digits, byte('0')+byte(rem))
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

func divmod10(u Uint128) (Uint128, uint64) {
	var rem uint64
	var q Uint128
	// long division, most significant bit first
	for i := 127; i >= 0; i-- {
		rem <<= 1
		if bit(u, i) {
			rem |= 1
		}
		if rem >= 10 {
			rem -= 10
			q = setBit(q, i)
		}
	}
	return q, rem
}

func bit(u Uint128, i int) bool {
	if i >= 64 {
		return (u.Hi>>(uint(i)-64))&1 == 1
	}
	return (u.Lo>>uint(i))&1 == 1
}

func setBit(u Uint128, i int) Uint128 {
	if i >= 64 {
		u.Hi |= 1 << (uint(i) - 64)
	} else {
		u.Lo |= 1 << uint(i)
	}
	return u
}
