package varint

import "alkanes-core/core/alkerrors"

// maxGroups is the number of 7-bit groups needed to cover 128 bits: the
// 19th group (index 18) contributes only the top 2 bits (126, 127); any
// set bit above that in the 19th group's 7-bit payload cannot be
// represented and is rejected as overflow, matching the canonical
// ord/runestone Integer::decode algorithm this codec is grounded on.
const maxGroups = 19

// overflowMask is the bit mask, within the final (19th) group's 7-bit
// payload, of bits that would shift past position 127.
const overflowMask = 0b0111_1100

// Encode writes v as a LEB128 byte sequence: each byte's low 7 bits are a
// base-128 digit in little-endian group order, with bit 7 set on every
// non-final byte. The shortest valid encoding is produced (minimum one
// byte, for v == 0).
func Encode(v Uint128) []byte {
	var out []byte
	for {
		group := byte(v.Lo & 0x7f)
		v = shiftRight7(v)
		if v.IsZero() {
			out = append(out, group)
			return out
		}
		out = append(out, group|0x80)
	}
}

// shiftRight7 divides v by 128, discarding the low 7 bits already
// extracted by the caller.
func shiftRight7(v Uint128) Uint128 {
	lo := (v.Lo >> 7) | (v.Hi << 57)
	hi := v.Hi >> 7
	return Uint128{Hi: hi, Lo: lo}
}

// Decode reads a single LEB128 value from buf, returning the value and the
// number of bytes consumed. It rejects a sequence whose cumulative shift
// would exceed the 128-bit capacity of the value (alkerrors.VarintTooLarge)
// or one that ends without a terminating (high-bit-clear) byte
// (alkerrors.VarintTruncated).
func Decode(buf []byte) (Uint128, int, error) {
	var n Uint128
	for i := 0; i < len(buf); i++ {
		if i >= maxGroups {
			return Uint128{}, 0, alkerrors.New(alkerrors.VarintTooLarge,
				"varint exceeds %d groups (128-bit capacity)", maxGroups)
		}
		b := buf[i]
		group := b & 0x7f
		if i == maxGroups-1 && group&overflowMask != 0 {
			return Uint128{}, 0, alkerrors.New(alkerrors.VarintTooLarge,
				"19th varint group overflows 128 bits")
		}
		n = n.or7(group, uint(7*i))
		if b&0x80 == 0 {
			return n, i + 1, nil
		}
	}
	return Uint128{}, 0, alkerrors.New(alkerrors.VarintTruncated,
		"varint ended mid-group after %d bytes", len(buf))
}

// DecodeAll decodes every varint in buf, consuming it entirely. It is used
// to re-decode a cellpack's message bytes (spec §4.4 decoding) and is the
// inverse of EncodeAll.
func DecodeAll(buf []byte) ([]Uint128, error) {
	var out []Uint128
	for len(buf) > 0 {
		v, n, err := Decode(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		buf = buf[n:]
	}
	return out, nil
}

// EncodeAll concatenates the LEB128 encoding of each value in order.
func EncodeAll(vs []Uint128) []byte {
	var out []byte
	for _, v := range vs {
		out = append(out, Encode(v)...)
	}
	return out
}
