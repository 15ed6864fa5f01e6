// Package tagstream implements the flat (tag, value) pairing used by the
// runestone payload (spec §4.2): a sequence of u128 values consumed
// pairwise, with tag 13 (ProtocolTag) carrying the inner protostone
// payload.
package tagstream

import "alkanes-core/core/varint"

// ProtocolTag is the runestone tag under which all protostone integer
// values are concatenated (spec §4.2, §6.2).
const ProtocolTag uint64 = 13

// Entry is one (tag, value) pair of the decoded stream.
type Entry struct {
	Tag   varint.Uint128
	Value varint.Uint128
}

// Group pairs a flat integer sequence into (tag, value) entries. An odd
// trailing integer is discarded per spec §4.2.
func Group(values []varint.Uint128) []Entry {
	n := len(values) / 2
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Entry{Tag: values[2*i], Value: values[2*i+1]})
	}
	return out
}

// Flatten is the inverse of Group: it lays entries back out as a flat
// sequence of (tag, value, tag, value, ...).
func Flatten(entries []Entry) []varint.Uint128 {
	out := make([]varint.Uint128, 0, len(entries)*2)
	for _, e := range entries {
		out = append(out, e.Tag, e.Value)
	}
	return out
}

// ValuesForTag returns, in insertion order, the Value of every entry whose
// Tag equals tag. Used to collect tag 13 (protocol data) out of the
// decoded stream.
func ValuesForTag(entries []Entry, tag uint64) []varint.Uint128 {
	want := varint.FromUint64(tag)
	var out []varint.Uint128
	for _, e := range entries {
		if e.Tag.Cmp(want) == 0 {
			out = append(out, e.Value)
		}
	}
	return out
}

// Encode serializes a flat integer sequence (already including its tag
// values interleaved) as the runestone's LEB128 byte stream.
func Encode(values []varint.Uint128) []byte {
	return varint.EncodeAll(values)
}

// Decode parses a runestone byte stream back into its flat integer
// sequence.
func Decode(data []byte) ([]varint.Uint128, error) {
	return varint.DecodeAll(data)
}
