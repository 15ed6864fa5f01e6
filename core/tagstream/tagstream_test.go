package tagstream

import (
	"testing"

	"alkanes-core/core/varint"
)

func TestGroupOddTrailingDiscarded(t *testing.T) {
	vs := []varint.Uint128{
		varint.FromUint64(13), varint.FromUint64(2),
		varint.FromUint64(13), varint.FromUint64(4),
		varint.FromUint64(99), // trailing, discarded
	}
	entries := Group(vs)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestRoundTripPreservesOrderWithinTag(t *testing.T) {
	entries := []Entry{
		{Tag: varint.FromUint64(13), Value: varint.FromUint64(1)},
		{Tag: varint.FromUint64(7), Value: varint.FromUint64(5)},
		{Tag: varint.FromUint64(13), Value: varint.FromUint64(2)},
	}
	flat := Flatten(entries)
	encoded := Encode(flat)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	regrouped := Group(decoded)
	if len(regrouped) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(regrouped), len(entries))
	}
	tag13 := ValuesForTag(regrouped, 13)
	if len(tag13) != 2 || tag13[0].Cmp(varint.FromUint64(1)) != 0 || tag13[1].Cmp(varint.FromUint64(2)) != 0 {
		t.Fatalf("tag13 values = %v", tag13)
	}
}

func TestValuesForTagEmpty(t *testing.T) {
	if got := ValuesForTag(nil, 13); len(got) != 0 {
		t.Fatalf("expected no values, got %v", got)
	}
}
