package varint

import (
	"testing"

	"alkanes-core/core/alkerrors"
)

func TestRoundTrip(t *testing.T) {
	cases := []Uint128{
		Zero,
		FromUint64(1),
		FromUint64(127),
		FromUint64(128),
		FromUint64(300),
		FromUint64(1 << 62),
		{Hi: 1, Lo: 0},
		{Hi: 0xffffffffffffffff, Lo: 0xffffffffffffffff},
	}
	for _, v := range cases {
		enc := Encode(v)
		got, n, err := Decode(enc)
		if err != nil {
			t.Fatalf("decode(%v): %v", v, err)
		}
		if n != len(enc) {
			t.Fatalf("decode(%v): consumed %d, want %d", v, n, len(enc))
		}
		if got.Cmp(v) != 0 {
			t.Fatalf("round trip %v -> %v", v, got)
		}
	}
}

func TestEncodeMinimumLength(t *testing.T) {
	if got := Encode(Zero); len(got) != 1 {
		t.Fatalf("encode(0) length = %d, want 1", len(got))
	}
	if got := Encode(FromUint64(127)); len(got) != 1 {
		t.Fatalf("encode(127) length = %d, want 1", len(got))
	}
	if got := Encode(FromUint64(128)); len(got) != 2 {
		t.Fatalf("encode(128) length = %d, want 2", len(got))
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode([]byte{0x80, 0x80})
	if k, ok := alkerrors.KindOf(err); !ok || k != alkerrors.VarintTruncated {
		t.Fatalf("expected VarintTruncated, got %v", err)
	}
}

func TestDecodeTooLarge19Bytes(t *testing.T) {
	buf := make([]byte, 19)
	for i := 0; i < 18; i++ {
		buf[i] = 0xff // all continuation bits set, max payload
	}
	buf[18] = 0x7f // final group, terminates, but top bits overflow 128
	_, _, err := Decode(buf)
	if k, ok := alkerrors.KindOf(err); !ok || k != alkerrors.VarintTooLarge {
		t.Fatalf("expected VarintTooLarge, got %v", err)
	}
}

func TestDecodeTwentyBytesOverlong(t *testing.T) {
	buf := make([]byte, 20)
	for i := range buf {
		buf[i] = 0xff
	}
	buf[19] = 0x01
	_, _, err := Decode(buf)
	if k, ok := alkerrors.KindOf(err); !ok || k != alkerrors.VarintTooLarge {
		t.Fatalf("expected VarintTooLarge, got %v", err)
	}
}

func TestEncodeAllDecodeAll(t *testing.T) {
	vs := []Uint128{FromUint64(0), FromUint64(2), FromUint64(0x4000000), FromUint64(77)}
	buf := EncodeAll(vs)
	got, err := DecodeAll(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(vs) {
		t.Fatalf("got %d values, want %d", len(got), len(vs))
	}
	for i := range vs {
		if got[i].Cmp(vs[i]) != 0 {
			t.Fatalf("value %d: got %v want %v", i, got[i], vs[i])
		}
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add(uint64(0), uint64(0))
	f.Add(uint64(1), uint64(0))
	f.Add(uint64(0), uint64(1))
	f.Add(^uint64(0), ^uint64(0))
	f.Fuzz(func(t *testing.T, hi, lo uint64) {
		v := Uint128{Hi: hi, Lo: lo}
		enc := Encode(v)
		got, n, err := Decode(enc)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if n != len(enc) || got.Cmp(v) != 0 {
			t.Fatalf("round trip mismatch for %+v", v)
		}
	})
}
