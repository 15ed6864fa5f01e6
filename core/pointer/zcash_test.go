package pointer

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

func p2sh() []byte {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_HASH160)
	b.AddData(make([]byte, 20))
	b.AddOp(txscript.OP_EQUAL)
	s, _ := b.Script()
	return s
}

func TestIsTAddress(t *testing.T) {
	if !IsTAddress(p2pkh()) {
		t.Fatal("p2pkh should be a t-address")
	}
	if !IsTAddress(p2sh()) {
		t.Fatal("p2sh should be a t-address")
	}
	if IsTAddress(opReturn()) {
		t.Fatal("op_return should not be a t-address")
	}
	if IsTAddress(unknown()) {
		t.Fatal("unknown script should not be a t-address")
	}
}

func TestIsZAddressOrUnknown(t *testing.T) {
	if IsZAddressOrUnknown(p2pkh()) {
		t.Fatal("t-address should not count as z-address-or-unknown")
	}
	if IsZAddressOrUnknown(opReturn()) {
		t.Fatal("op_return should not count as z-address-or-unknown")
	}
	if !IsZAddressOrUnknown(unknown()) {
		t.Fatal("unrecognized script should count as z-address-or-unknown")
	}
}

func TestFindDefaultTAddressOutput(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, unknown()),
		wire.NewTxOut(2000, p2pkh()),
		wire.NewTxOut(3000, p2sh()),
	}
	got := FindDefaultTAddressOutput(outs)
	if got == nil || *got != 2 {
		t.Fatalf("got %v, want 2", got)
	}
}

func TestFindDefaultTAddressOutputNone(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, unknown()),
	}
	if got := FindDefaultTAddressOutput(outs); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestResolveTAddressDirectPointer(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, p2pkh()),
	}
	got := ResolveTAddressWithFallback(outs, u32(1), nil)
	if got == nil || *got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
}

func TestResolveTAddressFallsBackToRefund(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, unknown()),
		wire.NewTxOut(2000, p2pkh()),
	}
	got := ResolveTAddressWithFallback(outs, u32(1), u32(2))
	if got == nil || *got != 2 {
		t.Fatalf("got %v, want 2", got)
	}
}

func TestResolveTAddressFallsBackToFirstDefault(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, unknown()),
		wire.NewTxOut(2000, unknown()),
		wire.NewTxOut(3000, p2pkh()),
	}
	got := ResolveTAddressWithFallback(outs, u32(1), u32(2))
	if got == nil || *got != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}

func TestResolveTAddressNoneBurns(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, unknown()),
	}
	if got := ResolveTAddressWithFallback(outs, u32(1), nil); got != nil {
		t.Fatalf("expected burn (nil), got %v", got)
	}
}

// P2TR is a standard output generally but not a Zcash t-address — the
// narrower Zcash-specific chain must not resolve to it.
func TestResolveTAddressRejectsNonTaddrStandardOutput(t *testing.T) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_1)
	b.AddData(make([]byte, 32))
	p2tr, _ := b.Script()

	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, p2tr),
	}
	if got := ResolveTAddressWithFallback(outs, u32(1), nil); got != nil {
		t.Fatalf("expected burn (nil) for p2tr-only outputs, got %v", got)
	}
}
