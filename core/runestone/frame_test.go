package runestone

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
)

func TestBuildExtractRoundTrip(t *testing.T) {
	data := []byte{0x02, 0x4d}
	out, err := BuildOutput(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Value != 0 {
		t.Fatalf("value = %d, want 0", out.Value)
	}
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(out)

	got, found, err := Extract(tx)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected runestone found")
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %x, want %x", got, data)
	}
}

func TestExtractNoRunestoneIsNotError(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(546, []byte{txscript.OP_DUP, txscript.OP_HASH160}))
	_, found, err := Extract(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected no runestone")
	}
}

func TestExtractFirstMatchWins(t *testing.T) {
	data1 := []byte{1}
	data2 := []byte{2}
	out1, _ := BuildOutput(data1)
	out2, _ := BuildOutput(data2)
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(out1)
	tx.AddTxOut(out2)
	got, found, err := Extract(tx)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if !bytes.Equal(got, data1) {
		t.Fatalf("got %x, want first match %x", got, data1)
	}
}

func TestExtractLargePayloadChunked(t *testing.T) {
	data := bytes.Repeat([]byte{0xab}, 1200)
	out, err := BuildOutput(data)
	if err != nil {
		t.Fatal(err)
	}
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(out)
	got, found, err := Extract(tx)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("chunked payload did not round trip")
	}
}

func TestExtractRejectsNonPushOpcode(t *testing.T) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_RETURN)
	b.AddOp(MagicOpcode)
	b.AddOp(txscript.OP_ADD) // not a data push
	script, err := b.Script()
	if err != nil {
		t.Fatal(err)
	}
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, script))
	_, _, err = Extract(tx)
	if k, ok := alkerrors.KindOf(err); !ok || k != alkerrors.FrameMalformed {
		t.Fatalf("expected FrameMalformed, got %v", err)
	}
}

func TestExtractVoutReportsRunestoneIndex(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(546, nil))
	out, _ := BuildOutput([]byte{1})
	tx.AddTxOut(out)
	_, vout, found, err := ExtractVout(tx)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if vout != 1 {
		t.Fatalf("vout = %d, want 1", vout)
	}
}
