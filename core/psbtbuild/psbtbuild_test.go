package psbtbuild

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
)

func prevOut(value int64, idx uint32) PrevOut {
	return PrevOut{
		OutPoint: wire.OutPoint{Hash: chainhash.Hash{}, Index: idx},
		TxOut:    wire.NewTxOut(value, []byte{txscript.OP_DUP, txscript.OP_HASH160}),
	}
}

func TestBuildSingleWithChangeAndRunestone(t *testing.T) {
	recipient := wire.NewTxOut(546, []byte{txscript.OP_DUP})
	change := wire.NewTxOut(0, []byte{txscript.OP_DUP})
	runestoneScript := []byte{txscript.OP_RETURN, txscript.OP_13, 0x02, 0x4d}
	runestone := wire.NewTxOut(0, runestoneScript)

	p := Params{
		Mode:    ModeSingle,
		Inputs:  []PrevOut{prevOut(100_000, 0)},
		Outputs: []*wire.TxOut{recipient, change, runestone},
		FeeRate: 1,
		Network: &chaincfg.RegressionNetParams,
	}
	res, err := Build(p)
	if err != nil {
		t.Fatal(err)
	}
	if res.ChangeIndex < 0 {
		t.Fatal("expected a change output")
	}
	gotChange := res.Packet.UnsignedTx.TxOut[res.ChangeIndex].Value
	wantChange := int64(100_000 - 546 - int64(res.Fee))
	if gotChange != wantChange {
		t.Fatalf("change = %d, want %d", gotChange, wantChange)
	}
}

func TestBuildDustChangeAbsorbedIntoFee(t *testing.T) {
	recipient := wire.NewTxOut(99_900, []byte{txscript.OP_DUP})
	change := wire.NewTxOut(0, []byte{txscript.OP_DUP})

	p := Params{
		Mode:    ModeSingle,
		Inputs:  []PrevOut{prevOut(100_000, 0)},
		Outputs: []*wire.TxOut{recipient, change},
		FeeRate: 1,
		Network: &chaincfg.RegressionNetParams,
	}
	res, err := Build(p)
	if err != nil {
		t.Fatal(err)
	}
	if res.ChangeIndex != -1 {
		t.Fatal("expected change to be absorbed into fee (dust)")
	}
	if len(res.Packet.UnsignedTx.TxOut) != 1 {
		t.Fatalf("expected dust change output dropped, got %d outputs", len(res.Packet.UnsignedTx.TxOut))
	}
}

func TestBuildInsufficientFunds(t *testing.T) {
	recipient := wire.NewTxOut(200_000, []byte{txscript.OP_DUP})
	p := Params{
		Mode:    ModeSingle,
		Inputs:  []PrevOut{prevOut(100_000, 0)},
		Outputs: []*wire.TxOut{recipient},
		FeeRate: 1,
		Network: &chaincfg.RegressionNetParams,
	}
	_, err := Build(p)
	k, ok := alkerrors.KindOf(err)
	if !ok || k != alkerrors.Wallet {
		t.Fatalf("expected Wallet error, got %v", err)
	}
}

func TestBuildFeeCappedAtMaxFeeSats(t *testing.T) {
	recipient := wire.NewTxOut(546, []byte{txscript.OP_DUP})
	p := Params{
		Mode:    ModeSingle,
		Inputs:  []PrevOut{prevOut(1_000_000_000, 0)},
		Outputs: []*wire.TxOut{recipient, wire.NewTxOut(0, []byte{txscript.OP_DUP})},
		FeeRate: 10_000_000,
		Network: &chaincfg.RegressionNetParams,
	}
	res, err := Build(p)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Capped || res.Fee != MaxFeeSats {
		t.Fatalf("expected capped fee of %d, got capped=%v fee=%d", MaxFeeSats, res.Capped, res.Fee)
	}
}

func TestBuildCappedBelowMinWarning(t *testing.T) {
	recipient := wire.NewTxOut(546, []byte{txscript.OP_DUP})
	p := Params{
		Mode:         ModeSingle,
		Inputs:       []PrevOut{prevOut(1_000_000_000, 0)},
		Outputs:      []*wire.TxOut{recipient, wire.NewTxOut(0, []byte{txscript.OP_DUP})},
		FeeRate:      10_000_000,
		MinRelayRate: 1_000_000,
		Network:      &chaincfg.RegressionNetParams,
	}
	res, err := Build(p)
	if err != nil {
		t.Fatal(err)
	}
	k, ok := alkerrors.KindOf(res.Warning)
	if !ok || k != alkerrors.CappedBelowMin {
		t.Fatalf("expected CappedBelowMin warning, got %v", res.Warning)
	}
}
