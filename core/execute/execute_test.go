package execute

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/coinselect"
	"alkanes-core/core/model"
	"alkanes-core/core/provider"
	"alkanes-core/core/varint"
)

func newFundedMock(t *testing.T, amount int64) (*provider.Mock, wire.OutPoint) {
	t.Helper()
	m, err := provider.NewMock(&chaincfg.RegressionNetParams)
	if err != nil {
		t.Fatal(err)
	}
	internalKey, _, err := m.GetInternalKey(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	addr, err := walletAddress(internalKey, m.GetNetwork())
	if err != nil {
		t.Fatal(err)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		t.Fatal(err)
	}
	op := wire.OutPoint{Index: 0}
	m.SeedUTXO(op, wire.NewTxOut(amount, script))
	return m, op
}

func recipientOutput(value int64) *wire.TxOut {
	script, err := txscript.NewScriptBuilder().AddOp(txscript.OP_TRUE).Script()
	if err != nil {
		panic(err)
	}
	return wire.NewTxOut(value, script)
}

func TestCheckConsistencyIncompleteDeployment(t *testing.T) {
	p := Params{Bytecode: []byte{0x01}}
	err := checkConsistency(p)
	kind, _ := alkerrors.KindOf(err)
	if kind != alkerrors.IncompleteDeployment {
		t.Fatalf("got %v, want IncompleteDeployment", err)
	}
}

func TestCheckConsistencyNoOperation(t *testing.T) {
	p := Params{ProtostoneSpecs: []model.ProtostoneSpec{{}}}
	err := checkConsistency(p)
	kind, _ := alkerrors.KindOf(err)
	if kind != alkerrors.NoOperation {
		t.Fatalf("got %v, want NoOperation", err)
	}
}

func TestCheckConsistencyOK(t *testing.T) {
	p := Params{
		Bytecode: []byte{0x01},
		ProtostoneSpecs: []model.ProtostoneSpec{{
			Cellpack: &model.Cellpack{Target: model.AlkaneId{Block: varint.FromUint64(2)}},
		}},
	}
	if err := checkConsistency(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildSingleAndResumeExecution(t *testing.T) {
	m, _ := newFundedMock(t, 100_000)
	ctx := context.Background()

	p := Params{
		Scope:   coinselect.Scope{},
		Outputs: []*wire.TxOut{recipientOutput(10_000)},
		FeeRate: 10,
	}
	state, err := BuildSingle(ctx, m, p)
	if err != nil {
		t.Fatal(err)
	}
	if state.Packet == nil {
		t.Fatal("expected a built psbt")
	}

	result, err := ResumeExecution(ctx, m, state)
	if err != nil {
		t.Fatal(err)
	}
	if result.RevealTxid == "" {
		t.Fatal("expected a broadcast txid")
	}
	if len(result.OutputsCreated) == 0 {
		t.Fatal("expected created outputs")
	}
}

func TestBuildSingleRejectsBytecode(t *testing.T) {
	m, _ := newFundedMock(t, 100_000)
	p := Params{Bytecode: []byte{0x01}}
	_, err := BuildSingle(context.Background(), m, p)
	kind, _ := alkerrors.KindOf(err)
	if kind != alkerrors.IncompleteDeployment {
		t.Fatalf("got %v, want IncompleteDeployment", err)
	}
}

func TestCommitRevealFullCycle(t *testing.T) {
	m, _ := newFundedMock(t, 1_000_000)
	ctx := context.Background()

	p := Params{
		Scope:   coinselect.Scope{},
		Outputs: []*wire.TxOut{recipientOutput(1_000)},
		ProtostoneSpecs: []model.ProtostoneSpec{{
			Cellpack: &model.Cellpack{Target: model.AlkaneId{Block: varint.FromUint64(3)}},
		}},
		Bytecode: []byte{0xde, 0xad, 0xbe, 0xef},
		FeeRate:  10,
	}

	commitState, err := BuildCommitReveal(ctx, m, p)
	if err != nil {
		t.Fatal(err)
	}
	if commitState.RevealTargetValue == 0 {
		t.Fatal("expected a non-zero reveal target value")
	}

	revealState, err := ResumeCommitExecution(ctx, m, commitState)
	if err != nil {
		t.Fatal(err)
	}
	if revealState.CommitTxid == "" {
		t.Fatal("expected a commit txid")
	}

	result, err := ResumeRevealExecution(ctx, m, revealState)
	if err != nil {
		t.Fatal(err)
	}
	if result.CommitTxid == nil || *result.CommitTxid != revealState.CommitTxid {
		t.Fatal("expected result to carry the commit txid")
	}
	if result.RevealTxid == "" {
		t.Fatal("expected a reveal txid")
	}
}

func TestBuildCommitRevealRequiresBytecode(t *testing.T) {
	m, _ := newFundedMock(t, 100_000)
	p := Params{
		ProtostoneSpecs: []model.ProtostoneSpec{{
			Cellpack: &model.Cellpack{Target: model.AlkaneId{Block: varint.FromUint64(3)}},
		}},
	}
	_, err := BuildCommitReveal(context.Background(), m, p)
	kind, _ := alkerrors.KindOf(err)
	if kind != alkerrors.NoOperation {
		t.Fatalf("got %v, want NoOperation", err)
	}
}
