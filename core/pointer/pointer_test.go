package pointer

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/model"
	"alkanes-core/core/varint"
)

func p2pkh() []byte {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_DUP)
	b.AddOp(txscript.OP_HASH160)
	b.AddData(make([]byte, 20))
	b.AddOp(txscript.OP_EQUALVERIFY)
	b.AddOp(txscript.OP_CHECKSIG)
	s, _ := b.Script()
	return s
}

func opReturn() []byte {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_RETURN)
	b.AddData([]byte("data"))
	s, _ := b.Script()
	return s
}

func unknown() []byte {
	return []byte{txscript.OP_TRUE}
}

func u32(v uint32) *uint32 { return &v }

func TestResolveDirectPointer(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, p2pkh()),
	}
	got := Resolve(outs, u32(1), nil)
	if got == nil || *got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
}

func TestResolveFallsBackToRefund(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, unknown()),
		wire.NewTxOut(2000, p2pkh()),
	}
	got := Resolve(outs, u32(1), u32(2))
	if got == nil || *got != 2 {
		t.Fatalf("got %v, want 2", got)
	}
}

func TestResolveFallsBackToFirstStandard(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, unknown()),
		wire.NewTxOut(2000, unknown()),
		wire.NewTxOut(3000, p2pkh()),
	}
	got := Resolve(outs, u32(1), u32(2))
	if got == nil || *got != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}

func TestResolveNoneBurns(t *testing.T) {
	outs := []*wire.TxOut{
		wire.NewTxOut(0, opReturn()),
		wire.NewTxOut(1000, unknown()),
	}
	got := Resolve(outs, u32(1), nil)
	if got != nil {
		t.Fatalf("expected burn (nil), got %v", got)
	}
}

func edict(block, tx, amount, output uint64) model.ProtostoneEdict {
	return model.ProtostoneEdict{
		ID:     model.AlkaneId{Block: varint.FromUint64(block), Tx: varint.FromUint64(tx)},
		Amount: varint.FromUint64(amount),
		Output: varint.FromUint64(output),
	}
}

func TestAssignProtoburnsRoundRobin(t *testing.T) {
	edicts := []model.ProtostoneEdict{
		edict(1, 1, 10, 1),
		edict(1, 1, 10, 1),
		edict(2, 2, 10, 1),
	}
	assignments := AssignProtoburns(edicts, 1, nil, 2)
	if len(assignments) != 3 {
		t.Fatalf("got %d assignments, want 3", len(assignments))
	}
	want := map[int]int{0: 0, 1: 1, 2: 0}
	for _, a := range assignments {
		if a.BurnIndex != want[a.EdictIndex] {
			t.Fatalf("edict %d assigned burn %d, want %d", a.EdictIndex, a.BurnIndex, want[a.EdictIndex])
		}
	}
}

func TestAssignProtoburnsFromPreassignment(t *testing.T) {
	edicts := []model.ProtostoneEdict{
		edict(1, 1, 10, 1),
		edict(2, 2, 10, 1),
	}
	from := [][]int{{0}, {1}}
	assignments := AssignProtoburns(edicts, 1, from, 2)
	want := map[int]int{0: 0, 1: 1}
	if len(assignments) != 2 {
		t.Fatalf("got %d assignments, want 2", len(assignments))
	}
	for _, a := range assignments {
		if a.BurnIndex != want[a.EdictIndex] {
			t.Fatalf("edict %d assigned burn %d, want %d", a.EdictIndex, a.BurnIndex, want[a.EdictIndex])
		}
	}
}

func TestAssignProtoburnsIgnoresNonMatchingOutput(t *testing.T) {
	edicts := []model.ProtostoneEdict{edict(1, 1, 10, 5)}
	assignments := AssignProtoburns(edicts, 1, nil, 2)
	if len(assignments) != 0 {
		t.Fatalf("expected no assignments for non-matching output, got %d", len(assignments))
	}
}
