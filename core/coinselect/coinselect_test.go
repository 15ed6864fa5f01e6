package coinselect

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/model"
	"alkanes-core/core/varint"
)

func utxo(amount uint64, idx uint32, frozen bool, confs int64) model.UTXO {
	return model.UTXO{
		OutPoint:      wire.OutPoint{Hash: chainhash.Hash{}, Index: idx},
		Amount:        amount,
		Frozen:        frozen,
		Confirmations: confs,
	}
}

func TestSelectGreedyFirstFit(t *testing.T) {
	candidates := []model.UTXO{
		utxo(50_000, 0, false, 6),
		utxo(60_000, 1, false, 6),
		utxo(70_000, 2, false, 6),
	}
	reqs := []model.InputRequirement{{Kind: model.RequireBitcoin, Amount: 100_000}}
	res, err := Select(candidates, reqs, Scope{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Selected) != 2 {
		t.Fatalf("selected %d utxos, want 2 (first-fit order)", len(res.Selected))
	}
	if res.TotalSelected != 110_000 {
		t.Fatalf("total = %d, want 110000", res.TotalSelected)
	}
}

func TestSelectSkipsFrozen(t *testing.T) {
	candidates := []model.UTXO{
		utxo(100_000, 0, true, 6),
		utxo(100_000, 1, false, 6),
	}
	reqs := []model.InputRequirement{{Kind: model.RequireBitcoin, Amount: 50_000}}
	res, err := Select(candidates, reqs, Scope{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Selected) != 1 || res.Selected[0].OutPoint.Index != 1 {
		t.Fatalf("expected only the unfrozen utxo selected, got %+v", res.Selected)
	}
}

func TestSelectInsufficientFunds(t *testing.T) {
	candidates := []model.UTXO{utxo(100_000, 0, false, 6)}
	reqs := []model.InputRequirement{{Kind: model.RequireBitcoin, Amount: 200_000}}
	_, err := Select(candidates, reqs, Scope{})
	k, ok := alkerrors.KindOf(err)
	if !ok || k != alkerrors.Wallet {
		t.Fatalf("expected Wallet error, got %v", err)
	}
	if err.Error() != "wallet: Insufficient funds: need 200000 sats, have 100000" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestSelectMinConfirmations(t *testing.T) {
	candidates := []model.UTXO{utxo(100_000, 0, false, 0)}
	reqs := []model.InputRequirement{{Kind: model.RequireBitcoin, Amount: 50_000}}
	_, err := Select(candidates, reqs, Scope{MinConfirmations: 1})
	if err == nil {
		t.Fatal("expected insufficient funds when the only utxo is unconfirmed")
	}
}

func TestAlkanesRequirementRecordedNotSelected(t *testing.T) {
	candidates := []model.UTXO{utxo(100_000, 0, false, 6)}
	id := model.AlkaneId{Block: varint.FromUint64(2), Tx: varint.FromUint64(0)}
	reqs := []model.InputRequirement{
		{Kind: model.RequireBitcoin, Amount: 1_000},
		{Kind: model.RequireAlkanes, Block: id.Block, Tx: id.Tx, AlkAmt: varint.FromUint64(5)},
	}
	res, err := Select(candidates, reqs, Scope{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.AlkanesRequirement[id]; got.Cmp(varint.FromUint64(5)) != 0 {
		t.Fatalf("alkanes requirement = %v, want 5", got)
	}
}
