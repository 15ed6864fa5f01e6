package provider

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

func newTestMock(t *testing.T) *Mock {
	t.Helper()
	m, err := NewMock(&chaincfg.RegressionNetParams)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestGetUTXOsFiltersByScope(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	scriptA := []byte{0x51}
	scriptB := []byte{0x52}
	opA := wire.OutPoint{Index: 0}
	opB := wire.OutPoint{Index: 1}
	m.SeedUTXO(opA, wire.NewTxOut(1000, scriptA))
	m.SeedUTXO(opB, wire.NewTxOut(2000, scriptB))

	all, err := m.GetUTXOs(ctx, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d utxos, want 2", len(all))
	}

	scoped, err := m.GetUTXOs(ctx, false, [][]byte{scriptA})
	if err != nil {
		t.Fatal(err)
	}
	if len(scoped) != 1 || scoped[0].Amount != 1000 {
		t.Fatalf("scoped result = %+v, want single 1000-sat utxo", scoped)
	}
}

func TestGetInternalKeyDeterministicPerInstance(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	key1, origin1, err := m.GetInternalKey(ctx)
	if err != nil {
		t.Fatal(err)
	}
	key2, origin2, err := m.GetInternalKey(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if key1 != key2 {
		t.Fatal("internal key changed between calls")
	}
	if origin1.Fingerprint != origin2.Fingerprint {
		t.Fatal("key origin changed between calls")
	}
}

func TestSignTaprootScriptSpendProducesValidSignature(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	var sigHash [32]byte
	for i := range sigHash {
		sigHash[i] = byte(i)
	}
	sig, err := m.SignTaprootScriptSpend(ctx, sigHash)
	if err != nil {
		t.Fatal(err)
	}
	internalKey, _, _ := m.GetInternalKey(ctx)
	pub, err := schnorr.ParsePubKey(internalKey[:])
	if err != nil {
		t.Fatal(err)
	}
	if !sig.Verify(sigHash[:], pub) {
		t.Fatal("signature failed to verify against the mock's own internal key")
	}
}

func TestBroadcastTransactionGrowsUTXOSet(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(5000, []byte{0x51}))
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	raw := hex.EncodeToString(buf.Bytes())

	txid, err := m.BroadcastTransaction(ctx, raw)
	if err != nil {
		t.Fatal(err)
	}

	hexBack, err := m.GetTransactionHex(ctx, txid)
	if err != nil {
		t.Fatal(err)
	}
	if hexBack != raw {
		t.Fatalf("got %q, want %q", hexBack, raw)
	}

	utxos, err := m.GetUTXOs(ctx, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(utxos) != 1 || utxos[0].Amount != 5000 {
		t.Fatalf("utxos = %+v, want single 5000-sat utxo from the broadcast tx", utxos)
	}
}
