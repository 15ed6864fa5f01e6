package provider

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/model"
)

// Mock is an in-memory Provider for tests and offline development, grounded
// on original_source/crates/alkanes-cli-common/src/mock_provider.rs's
// MockProvider: a single keypair generated at construction, a UTXO set seeded by the
// caller and grown by each broadcast, and a map of broadcast transactions
// queryable by txid.
type Mock struct {
	mu sync.Mutex

	network    *chaincfg.Params
	privateKey *btcec.PrivateKey
	internalKey [32]byte

	utxos       map[wire.OutPoint]*wire.TxOut
	broadcasted map[string]string // txid -> raw hex
}

// NewMock builds a Mock seeded with a freshly generated keypair, mirroring
// MockProvider::new's Secp256k1 keygen.
func NewMock(network *chaincfg.Params) (*Mock, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "mock provider: generate keypair")
	}
	var xonly [32]byte
	copy(xonly[:], schnorr.SerializePubKey(priv.PubKey()))
	return &Mock{
		network:     network,
		privateKey:  priv,
		internalKey: xonly,
		utxos:       make(map[wire.OutPoint]*wire.TxOut),
		broadcasted: make(map[string]string),
	}, nil
}

// SeedUTXO adds a spendable coin to the mock's set, for test setup.
func (m *Mock) SeedUTXO(op wire.OutPoint, out *wire.TxOut) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.utxos[op] = out
}

func (m *Mock) GetUTXOs(_ context.Context, _ bool, scriptPubKeys [][]byte) ([]model.UTXO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scope := make(map[string]bool, len(scriptPubKeys))
	for _, s := range scriptPubKeys {
		scope[hex.EncodeToString(s)] = true
	}

	var out []model.UTXO
	for op, txOut := range m.utxos {
		if len(scope) > 0 && !scope[hex.EncodeToString(txOut.PkScript)] {
			continue
		}
		out = append(out, model.UTXO{
			OutPoint:      op,
			Amount:        uint64(txOut.Value),
			PkScript:      txOut.PkScript,
			Confirmations: 10,
		})
	}
	return out, nil
}

func (m *Mock) GetUTXO(_ context.Context, op wire.OutPoint) (*wire.TxOut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.utxos[op], nil
}

func (m *Mock) GetInternalKey(_ context.Context) ([32]byte, KeyOrigin, error) {
	// Fixed placeholder origin: a mock has no real HD wallet behind it
	// (mirrors MockProvider::get_internal_key's hardcoded fingerprint
	// "00000000" and path m/86'/1'/0').
	return m.internalKey, KeyOrigin{Fingerprint: [4]byte{0, 0, 0, 0}, Path: []uint32{86 | hardened, 1 | hardened, 0 | hardened}}, nil
}

const hardened = 0x80000000

// SignPSBT signs every key-path-spendable Taproot input addressed to the
// mock's internal key, in place.
func (m *Mock) SignPSBT(_ context.Context, pkt *psbt.Packet) (*psbt.Packet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, pin := range pkt.Inputs {
		if pin.WitnessUtxo == nil {
			continue
		}
		fetcher.AddPrevOut(pkt.UnsignedTx.TxIn[i].PreviousOutPoint, pin.WitnessUtxo)
	}
	sigHashes := txscript.NewTxSigHashes(pkt.UnsignedTx, fetcher)

	for i := range pkt.Inputs {
		pin := &pkt.Inputs[i]
		if pin.WitnessUtxo == nil || len(pin.TaprootLeafScript) > 0 {
			// Script-path inputs (the reveal leaf) are signed via
			// SignTaprootScriptSpend, not here.
			continue
		}
		if len(pin.TaprootInternalKey) != 32 {
			continue
		}
		sigHash, err := txscript.CalcTaprootSignatureHash(sigHashes, txscript.SigHashDefault, pkt.UnsignedTx, i, fetcher)
		if err != nil {
			return nil, alkerrors.Wrap(alkerrors.Transaction, err, "mock provider: compute taproot sighash for input %d", i)
		}
		var hash [32]byte
		copy(hash[:], sigHash)
		sig, err := schnorr.Sign(m.privateKey, hash[:])
		if err != nil {
			return nil, alkerrors.Wrap(alkerrors.Transaction, err, "mock provider: schnorr sign input %d", i)
		}
		pin.TaprootKeySpendSig = sig.Serialize()
	}
	return pkt, nil
}

func (m *Mock) SignTaprootScriptSpend(_ context.Context, sigHash [32]byte) (*schnorr.Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sig, err := schnorr.Sign(m.privateKey, sigHash[:])
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "mock provider: schnorr sign script spend")
	}
	return sig, nil
}

func (m *Mock) BroadcastTransaction(_ context.Context, rawHex string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return "", alkerrors.Wrap(alkerrors.RpcFailure, err, "mock provider: decode raw transaction")
	}
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return "", alkerrors.Wrap(alkerrors.RpcFailure, err, "mock provider: deserialize raw transaction")
	}
	txid := tx.TxHash()
	for i, out := range tx.TxOut {
		m.utxos[wire.OutPoint{Hash: txid, Index: uint32(i)}] = out
	}
	m.broadcasted[txid.String()] = rawHex
	return txid.String(), nil
}

func (m *Mock) GetTransactionHex(_ context.Context, txid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.broadcasted[txid]
	if !ok {
		return "", alkerrors.New(alkerrors.RpcFailure, "mock provider: no broadcast transaction for txid %s", txid)
	}
	return raw, nil
}

func (m *Mock) TraceOutpoint(_ context.Context, txid string, vout uint32) ([]byte, error) {
	return []byte(fmt.Sprintf(`{"events":[],"txid":%q,"vout":%d}`, txid, vout)), nil
}

func (m *Mock) GetNetwork() *chaincfg.Params { return m.network }

func (m *Mock) GenerateToAddress(_ context.Context, _ uint32, _ string) error { return nil }

func (m *Mock) Sync(_ context.Context) error { return nil }

var _ Provider = (*Mock)(nil)
