// Package provider defines the capability-bundle interface the execution
// state machine is built against (spec §6.1), and a mock implementation for
// tests and offline development.
//
// Rather than one fat interface, the bundle is four small ones — UtxoSource,
// Signer, Broadcaster, NetworkMeta — composed into Provider, mirroring the
// teacher's small-interface style (core/common_structs.go's StateRW,
// BlockReader, PeerManager). Implementations: the HTTP client in http.go,
// which talks to the wallet oracle served by cmd/walletoracle, and Mock.
// Each is a distinct concrete type chosen at construction, not a deep
// inheritance chain (spec §5: "Polymorphic provider").
package provider

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/model"
)

// KeyOrigin is the (fingerprint, derivation path) pair accompanying a
// wallet's internal key (spec §6.1: "get_internal_key() → (XOnlyPublicKey,
// (Fingerprint, DerivationPath))").
type KeyOrigin struct {
	Fingerprint [4]byte
	Path        []uint32
}

// UtxoSource enumerates and looks up spendable coins.
type UtxoSource interface {
	// GetUTXOs lists the wallet's coins, optionally restricted to the given
	// output scripts. includeFrozen controls whether frozen coins are
	// surfaced (core/coinselect still gates on it independently).
	GetUTXOs(ctx context.Context, includeFrozen bool, scriptPubKeys [][]byte) ([]model.UTXO, error)
	// GetUTXO resolves a single previous output, or nil if unknown/spent.
	GetUTXO(ctx context.Context, op wire.OutPoint) (*wire.TxOut, error)
}

// Signer produces signatures for both PSBT key-path inputs and the
// script-path reveal input.
type Signer interface {
	// GetInternalKey returns the wallet's Taproot internal key and its
	// key origin, used both for commit addresses and PSBT derivation
	// metadata.
	GetInternalKey(ctx context.Context) ([32]byte, KeyOrigin, error)
	// SignPSBT signs every input of pkt it holds keys for, in place, and
	// returns the (possibly partially) signed packet.
	SignPSBT(ctx context.Context, pkt *psbt.Packet) (*psbt.Packet, error)
	// SignTaprootScriptSpend signs a script-path sighash directly, used for
	// the reveal input's leaf-script spend (spec §6.1).
	SignTaprootScriptSpend(ctx context.Context, sigHash [32]byte) (*schnorr.Signature, error)
}

// Broadcaster submits finished transactions and answers follow-up queries
// about them.
type Broadcaster interface {
	BroadcastTransaction(ctx context.Context, rawHex string) (txid string, err error)
	GetTransactionHex(ctx context.Context, txid string) (string, error)
	// TraceOutpoint returns the provider's execution trace for an outpoint,
	// opaque JSON (spec §6.1); this core does not interpret it.
	TraceOutpoint(ctx context.Context, txid string, vout uint32) ([]byte, error)
}

// NetworkMeta answers network identity and regtest conveniences.
type NetworkMeta interface {
	GetNetwork() *chaincfg.Params
	// GenerateToAddress mines n blocks to addr; regtest only (spec §6.1),
	// a no-op on other networks.
	GenerateToAddress(ctx context.Context, n uint32, addr string) error
	Sync(ctx context.Context) error
}

// Provider is the full capability bundle the execution state machine
// depends on (spec §5: "a single capability-bundle interface").
type Provider interface {
	UtxoSource
	Signer
	Broadcaster
	NetworkMeta
}
