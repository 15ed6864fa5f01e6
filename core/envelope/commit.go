package envelope

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"alkanes-core/core/alkerrors"
)

// CommitAddress derives the single-leaf Taproot commit address for e on
// params (spec §4.5: "A Taproot output committing to a single-leaf tree
// whose leaf is the reveal script, tweaked with internal_key").
func (e *Envelope) CommitAddress(params *chaincfg.Params) (*btcutil.AddressTaproot, error) {
	internalKey, err := schnorr.ParsePubKey(e.InternalKey[:])
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "parse envelope internal key")
	}

	tweaked := txscript.ComputeTaprootOutputKey(internalKey, e.LeafHash[:])
	outputKey := schnorr.SerializePubKey(tweaked)

	addr, err := btcutil.NewAddressTaproot(outputKey, params)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "derive commit address")
	}
	return addr, nil
}

// OutputKeyParity returns the parity bit of the tweaked Taproot output
// key for e, needed by ControlBlock (spec §6.2: "0xc0 | parity-bit").
func (e *Envelope) OutputKeyParity() (bool, error) {
	internalKey, err := schnorr.ParsePubKey(e.InternalKey[:])
	if err != nil {
		return false, alkerrors.Wrap(alkerrors.Transaction, err, "parse envelope internal key")
	}
	tweaked := txscript.ComputeTaprootOutputKey(internalKey, e.LeafHash[:])
	return tweaked.Y().IsOdd(), nil
}

// ControlBlock builds the BIP-341 single-leaf control block for e's reveal
// script (spec §6.2: "Standard BIP-341 single-leaf control block").
func (e *Envelope) ControlBlock(parityOdd bool) []byte {
	first := byte(leafVersion)
	if parityOdd {
		first |= 0x01
	}
	out := make([]byte, 0, 1+32)
	out = append(out, first)
	out = append(out, e.InternalKey[:]...)
	return out
}
