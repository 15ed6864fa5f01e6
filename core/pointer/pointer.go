// Package pointer implements the pointer fallback chain and protoburn
// round-robin cycler (spec §4.9).
package pointer

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// IsStandardOutput reports whether script is a recognized standard
// transparent output (spec §4.9: "P2PKH or P2SH under Zcash semantics;
// P2TR/P2WPKH/P2WSH generally"), generalized from Zcash's t-address pair
// to the full standard-script set this engine targets.
func IsStandardOutput(script []byte) bool {
	if IsTAddress(script) {
		return true
	}
	switch txscript.GetScriptClass(script) {
	case txscript.WitnessV0PubKeyHashTy, txscript.WitnessV0ScriptHashTy,
		txscript.WitnessV1TaprootTy:
		return true
	default:
		return false
	}
}

func isOpReturn(script []byte) bool {
	return len(script) > 0 && script[0] == txscript.OP_RETURN
}

// Resolve implements the fallback chain from spec §4.9:
//  1. pointer, if in range and standard.
//  2. else refundPointer, if in range and standard.
//  3. else the first non-OP_RETURN standard output in index order.
//  4. else nil — the caller treats this as a burn.
func Resolve(outputs []*wire.TxOut, ptr, refundPtr *uint32) *uint32 {
	if ptr != nil {
		if idx := *ptr; int(idx) < len(outputs) && IsStandardOutput(outputs[idx].PkScript) {
			v := idx
			return &v
		}
	}
	if refundPtr != nil {
		if idx := *refundPtr; int(idx) < len(outputs) && IsStandardOutput(outputs[idx].PkScript) {
			v := idx
			return &v
		}
	}
	for i, o := range outputs {
		if !isOpReturn(o.PkScript) && IsStandardOutput(o.PkScript) {
			v := uint32(i)
			return &v
		}
	}
	return nil
}
