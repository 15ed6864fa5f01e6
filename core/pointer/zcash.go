package pointer

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// IsTAddress reports whether script is a Zcash transparent address: P2PKH
// (t1...) or P2SH (t3...). Grounded on `is_t_address` in
// original_source/crates/alkanes/src/zcash.rs. IsStandardOutput's
// P2PKH/P2SH branch defers to this directly; P2TR/P2WPKH/P2WSH are this
// engine's generalization beyond Zcash's two transparent script shapes.
func IsTAddress(script []byte) bool {
	class := txscript.GetScriptClass(script)
	return class == txscript.PubKeyHashTy || class == txscript.ScriptHashTy
}

// IsZAddressOrUnknown reports whether script is neither a t-address nor an
// OP_RETURN data carrier — Zcash shielded outputs (z-addresses) have no
// distinguishing script shape, so this is the same exclusionary heuristic
// `is_z_address_or_unknown` uses: anything left over once t-addresses and
// OP_RETURN are ruled out.
func IsZAddressOrUnknown(script []byte) bool {
	return !IsTAddress(script) && !isOpReturn(script)
}

// FindDefaultTAddressOutput returns the index of the first non-OP_RETURN
// t-address output in tx, or nil if none exists. Grounded on
// `find_default_t_address_output`.
func FindDefaultTAddressOutput(outputs []*wire.TxOut) *uint32 {
	for i, o := range outputs {
		if !isOpReturn(o.PkScript) && IsTAddress(o.PkScript) {
			v := uint32(i)
			return &v
		}
	}
	return nil
}

// ResolveTAddressWithFallback is the Zcash-specific pointer fallback chain
// `resolve_pointer_with_fallback` implements: unlike the general Resolve
// (which also accepts P2TR/P2WPKH/P2WSH), this only ever resolves to a
// transparent t-address output, since a z-address target cannot be spent
// from by this engine.
//
//  1. pointer, if in range and a t-address.
//  2. else refundPointer, if in range and a t-address.
//  3. else the first non-OP_RETURN t-address output in index order.
//  4. else nil — the caller treats this as a burn.
func ResolveTAddressWithFallback(outputs []*wire.TxOut, ptr, refundPtr *uint32) *uint32 {
	if ptr != nil {
		if idx := *ptr; int(idx) < len(outputs) && IsTAddress(outputs[idx].PkScript) {
			v := idx
			return &v
		}
	}
	if refundPtr != nil {
		if idx := *refundPtr; int(idx) < len(outputs) && IsTAddress(outputs[idx].PkScript) {
			v := idx
			return &v
		}
	}
	return FindDefaultTAddressOutput(outputs)
}
