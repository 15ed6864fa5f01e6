// Package psbtbuild assembles commit, single, and reveal PSBTs with fee
// estimation and change handling (spec §4.7).
package psbtbuild

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/envelope"
)

// Mode selects which of the three PSBT shapes to build (spec §4.7:
// "Three modes: single (no envelope), commit, reveal").
type Mode int

const (
	ModeSingle Mode = iota
	ModeCommit
	ModeReveal
)

const (
	// DustLimit is the minimum value any non-OP_RETURN output may carry
	// (spec §3: "All real outputs carry at least the dust limit (546 sats)").
	DustLimit = 546
	// MaxFeeSats is the hard cap on any estimated fee (spec §4.7).
	MaxFeeSats = 100_000

	// placeholder witness sizes used for fee estimation (spec §4.7).
	revealWitnessPlaceholder = 400
	keyspendWitnessPlaceholder = 65
)

// PrevOut describes the spent coin backing one transaction input, enough
// to populate a PSBT input's witness_utxo and Taproot fields (spec §4.7).
type PrevOut struct {
	OutPoint    wire.OutPoint
	TxOut       *wire.TxOut
	InternalKey []byte // 32-byte x-only key, set only when TxOut.PkScript is P2TR
}

// RevealInput0 carries the extra fields needed when input 0 is a
// script-path Taproot spend of a commit output (spec §4.7, §4.5).
type RevealInput0 struct {
	Envelope     *envelope.Envelope
	ControlBlock []byte
}

// Params is the input to Build.
type Params struct {
	Mode Mode

	Inputs  []PrevOut
	Outputs []*wire.TxOut // caller-supplied deterministic order (spec §4.7)

	// RunestoneIndex, if >= 0, names the index within Outputs that carries
	// the OP_RETURN runestone script; -1 means no runestone output.
	RunestoneIndex int

	FeeRate uint64 // sat/vB, caller-supplied (spec §4.7 default 600 regtest)
	// MinRelayRate, if set, is used only to detect the CappedBelowMin
	// condition (spec §9: "capped fee may be below the real minimum relay
	// fee"); it does not otherwise affect the build.
	MinRelayRate uint64
	Network      *chaincfg.Params

	Reveal *RevealInput0 // non-nil only for Mode == ModeReveal
}

// Result is the outcome of a successful build.
type Result struct {
	Packet      *psbt.Packet
	Fee         uint64
	Capped      bool // true if the estimated fee was capped at MaxFeeSats
	ChangeIndex int  // index into the final output list, or -1 if none
	// Warning carries a non-fatal alkerrors.CappedBelowMin when Capped is
	// true and the capped fee would fall below vsize * MinRelayRate
	// (spec §9). The PSBT is still returned — the caller decides whether
	// to proceed or re-quote.
	Warning error
}

// Build assembles a PSBT per spec §4.7: estimates the fee against a
// placeholder-witness temporary transaction, resolves the change output,
// and populates every PSBT input's witness_utxo / Taproot fields.
func Build(p Params) (*Result, error) {
	if len(p.Inputs) == 0 {
		return nil, alkerrors.New(alkerrors.Validation, "psbt build: no inputs")
	}

	tx := wire.NewMsgTx(2)
	for _, in := range p.Inputs {
		tx.AddTxIn(wire.NewTxIn(&in.OutPoint, nil, nil))
	}
	outputs := make([]*wire.TxOut, len(p.Outputs))
	copy(outputs, p.Outputs)
	for _, o := range outputs {
		tx.AddTxOut(o)
	}

	fee, vsize, capped := estimateFee(tx, p)

	var warning error
	if capped && p.MinRelayRate > 0 && fee < uint64(vsize)*p.MinRelayRate {
		warning = alkerrors.New(alkerrors.CappedBelowMin, "estimated fee %d sats capped below minimum relay fee for %d vbytes at %d sat/vB", fee, vsize, p.MinRelayRate)
	}

	finalOutputs, changeIdx, err := resolveChange(outputs, p, fee)
	if err != nil {
		return nil, err
	}
	tx.TxOut = finalOutputs

	pkt, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "psbt: wrap unsigned transaction")
	}

	for i, in := range p.Inputs {
		pin := &pkt.Inputs[i]
		pin.WitnessUtxo = in.TxOut
		if len(in.InternalKey) == 32 {
			pin.TaprootInternalKey = in.InternalKey
			pin.TaprootBip32Derivation = append(pin.TaprootBip32Derivation, &psbt.TaprootBip32Derivation{
				XOnlyPubKey: in.InternalKey,
			})
		}
		if i == 0 && p.Mode == ModeReveal && p.Reveal != nil {
			pin.TaprootLeafScript = append(pin.TaprootLeafScript, &psbt.TaprootTapLeafScript{
				ControlBlock: p.Reveal.ControlBlock,
				Script:       p.Reveal.Envelope.RevealScript,
				LeafVersion:  txscript.BaseLeafVersion,
			})
			pin.TaprootBip32Derivation = []*psbt.TaprootBip32Derivation{{
				XOnlyPubKey: p.Reveal.Envelope.InternalKey[:],
				LeafHashes:  [][]byte{p.Reveal.Envelope.LeafHash[:]},
			}}
		}
	}

	return &Result{Packet: pkt, Fee: fee, Capped: capped, ChangeIndex: changeIdx, Warning: warning}, nil
}

// estimateFee builds a placeholder-witness virtual size estimate per
// spec §4.7: input 0 costs revealWitnessPlaceholder bytes when building a
// reveal transaction, every other input costs keyspendWitnessPlaceholder.
func estimateFee(tx *wire.MsgTx, p Params) (fee uint64, vsize int, capped bool) {
	base := tx.SerializeSizeStripped()
	var witnessBytes int
	for i := range p.Inputs {
		if i == 0 && p.Mode == ModeReveal {
			witnessBytes += revealWitnessPlaceholder
		} else {
			witnessBytes += keyspendWitnessPlaceholder
		}
	}
	weight := base*4 + witnessBytes + 2 // +2 for the segwit marker/flag bytes
	vsize = (weight + 3) / 4

	rate := p.FeeRate
	if rate == 0 {
		rate = 1
	}
	raw := uint64(vsize) * rate
	if raw > MaxFeeSats {
		return MaxFeeSats, vsize, true
	}
	return raw, vsize, false
}

// resolveChange implements spec §4.7's change rule: a present 0-value
// non-OP_RETURN output is the change placeholder and absorbs the residual;
// otherwise the residual is added to the last non-OP_RETURN output; change
// below the dust limit is absorbed into the fee, which means the change
// output is dropped from the final output list entirely (spec §3: "All
// real outputs carry at least the dust limit... except OP_RETURN").
// Returns the final output list and the index of the change output within
// it, or -1 if there is none.
func resolveChange(outputs []*wire.TxOut, p Params, fee uint64) ([]*wire.TxOut, int, error) {
	var totalIn uint64
	for _, in := range p.Inputs {
		totalIn += uint64(in.TxOut.Value)
	}

	var fixed uint64
	changeIdx := -1
	lastNonOpReturn := -1
	for i, o := range outputs {
		if isOpReturn(o.PkScript) {
			continue
		}
		lastNonOpReturn = i
		if o.Value == 0 && changeIdx == -1 {
			changeIdx = i
			continue
		}
		fixed += uint64(o.Value)
	}

	if totalIn < fixed+fee {
		return nil, -1, alkerrors.New(alkerrors.Wallet, "Insufficient funds: need %d sats, have %d", fixed+fee, totalIn)
	}
	residual := totalIn - fixed - fee

	if changeIdx >= 0 {
		if residual < DustLimit {
			final := make([]*wire.TxOut, 0, len(outputs)-1)
			final = append(final, outputs[:changeIdx]...)
			final = append(final, outputs[changeIdx+1:]...)
			return final, -1, nil
		}
		outputs[changeIdx].Value = int64(residual)
		return outputs, changeIdx, nil
	}

	if lastNonOpReturn >= 0 && residual > 0 {
		outputs[lastNonOpReturn].Value += int64(residual)
	}
	return outputs, -1, nil
}

func isOpReturn(script []byte) bool {
	return len(script) > 0 && script[0] == txscript.OP_RETURN
}
