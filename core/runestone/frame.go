// Package runestone implements the outer OP_RETURN envelope that carries
// protostone payloads (spec §4.3, §6.2): a transaction output whose script
// is OP_RETURN OP_PUSHNUM_13 <data pushes>, the pushes concatenating to the
// LEB128 tag-stream payload.
package runestone

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
)

// MagicOpcode is OP_PUSHNUM_13: the second opcode of a runestone script,
// naming protocol tag 13 as the envelope's carrier (spec §6.2).
const MagicOpcode = txscript.OP_13

// maxPushChunk is the largest single data push this framer emits. Bitcoin
// standardness caps a single push at 520 bytes; splitting into chunks of
// this size keeps every push trivially standard regardless of payload
// length (spec §4.3: "split into PushBytes instructions of any convenient
// size").
const maxPushChunk = 520

// BuildScript returns the OP_RETURN OP_PUSHNUM_13 <pushes> script carrying
// data, chunked into standard-size pushes.
func BuildScript(data []byte) ([]byte, error) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_RETURN)
	b.AddOp(MagicOpcode)
	if len(data) == 0 {
		return b.Script()
	}
	for off := 0; off < len(data); off += maxPushChunk {
		end := off + maxPushChunk
		if end > len(data) {
			end = len(data)
		}
		b.AddFullData(data[off:end])
	}
	return b.Script()
}

// BuildOutput returns a zero-value TxOut carrying BuildScript's output,
// ready to be appended to a transaction (spec §4.3: "Added to the
// transaction as an output with value 0").
func BuildOutput(data []byte) (*wire.TxOut, error) {
	script, err := BuildScript(data)
	if err != nil {
		return nil, err
	}
	return wire.NewTxOut(0, script), nil
}

// Extract scans tx's outputs in order and returns the concatenated data
// pushes of the first runestone script found. found is false, with no
// error, if no output matches — a transaction with no runestone is not an
// error at this layer (spec §4.3, property 9).
func Extract(tx *wire.MsgTx) (data []byte, found bool, err error) {
	for _, out := range tx.TxOut {
		d, ok, ferr := extractOne(out.PkScript)
		if ferr != nil {
			return nil, false, ferr
		}
		if ok {
			return d, true, nil
		}
	}
	return nil, false, nil
}

// ExtractVout behaves like Extract but also returns the output index of
// the matching runestone.
func ExtractVout(tx *wire.MsgTx) (data []byte, vout int, found bool, err error) {
	for i, out := range tx.TxOut {
		d, ok, ferr := extractOne(out.PkScript)
		if ferr != nil {
			return nil, 0, false, ferr
		}
		if ok {
			return d, i, true, nil
		}
	}
	return nil, 0, false, nil
}

func extractOne(pkScript []byte) (data []byte, found bool, err error) {
	tok := txscript.MakeScriptTokenizer(0, pkScript)
	if !tok.Next() || tok.Opcode() != txscript.OP_RETURN {
		return nil, false, nil
	}
	if !tok.Next() || tok.Opcode() != MagicOpcode {
		return nil, false, nil
	}
	var buf []byte
	for tok.Next() {
		op := tok.Opcode()
		if op > txscript.OP_PUSHDATA4 {
			// Opcodes above OP_PUSHDATA4 (OP_1NEGATE, OP_1..OP_16, and
			// beyond) do not carry literal push bytes: the envelope is
			// malformed once we have already committed to the
			// OP_RETURN OP_13 prefix.
			return nil, false, alkerrors.New(alkerrors.FrameMalformed,
				"non-push opcode 0x%02x in runestone payload", op)
		}
		buf = append(buf, tok.Data()...)
	}
	if err := tok.Err(); err != nil {
		return nil, false, alkerrors.Wrap(alkerrors.FrameMalformed, err, "tokenizing runestone script")
	}
	return buf, true, nil
}
