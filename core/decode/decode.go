// Package decode renders a parsed transaction's runestone/protostones as
// the two diagnostic views described in spec §4.10: a JSON tree and a
// line-oriented human rendering.
package decode

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/protostone"
	"alkanes-core/core/varint"
)

// Input describes one entry of Tree.Inputs.
type Input struct {
	TxID string `json:"txid"`
	Vout uint32 `json:"vout"`
}

// Output describes one entry of Tree.Outputs.
type Output struct {
	Value    int64  `json:"value"`
	ScriptHex string `json:"script_hex"`
}

// Destination is the diagnostic enrichment of a raw output index: its
// script-class name and, where the script encodes one, its address string
// (spec §4.10: edicts and pointer/refund carry "destination enrichment").
type Destination struct {
	Output     uint32 `json:"output"`
	ScriptType string `json:"script_type"`
	Address    string `json:"address,omitempty"`
}

// Edict is the JSON-enriched view of a protostone edict.
type Edict struct {
	Block       string       `json:"block"`
	Tx          string       `json:"tx"`
	Amount      string       `json:"amount"`
	Output      uint64       `json:"output"`
	Destination *Destination `json:"destination,omitempty"`
}

// Protostone is the JSON-enriched view of one decoded protostone.
type Protostone struct {
	ProtocolTag        string       `json:"protocol_tag"`
	ProtocolName       string       `json:"protocol_name"`
	MessageBytes       string       `json:"message_bytes"`
	MessageDecoded     []string     `json:"message_decoded"`
	Edicts             []Edict      `json:"edicts"`
	PointerDestination *Destination `json:"pointer_destination,omitempty"`
	RefundDestination  *Destination `json:"refund_destination,omitempty"`
}

// Tree is the compact JSON tree described in spec §4.10.
type Tree struct {
	TransactionID string       `json:"transaction_id"`
	Version       int32        `json:"version"`
	LockTime      uint32       `json:"lock_time"`
	Inputs        []Input      `json:"inputs"`
	Outputs       []Output     `json:"outputs"`
	Protostones   []Protostone `json:"protostones"`
}

// Build decodes tx's runestone (if any) into the diagnostic Tree. params
// selects the address encoding used to enrich destinations; nil skips
// address derivation but script-class enrichment still runs (it needs no
// network context).
func Build(tx *wire.MsgTx, params *chaincfg.Params) (*Tree, error) {
	tree := &Tree{
		TransactionID: tx.TxHash().String(),
		Version:       tx.Version,
		LockTime:      tx.LockTime,
	}
	for _, in := range tx.TxIn {
		tree.Inputs = append(tree.Inputs, Input{
			TxID: in.PreviousOutPoint.Hash.String(),
			Vout: in.PreviousOutPoint.Index,
		})
	}
	for _, out := range tx.TxOut {
		tree.Outputs = append(tree.Outputs, Output{
			Value:     out.Value,
			ScriptHex: fmt.Sprintf("%x", out.PkScript),
		})
	}

	stones, found, err := protostone.Decode(tx)
	if err != nil {
		return nil, err
	}
	if !found {
		return tree, nil
	}

	for _, s := range stones {
		p := Protostone{
			ProtocolTag:    s.ProtocolTag.String(),
			ProtocolName:   protostone.ProtocolName(s.ProtocolTag),
			MessageBytes:   fmt.Sprintf("%x", s.Message),
			MessageDecoded: decodedMessage(s.Message),
		}
		p.PointerDestination = enrichDestination(tx.TxOut, s.Pointer, params)
		p.RefundDestination = enrichDestination(tx.TxOut, s.Refund, params)
		for _, e := range s.Edicts {
			out, ok := e.Output.Uint64()
			edict := Edict{
				Block:  e.ID.Block.String(),
				Tx:     e.ID.Tx.String(),
				Amount: e.Amount.String(),
				Output: out,
			}
			if ok {
				idx := uint32(out)
				edict.Destination = enrichDestination(tx.TxOut, &idx, params)
			}
			p.Edicts = append(p.Edicts, edict)
		}
		tree.Protostones = append(tree.Protostones, p)
	}

	return tree, nil
}

// enrichDestination resolves idx against outputs into its script-class
// name and, if params is non-nil and the script encodes an address,
// its address string. Returns nil if idx is nil or out of range.
func enrichDestination(outputs []*wire.TxOut, idx *uint32, params *chaincfg.Params) *Destination {
	if idx == nil || int(*idx) >= len(outputs) {
		return nil
	}
	script := outputs[*idx].PkScript
	d := &Destination{
		Output:     *idx,
		ScriptType: txscript.GetScriptClass(script).String(),
	}
	if params != nil {
		_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, params)
		if err == nil && len(addrs) > 0 {
			d.Address = addrs[0].EncodeAddress()
		}
	}
	return d
}

func decodedMessage(msg []byte) []string {
	vals, err := varint.DecodeAll(msg)
	if err != nil {
		return nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

// Render produces the line-oriented human view described in spec §4.10,
// purely presentational and derived from the same Tree as the JSON view.
func Render(tree *Tree) string {
	var b strings.Builder
	fmt.Fprintf(&b, "txid: %s\n", tree.TransactionID)
	fmt.Fprintf(&b, "version: %d  locktime: %d\n", tree.Version, tree.LockTime)
	fmt.Fprintf(&b, "inputs: %d  outputs: %d\n", len(tree.Inputs), len(tree.Outputs))
	for i, o := range tree.Outputs {
		fmt.Fprintf(&b, "  out[%d] value=%d script=%s\n", i, o.Value, o.ScriptHex)
	}
	if len(tree.Protostones) == 0 {
		b.WriteString("no protostones\n")
		return b.String()
	}
	for i, p := range tree.Protostones {
		fmt.Fprintf(&b, "protostone[%d] tag=%s (%s) message=%s\n", i, p.ProtocolTag, p.ProtocolName, p.MessageBytes)
		if p.PointerDestination != nil {
			fmt.Fprintf(&b, "  pointer -> %s\n", renderDestination(p.PointerDestination))
		}
		if p.RefundDestination != nil {
			fmt.Fprintf(&b, "  refund -> %s\n", renderDestination(p.RefundDestination))
		}
		for _, e := range p.Edicts {
			fmt.Fprintf(&b, "  edict id=(%s,%s) amount=%s output=%d", e.Block, e.Tx, e.Amount, e.Output)
			if e.Destination != nil {
				fmt.Fprintf(&b, " (%s)", renderDestination(e.Destination))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderDestination(d *Destination) string {
	if d.Address != "" {
		return fmt.Sprintf("out[%d] %s %s", d.Output, d.ScriptType, d.Address)
	}
	return fmt.Sprintf("out[%d] %s", d.Output, d.ScriptType)
}
