// Package model holds the data types shared across the codec, selector,
// PSBT builder, execution machine, and pointer resolver (spec §3): the
// wire-agnostic shapes every other core/* package builds or consumes.
package model

import (
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/varint"
)

// AlkaneId names a deployed contract by the block/tx pair where it was
// created. Immutable; equality is structural, so it is a plain comparable
// struct usable as a map key (spec §3: "Alkane identifier").
type AlkaneId struct {
	Block varint.Uint128
	Tx    varint.Uint128
}

// IsReserved reports whether id is the reserved (0, 0) pair, which is
// never emitted on the wire (spec §3: "Protorune identifier").
func (id AlkaneId) IsReserved() bool {
	return id.Block.IsZero() && id.Tx.IsZero()
}

// ProtoruneId is structurally identical to AlkaneId (spec §3).
type ProtoruneId = AlkaneId

// Cellpack is an invocation message: a target contract plus a positional
// argument vector (spec §3, glossary "Cellpack").
type Cellpack struct {
	Target AlkaneId
	Inputs []varint.Uint128
}

// OutputTargetKind discriminates the variants of OutputTarget.
type OutputTargetKind int

const (
	// TargetOutput names a real transaction output by vout.
	TargetOutput OutputTargetKind = iota
	// TargetProtostone credits a protostone, named by its index, in the
	// same transaction.
	TargetProtostone
	// TargetSplit distributes across every real output.
	TargetSplit
)

// OutputTarget is the sum type described in spec §3: Output(vout) |
// Protostone(index) | Split.
type OutputTarget struct {
	Kind  OutputTargetKind
	Index uint32 // meaningful for TargetOutput and TargetProtostone only
}

func Output(vout uint32) OutputTarget     { return OutputTarget{Kind: TargetOutput, Index: vout} }
func Protostone(index uint32) OutputTarget { return OutputTarget{Kind: TargetProtostone, Index: index} }
func Split() OutputTarget                  { return OutputTarget{Kind: TargetSplit} }

// InputRequirementKind discriminates the variants of InputRequirement.
type InputRequirementKind int

const (
	RequireBitcoin InputRequirementKind = iota
	RequireAlkanes
)

// InputRequirement is the sum type described in spec §3. A list of
// requirements is additive: multiple Bitcoin entries sum (spec §3).
type InputRequirement struct {
	Kind   InputRequirementKind
	Amount uint64         // meaningful for RequireBitcoin
	Block  varint.Uint128 // meaningful for RequireAlkanes
	Tx     varint.Uint128 // meaningful for RequireAlkanes
	AlkAmt varint.Uint128 // meaningful for RequireAlkanes
}

// BitcoinRequirement sums every RequireBitcoin entry in reqs.
func BitcoinRequirement(reqs []InputRequirement) uint64 {
	var total uint64
	for _, r := range reqs {
		if r.Kind == RequireBitcoin {
			total += r.Amount
		}
	}
	return total
}

// AlkanesRequirement collects every RequireAlkanes entry into a map keyed
// by (block, tx), summing amounts for repeated ids (spec §4.6: "recorded
// in a map (block, tx) -> amount").
func AlkanesRequirement(reqs []InputRequirement) map[AlkaneId]varint.Uint128 {
	out := make(map[AlkaneId]varint.Uint128)
	for _, r := range reqs {
		if r.Kind != RequireAlkanes {
			continue
		}
		id := AlkaneId{Block: r.Block, Tx: r.Tx}
		out[id] = out[id].Add(r.AlkAmt)
	}
	return out
}

// Edict is a protorune/runestone directive transferring amount of rune id
// to a target output (glossary "Edict").
type Edict struct {
	ID     ProtoruneId
	Amount varint.Uint128
	Target OutputTarget
}

// ProtostoneSpec is the pre-encoding, caller-facing description of one
// protostone (spec §3).
type ProtostoneSpec struct {
	Cellpack        *Cellpack
	Edicts          []Edict
	BitcoinTransfer *BitcoinTransfer
}

// BitcoinTransfer requests that a given satoshi amount be routed to
// target; target must not be TargetProtostone (spec §3 invariant).
type BitcoinTransfer struct {
	Target OutputTarget
	Amount uint64
}

// ProtostoneEdict is the wire-shape edict inside a Protostone (spec §3).
type ProtostoneEdict struct {
	ID     ProtoruneId
	Amount varint.Uint128
	Output varint.Uint128
}

// Protostone is the wire record carried inside runestone tag 13 (spec §3).
type Protostone struct {
	ProtocolTag varint.Uint128
	Burn        *varint.Uint128
	Refund      *uint32
	Pointer     *uint32
	From        *varint.Uint128
	Message     []byte
	Edicts      []ProtostoneEdict
}

// Runestone is the outer wire record (spec §3). Only Protocol is material
// to this core; the rest is passed through to a third-party ordinals
// decoder per spec §3.
type Runestone struct {
	Edicts   []Edict
	Pointer  *uint32
	Protocol []varint.Uint128
}

// UTXO describes one spendable coin under the selector's consideration
// (spec §3: "UTXO descriptor"). Ownership: populated fresh for the
// duration of one execute call; never shared across executes.
type UTXO struct {
	OutPoint      wire.OutPoint
	Amount        uint64
	PkScript      []byte
	Confirmations int64
	Frozen        bool
	HasInscriptions bool
	HasRunes        bool
	HasAlkanes      bool
	IsCoinbase      bool
}
