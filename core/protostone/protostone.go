// Package protostone implements the higher-layer message carried inside
// runestone tag 13 (spec §4.4): cellpacks, edicts, pointer, refund, and
// message bytes, plus the validation rules in spec §3.
package protostone

import (
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/model"
	"alkanes-core/core/runestone"
	"alkanes-core/core/tagstream"
	"alkanes-core/core/varint"
)

// Protocol tag assignment (spec §6.2). Only ALKANE is written by this
// core; the others are recognized on read.
const (
	ProtocolDiesel      uint64 = 1
	ProtocolAlkane      uint64 = 2
	ProtocolProtorune   uint64 = 3
	ProtocolAlkaneState uint64 = 4
	ProtocolAlkaneEvent uint64 = 5
)

// ProtocolName returns the human name for a recognized protocol tag, or
// "" if unrecognized.
func ProtocolName(tag varint.Uint128) string {
	v, ok := tag.Uint64()
	if !ok {
		return ""
	}
	switch v {
	case ProtocolDiesel:
		return "DIESEL"
	case ProtocolAlkane:
		return "ALKANE"
	case ProtocolProtorune:
		return "PROTORUNE"
	case ProtocolAlkaneState:
		return "ALKANE_STATE"
	case ProtocolAlkaneEvent:
		return "ALKANE_EVENT"
	default:
		return ""
	}
}

// RUNESTONE_EDICT_SELF_TARGET_IS_BURN documents that an edict whose target
// is Output(v) equal to the runestone's own vout is permitted by the
// validator; the protoburn cycler (core/pointer) depends on exactly this
// to route residual balances onto the runestone output for cycling. It is
// an easy source of off-by-one errors for anyone extending the validator
// (spec §9 Open Questions).
const RUNESTONE_EDICT_SELF_TARGET_IS_BURN = true

// Each protostone is serialized as a self-delimited block: protocol tag,
// then a (present-flag, value?) pair for burn/refund/pointer/from in that
// fixed order, then a length-prefixed message byte sequence, then a
// length-prefixed edict list (spec §4.4: "serialize to an integer vector
// prefixed by tag constants (documented inline as part of the corpus the
// codec recognizes)"). This fixed field order is this implementation's own
// convention; only internal encode/decode symmetry is required, not
// byte-compatibility with any external indexer.

// ValidateSpecs checks every invariant in spec §3 against a caller-supplied
// protostone spec list, given the number of real (non-runestone,
// non-virtual) outputs the built transaction will have.
func ValidateSpecs(specs []model.ProtostoneSpec, numRealOutputs int) error {
	n := len(specs)
	for i, spec := range specs {
		for _, e := range spec.Edicts {
			switch e.Target.Kind {
			case model.TargetOutput:
				// Output(numRealOutputs) is the runestone's own vout, which
				// RUNESTONE_EDICT_SELF_TARGET_IS_BURN permits.
				if int(e.Target.Index) > numRealOutputs {
					return alkerrors.New(alkerrors.Validation,
						"edict output %d out of range (have %d real outputs)", e.Target.Index, numRealOutputs)
				}
			case model.TargetProtostone:
				p := int(e.Target.Index)
				if p <= i {
					return alkerrors.New(alkerrors.Validation,
						"edict refers to protostone %d which is not allowed (must be > %d)", p, i)
				}
				if p >= n {
					return alkerrors.New(alkerrors.Validation,
						"edict refers to protostone %d out of range (have %d protostones)", p, n)
				}
			case model.TargetSplit:
				// Open Question resolution (SPEC_FULL.md §5.1): Split has
				// no single wire output number, so it is rejected as an
				// edict target at validation time rather than silently
				// collapsed to output 0.
				return alkerrors.New(alkerrors.Validation,
					"edict target Split has no single wire output address; use Output or Protostone")
			}
		}
		if spec.BitcoinTransfer != nil && spec.BitcoinTransfer.Target.Kind == model.TargetProtostone {
			return alkerrors.New(alkerrors.Validation,
				"bitcoin_transfer target must not be Protostone(_); Bitcoin cannot be routed into a virtual protostone output")
		}
	}
	return nil
}

// VirtualVout returns the synthetic output index used to address
// protostone i within a transaction that has numRealOutputs real outputs
// (spec §3, glossary "Virtual vout").
func VirtualVout(numRealOutputs, protostoneIndex int) uint64 {
	return uint64(numRealOutputs) + 1 + uint64(protostoneIndex)
}

// resolveEdictOutput converts a spec-form edict target into the wire
// ProtostoneEdict.Output value, fixing the original convert_protostone_specs
// bug (SPEC_FULL.md §5.1): Protostone(p) is converted to its real virtual
// vout rather than collapsed to 0. Split is rejected earlier by
// ValidateSpecs and never reaches here.
func resolveEdictOutput(t model.OutputTarget, numRealOutputs int) varint.Uint128 {
	switch t.Kind {
	case model.TargetProtostone:
		return varint.FromUint64(VirtualVout(numRealOutputs, int(t.Index)))
	default: // TargetOutput
		return varint.FromUint64(uint64(t.Index))
	}
}

// Encode converts a validated ProtostoneSpec list into the runestone
// OP_RETURN script carrying them (spec §4.4 Encoding). numRealOutputs is
// the number of real (non-runestone) outputs the caller has already
// assembled, used to resolve Protostone(p) edict targets to virtual vouts.
func Encode(specs []model.ProtostoneSpec, numRealOutputs int) ([]byte, error) {
	if err := ValidateSpecs(specs, numRealOutputs); err != nil {
		return nil, err
	}
	wireStones := make([]model.Protostone, 0, len(specs))
	for _, spec := range specs {
		wireStones = append(wireStones, toWire(spec, numRealOutputs))
	}
	payload := encodeProtostones(wireStones)
	flat := make([]varint.Uint128, 0, len(payload)*2)
	for _, v := range payload {
		flat = append(flat, varint.FromUint64(tagstream.ProtocolTag), v)
	}
	return runestone.BuildScript(tagstream.Encode(flat))
}

// toWire converts one ProtostoneSpec into its wire Protostone record.
func toWire(spec model.ProtostoneSpec, numRealOutputs int) model.Protostone {
	p := model.Protostone{ProtocolTag: varint.FromUint64(ProtocolAlkane)}
	if spec.Cellpack != nil {
		vals := make([]varint.Uint128, 0, 2+len(spec.Cellpack.Inputs))
		vals = append(vals, spec.Cellpack.Target.Block, spec.Cellpack.Target.Tx)
		vals = append(vals, spec.Cellpack.Inputs...)
		p.Message = varint.EncodeAll(vals)
	}
	for _, e := range spec.Edicts {
		p.Edicts = append(p.Edicts, model.ProtostoneEdict{
			ID:     e.ID,
			Amount: e.Amount,
			Output: resolveEdictOutput(e.Target, numRealOutputs),
		})
	}
	return p
}

// encodeProtostones serializes each wire Protostone as a self-delimited
// block (length-prefixed so Decode can split protostones out of the flat
// tag-13 value stream) and concatenates them, per spec §4.4: "All
// per-protostone integer vectors are concatenated and assigned under
// runestone tag 13".
func encodeProtostones(stones []model.Protostone) []varint.Uint128 {
	var out []varint.Uint128
	for _, s := range stones {
		block := encodeOneProtostone(s)
		out = append(out, varint.FromUint64(uint64(len(block))))
		out = append(out, block...)
	}
	return out
}

func encodeOneProtostone(s model.Protostone) []varint.Uint128 {
	var vals []varint.Uint128
	vals = append(vals, s.ProtocolTag)

	if s.Burn != nil {
		vals = append(vals, varint.FromUint64(1), *s.Burn)
	} else {
		vals = append(vals, varint.Zero)
	}
	if s.Refund != nil {
		vals = append(vals, varint.FromUint64(1), varint.FromUint64(uint64(*s.Refund)))
	} else {
		vals = append(vals, varint.Zero)
	}
	if s.Pointer != nil {
		vals = append(vals, varint.FromUint64(1), varint.FromUint64(uint64(*s.Pointer)))
	} else {
		vals = append(vals, varint.Zero)
	}
	if s.From != nil {
		vals = append(vals, varint.FromUint64(1), *s.From)
	} else {
		vals = append(vals, varint.Zero)
	}

	vals = append(vals, varint.FromUint64(uint64(len(s.Message))))
	for _, b := range s.Message {
		vals = append(vals, varint.FromUint64(uint64(b)))
	}

	vals = append(vals, varint.FromUint64(uint64(len(s.Edicts))))
	for _, e := range s.Edicts {
		vals = append(vals, e.ID.Block, e.ID.Tx, e.Amount, e.Output)
	}
	return vals
}

// Decode extracts and parses every protostone carried by tx's runestone,
// inverting Encode (spec §4.4 Decoding). found is false if tx carries no
// runestone at all.
func Decode(tx *wire.MsgTx) ([]model.Protostone, bool, error) {
	data, found, err := runestone.Extract(tx)
	if err != nil || !found {
		return nil, found, err
	}
	return DecodeBytes(data)
}

// DecodeBytes parses a raw runestone payload (already extracted from the
// OP_RETURN script) into its protostone list.
func DecodeBytes(data []byte) ([]model.Protostone, bool, error) {
	values, err := tagstream.Decode(data)
	if err != nil {
		return nil, false, err
	}
	entries := tagstream.Group(values)
	tag13 := tagstream.ValuesForTag(entries, tagstream.ProtocolTag)
	if len(tag13) == 0 {
		return nil, false, nil
	}
	stones, err := decodeProtostones(tag13)
	if err != nil {
		return nil, false, err
	}
	return stones, true, nil
}

func decodeProtostones(vals []varint.Uint128) ([]model.Protostone, error) {
	var out []model.Protostone
	for len(vals) > 0 {
		lenV, ok := vals[0].Uint64()
		if !ok || int(lenV) > len(vals)-1 {
			return nil, alkerrors.New(alkerrors.Validation, "malformed protostone length prefix")
		}
		block := vals[1 : 1+int(lenV)]
		vals = vals[1+int(lenV):]
		stone, err := decodeOneProtostone(block)
		if err != nil {
			return nil, err
		}
		out = append(out, stone)
	}
	return out, nil
}

func decodeOneProtostone(v []varint.Uint128) (model.Protostone, error) {
	var s model.Protostone
	pop := func() (varint.Uint128, error) {
		if len(v) == 0 {
			return varint.Uint128{}, alkerrors.New(alkerrors.Validation, "truncated protostone block")
		}
		x := v[0]
		v = v[1:]
		return x, nil
	}

	tag, err := pop()
	if err != nil {
		return s, err
	}
	s.ProtocolTag = tag

	present, err := pop()
	if err != nil {
		return s, err
	}
	if p, _ := present.Uint64(); p == 1 {
		burn, err := pop()
		if err != nil {
			return s, err
		}
		s.Burn = &burn
	}

	present, err = pop()
	if err != nil {
		return s, err
	}
	if p, _ := present.Uint64(); p == 1 {
		refundV, err := pop()
		if err != nil {
			return s, err
		}
		r, _ := refundV.Uint64()
		r32 := uint32(r)
		s.Refund = &r32
	}

	present, err = pop()
	if err != nil {
		return s, err
	}
	if p, _ := present.Uint64(); p == 1 {
		ptrV, err := pop()
		if err != nil {
			return s, err
		}
		pv, _ := ptrV.Uint64()
		pv32 := uint32(pv)
		s.Pointer = &pv32
	}

	present, err = pop()
	if err != nil {
		return s, err
	}
	if p, _ := present.Uint64(); p == 1 {
		fromV, err := pop()
		if err != nil {
			return s, err
		}
		s.From = &fromV
	}

	msgLenV, err := pop()
	if err != nil {
		return s, err
	}
	msgLen, _ := msgLenV.Uint64()
	msg := make([]byte, 0, msgLen)
	for i := uint64(0); i < msgLen; i++ {
		b, err := pop()
		if err != nil {
			return s, err
		}
		bv, _ := b.Uint64()
		msg = append(msg, byte(bv))
	}
	s.Message = msg

	edictCountV, err := pop()
	if err != nil {
		return s, err
	}
	edictCount, _ := edictCountV.Uint64()
	for i := uint64(0); i < edictCount; i++ {
		idBlock, err := pop()
		if err != nil {
			return s, err
		}
		idTx, err := pop()
		if err != nil {
			return s, err
		}
		amount, err := pop()
		if err != nil {
			return s, err
		}
		output, err := pop()
		if err != nil {
			return s, err
		}
		s.Edicts = append(s.Edicts, model.ProtostoneEdict{
			ID:     model.AlkaneId{Block: idBlock, Tx: idTx},
			Amount: amount,
			Output: output,
		})
	}
	return s, nil
}

// DecodeCellpack re-decodes a protostone's message bytes as the varint
// sequence target.block, target.tx, inputs... (spec §4.4 Decoding).
func DecodeCellpack(message []byte) (*model.Cellpack, error) {
	if len(message) == 0 {
		return nil, nil
	}
	vals, err := varint.DecodeAll(message)
	if err != nil {
		return nil, err
	}
	if len(vals) < 2 {
		return nil, alkerrors.New(alkerrors.Validation, "cellpack message too short")
	}
	return &model.Cellpack{
		Target: model.AlkaneId{Block: vals[0], Tx: vals[1]},
		Inputs: vals[2:],
	}, nil
}
