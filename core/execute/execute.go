// Package execute drives the UTXO-select → build → sign → broadcast state
// machine described in spec §4.8: Start → ReadyToSign(Commit|Reveal)* →
// Complete, with external signing hooks at every suspension boundary.
package execute

import (
	"bytes"
	"context"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/coinselect"
	"alkanes-core/core/envelope"
	"alkanes-core/core/model"
	"alkanes-core/core/protostone"
	"alkanes-core/core/provider"
	"alkanes-core/core/psbtbuild"
)

// revealFeeHeuristic is the first-pass reveal fee estimate used to size the
// commit output, refined once the reveal PSBT is actually built (spec §4.8:
// "estimated reveal fee (heuristic 50_000 sats; refined on second pass)").
const revealFeeHeuristic = 50_000

// Params is the caller-supplied description of one execute invocation
// (spec §6.1's ExecuteParams, §4.8).
type Params struct {
	Requirements    []model.InputRequirement
	Scope           coinselect.Scope
	Outputs         []*wire.TxOut // recipient outputs, deterministic order (spec §4.7)
	ProtostoneSpecs []model.ProtostoneSpec
	Bytecode        []byte // non-empty triggers commit/reveal (spec §4.8)
	FeeRate         uint64
	MinRelayRate    uint64
	MineEnabled     bool // regtest mine-and-sync accommodation (spec §4.8)
}

// ReadyToSign is the single-transaction path's suspension point: no
// envelope was requested, so one signed+broadcast PSBT completes the
// execute (spec §4.8 diagram).
type ReadyToSign struct {
	Packet *psbt.Packet
	Fee    uint64
	Params Params
}

// ReadyToSignCommit suspends after the commit PSBT is built but before it
// is signed (spec: "ReadyToSignCommit(psbt, fee, reveal_target_value,
// params, envelope, internal_key, origin)").
type ReadyToSignCommit struct {
	Packet            *psbt.Packet
	Fee               uint64
	RevealTargetValue uint64
	Params            Params
	Envelope          *envelope.Envelope
	InternalKey       [32]byte
	Origin            provider.KeyOrigin
	Network           *chaincfg.Params

	commitScript []byte
	commitVout   uint32
}

// ReadyToSignReveal suspends after the commit has been broadcast and the
// reveal PSBT built against it (spec: "ReadyToSignReveal(psbt, fee,
// commit_txid, commit_fee, params, internal_key, origin)").
type ReadyToSignReveal struct {
	Packet      *psbt.Packet
	Fee         uint64
	CommitTxid  string
	CommitFee   uint64
	Params      Params
	Envelope    *envelope.Envelope
	InternalKey [32]byte
	Origin      provider.KeyOrigin
}

// Result is the terminal state of a completed execute (spec §4.8: "Result:
// { commit_txid?, reveal_txid, commit_fee?, reveal_fee, inputs_used,
// outputs_created, traces? }").
type Result struct {
	CommitTxid     *string
	RevealTxid     string
	CommitFee      *uint64
	RevealFee      uint64
	InputsUsed     []wire.OutPoint
	OutputsCreated [][]byte
	Traces         [][]byte
}

// checkConsistency runs the envelope/cellpack consistency rule that must
// hold before any ReadyToSign* state is surfaced (spec §4.8), grounded on
// original_source/crates/alkanes-cli-common/src/alkanes/execute.rs's
// validate_envelope_cellpack_usage.
func checkConsistency(p Params) error {
	hasEnvelope := len(p.Bytecode) > 0
	hasCellpack := false
	for _, s := range p.ProtostoneSpecs {
		if s.Cellpack != nil {
			hasCellpack = true
			break
		}
	}

	if hasEnvelope && !hasCellpack {
		return alkerrors.New(alkerrors.IncompleteDeployment,
			"envelope provided but no cellpack to trigger deployment")
	}
	if !hasEnvelope && !hasCellpack && len(p.ProtostoneSpecs) > 0 {
		return alkerrors.New(alkerrors.NoOperation,
			"protostones provided without envelope or cellpack")
	}
	return nil
}

func isRegtest(network *chaincfg.Params) bool {
	return network.Net == chaincfg.RegressionNetParams.Net
}

func fetchCandidates(ctx context.Context, prov provider.Provider, scope coinselect.Scope) ([]model.UTXO, error) {
	var scriptScope [][]byte
	for _, s := range scope.ScriptPubKeys {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, alkerrors.Wrap(alkerrors.Validation, err, "execute: decode scope script %q", s)
		}
		scriptScope = append(scriptScope, raw)
	}
	utxos, err := prov.GetUTXOs(ctx, scope.IncludeFrozen, scriptScope)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: list provider utxos")
	}
	return utxos, nil
}

// buildPrevOuts converts selected coins into psbtbuild.PrevOut records,
// tagging every P2TR coin with the wallet's single internal key (spec §4.7:
// "if prevout is P2TR set tap_internal_key").
func buildPrevOuts(selected []model.UTXO, internalKey [32]byte) []psbtbuild.PrevOut {
	out := make([]psbtbuild.PrevOut, len(selected))
	for i, u := range selected {
		p := psbtbuild.PrevOut{
			OutPoint: u.OutPoint,
			TxOut:    &wire.TxOut{Value: int64(u.Amount), PkScript: u.PkScript},
		}
		if txscript.GetScriptClass(u.PkScript) == txscript.WitnessV1TaprootTy {
			p.InternalKey = internalKey[:]
		}
		out[i] = p
	}
	return out
}

// walletAddress derives the wallet's own plain (key-path-only) Taproot
// address for internalKey, used for change outputs — grounded on
// envelope/commit.go's CommitAddress, with a nil (rather than leaf-hash)
// script root (spec: BIP-341 key-path tweak with an empty merkle root).
func walletAddress(internalKey [32]byte, network *chaincfg.Params) (*btcutil.AddressTaproot, error) {
	pub, err := schnorr.ParsePubKey(internalKey[:])
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "execute: parse wallet internal key")
	}
	tweaked := txscript.ComputeTaprootOutputKey(pub, nil)
	outputKey := schnorr.SerializePubKey(tweaked)
	addr, err := btcutil.NewAddressTaproot(outputKey, network)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "execute: derive wallet address")
	}
	return addr, nil
}

func walletChangeScript(internalKey [32]byte, network *chaincfg.Params) ([]byte, error) {
	addr, err := walletAddress(internalKey, network)
	if err != nil {
		return nil, err
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "execute: build wallet change script")
	}
	return script, nil
}

// assembleOutputs appends a wallet change slot and, if any protostones were
// requested, an OP_RETURN runestone output after it (spec §4.7: "Real
// recipient outputs come first ... then an optional change output; then
// the runestone OP_RETURN").
func assembleOutputs(p Params, changeScript []byte) (outputs []*wire.TxOut, runestoneIndex int, err error) {
	outputs = make([]*wire.TxOut, len(p.Outputs), len(p.Outputs)+2)
	copy(outputs, p.Outputs)
	if changeScript != nil {
		outputs = append(outputs, wire.NewTxOut(0, changeScript))
	}
	runestoneIndex = -1

	if len(p.ProtostoneSpecs) == 0 {
		return outputs, runestoneIndex, nil
	}
	script, err := protostone.Encode(p.ProtostoneSpecs, len(outputs))
	if err != nil {
		return nil, -1, err
	}
	runestoneIndex = len(outputs)
	outputs = append(outputs, wire.NewTxOut(0, script))
	return outputs, runestoneIndex, nil
}

// BuildSingle builds the no-envelope path's PSBT (spec §4.8 diagram:
// "envelope_data absent ─► build_single ─► ReadyToSign").
func BuildSingle(ctx context.Context, prov provider.Provider, p Params) (*ReadyToSign, error) {
	if err := checkConsistency(p); err != nil {
		return nil, err
	}
	if len(p.Bytecode) > 0 {
		return nil, alkerrors.New(alkerrors.IncompleteDeployment, "build_single: bytecode present, use BuildCommitReveal")
	}

	internalKey, _, err := prov.GetInternalKey(ctx)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: get internal key")
	}
	network := prov.GetNetwork()

	candidates, err := fetchCandidates(ctx, prov, p.Scope)
	if err != nil {
		return nil, err
	}
	// Selection covers the recipient outputs on top of any explicit
	// requirements; fee and change are settled by psbtbuild.
	var outputTotal uint64
	for _, o := range p.Outputs {
		outputTotal += uint64(o.Value)
	}
	reqs := append(append([]model.InputRequirement{}, p.Requirements...),
		model.InputRequirement{Kind: model.RequireBitcoin, Amount: outputTotal})
	sel, err := coinselect.Select(candidates, reqs, p.Scope)
	if err != nil {
		return nil, err
	}

	changeScript, err := walletChangeScript(internalKey, network)
	if err != nil {
		return nil, err
	}
	outputs, runestoneIndex, err := assembleOutputs(p, changeScript)
	if err != nil {
		return nil, err
	}

	res, err := psbtbuild.Build(psbtbuild.Params{
		Mode:           psbtbuild.ModeSingle,
		Inputs:         buildPrevOuts(sel.Selected, internalKey),
		Outputs:        outputs,
		RunestoneIndex: runestoneIndex,
		FeeRate:        p.FeeRate,
		MinRelayRate:   p.MinRelayRate,
		Network:        network,
	})
	if err != nil {
		return nil, err
	}

	return &ReadyToSign{Packet: res.Packet, Fee: res.Fee, Params: p}, nil
}

// BuildCommitReveal derives the envelope/commit address and builds the
// commit PSBT (spec §4.8 diagram: "envelope_data present ─►
// build_commit_reveal ─► ReadyToSignCommit").
func BuildCommitReveal(ctx context.Context, prov provider.Provider, p Params) (*ReadyToSignCommit, error) {
	if err := checkConsistency(p); err != nil {
		return nil, err
	}
	if len(p.Bytecode) == 0 {
		return nil, alkerrors.New(alkerrors.NoOperation, "build_commit_reveal: no bytecode to deploy")
	}

	internalKey, origin, err := prov.GetInternalKey(ctx)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: get internal key")
	}
	env, err := envelope.Build(internalKey, p.Bytecode)
	if err != nil {
		return nil, err
	}
	network := prov.GetNetwork()

	commitAddr, err := env.CommitAddress(network)
	if err != nil {
		return nil, err
	}
	commitScript, err := txscript.PayToAddrScript(commitAddr)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "execute: build commit script")
	}
	changeScript, err := walletChangeScript(internalKey, network)
	if err != nil {
		return nil, err
	}

	// Commit output value must cover reveal-side recipient dust, explicit
	// Bitcoin requirements, and a heuristic reveal fee (spec §4.8).
	target := uint64(len(p.Outputs))*psbtbuild.DustLimit + model.BitcoinRequirement(p.Requirements) + revealFeeHeuristic

	reqs := append(append([]model.InputRequirement{}, p.Requirements...),
		model.InputRequirement{Kind: model.RequireBitcoin, Amount: target})
	candidates, err := fetchCandidates(ctx, prov, p.Scope)
	if err != nil {
		return nil, err
	}
	sel, err := coinselect.Select(candidates, reqs, p.Scope)
	if err != nil {
		return nil, err
	}

	outputs := []*wire.TxOut{
		wire.NewTxOut(0, changeScript),
		wire.NewTxOut(int64(target), commitScript),
	}
	res, err := psbtbuild.Build(psbtbuild.Params{
		Mode:           psbtbuild.ModeCommit,
		Inputs:         buildPrevOuts(sel.Selected, internalKey),
		Outputs:        outputs,
		RunestoneIndex: -1,
		FeeRate:        p.FeeRate,
		MinRelayRate:   p.MinRelayRate,
		Network:        network,
	})
	if err != nil {
		return nil, err
	}

	// The commit output is a fixed non-zero value, so resolveChange only
	// ever drops the change slot (index 0); when it does, the commit
	// output shifts down to index 0.
	commitVout := uint32(1)
	if res.ChangeIndex == -1 {
		commitVout = 0
	}

	return &ReadyToSignCommit{
		Packet:            res.Packet,
		Fee:               res.Fee,
		RevealTargetValue: target,
		Params:            p,
		Envelope:          env,
		InternalKey:       internalKey,
		Origin:            origin,
		Network:           network,
		commitScript:      commitScript,
		commitVout:        commitVout,
	}, nil
}

// ResumeExecution signs and broadcasts a ReadyToSign PSBT, completing the
// no-envelope path (spec §4.8 diagram).
func ResumeExecution(ctx context.Context, prov provider.Provider, state *ReadyToSign) (*Result, error) {
	signed, err := prov.SignPSBT(ctx, state.Packet)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: sign psbt")
	}
	rawHex, inputs, outputs, err := finalizeAndSerialize(signed)
	if err != nil {
		return nil, err
	}
	txid, err := prov.BroadcastTransaction(ctx, rawHex)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: broadcast transaction")
	}
	traces := traceOutputs(ctx, prov, txid, outputs)

	return &Result{
		RevealTxid:     txid,
		RevealFee:      state.Fee,
		InputsUsed:     inputs,
		OutputsCreated: outputs,
		Traces:         traces,
	}, nil
}

// ResumeCommitExecution signs and broadcasts the commit PSBT, optionally
// mines a regtest block, and builds the reveal PSBT against the broadcast
// commit outpoint (spec §4.8 diagram: "resume (sign+broadcast commit) ─►
// build_reveal ─► ReadyToSignReveal").
func ResumeCommitExecution(ctx context.Context, prov provider.Provider, state *ReadyToSignCommit) (*ReadyToSignReveal, error) {
	signed, err := prov.SignPSBT(ctx, state.Packet)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: sign commit psbt")
	}
	rawHex, _, _, err := finalizeAndSerialize(signed)
	if err != nil {
		return nil, err
	}
	commitTxid, err := prov.BroadcastTransaction(ctx, rawHex)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: broadcast commit transaction")
	}

	network := prov.GetNetwork()
	if state.Params.MineEnabled && isRegtest(network) {
		addr, err := walletAddress(state.InternalKey, network)
		if err != nil {
			return nil, err
		}
		if err := prov.GenerateToAddress(ctx, 1, addr.EncodeAddress()); err != nil {
			return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: generate regtest block")
		}
		if err := prov.Sync(ctx); err != nil {
			return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: sync after mine")
		}
	}

	return buildReveal(state, commitTxid)
}

// buildReveal assembles the reveal PSBT spending the commit outpoint via
// the envelope's script path (spec §4.8 diagram: "build_reveal").
func buildReveal(state *ReadyToSignCommit, commitTxid string) (*ReadyToSignReveal, error) {
	hash, err := chainhash.NewHashFromStr(commitTxid)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "execute: parse commit txid")
	}

	parityOdd, err := state.Envelope.OutputKeyParity()
	if err != nil {
		return nil, err
	}
	controlBlock := state.Envelope.ControlBlock(parityOdd)

	changeScript, err := walletChangeScript(state.InternalKey, state.Network)
	if err != nil {
		return nil, err
	}
	outputs, runestoneIndex, err := assembleOutputs(state.Params, changeScript)
	if err != nil {
		return nil, err
	}

	input := psbtbuild.PrevOut{
		OutPoint: wire.OutPoint{Hash: *hash, Index: state.commitVout},
		TxOut:    wire.NewTxOut(int64(state.RevealTargetValue), state.commitScript),
	}

	res, err := psbtbuild.Build(psbtbuild.Params{
		Mode:           psbtbuild.ModeReveal,
		Inputs:         []psbtbuild.PrevOut{input},
		Outputs:        outputs,
		RunestoneIndex: runestoneIndex,
		FeeRate:        state.Params.FeeRate,
		MinRelayRate:   state.Params.MinRelayRate,
		Network:        state.Network,
		Reveal:         &psbtbuild.RevealInput0{Envelope: state.Envelope, ControlBlock: controlBlock},
	})
	if err != nil {
		return nil, err
	}

	return &ReadyToSignReveal{
		Packet:      res.Packet,
		Fee:         res.Fee,
		CommitTxid:  commitTxid,
		CommitFee:   state.Fee,
		Params:      state.Params,
		Envelope:    state.Envelope,
		InternalKey: state.InternalKey,
		Origin:      state.Origin,
	}, nil
}

// ResumeRevealExecution signs the reveal input's script-path spend,
// finalizes, and broadcasts it, completing the commit/reveal path (spec
// §4.8 diagram).
func ResumeRevealExecution(ctx context.Context, prov provider.Provider, state *ReadyToSignReveal) (*Result, error) {
	pin := &state.Packet.Inputs[0]
	fetcher := txscript.NewCannedPrevOutputFetcher(pin.WitnessUtxo.PkScript, pin.WitnessUtxo.Value)
	sigHashes := txscript.NewTxSigHashes(state.Packet.UnsignedTx, fetcher)
	leaf := txscript.NewBaseTapLeaf(state.Envelope.RevealScript)
	sigHash, err := txscript.CalcTapscriptSignaturehash(sigHashes, txscript.SigHashDefault, state.Packet.UnsignedTx, 0, fetcher, leaf)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "execute: compute reveal sighash")
	}
	var hash [32]byte
	copy(hash[:], sigHash)

	sig, err := prov.SignTaprootScriptSpend(ctx, hash)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: sign reveal script spend")
	}
	leafHash := leaf.TapHash()
	pin.TaprootScriptSpendSig = []*psbt.TaprootScriptSpendSig{{
		XOnlyPubKey: state.Envelope.InternalKey[:],
		LeafHash:    leafHash[:],
		Signature:   sig.Serialize(),
	}}

	rawHex, inputs, outputs, err := finalizeAndSerialize(state.Packet)
	if err != nil {
		return nil, err
	}
	revealTxid, err := prov.BroadcastTransaction(ctx, rawHex)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "execute: broadcast reveal transaction")
	}
	traces := traceOutputs(ctx, prov, revealTxid, outputs)

	commitTxid := state.CommitTxid
	commitFee := state.CommitFee
	return &Result{
		CommitTxid:     &commitTxid,
		RevealTxid:     revealTxid,
		CommitFee:      &commitFee,
		RevealFee:      state.Fee,
		InputsUsed:     inputs,
		OutputsCreated: outputs,
		Traces:         traces,
	}, nil
}

// finalizeAndSerialize finalizes every input of a fully-signed packet and
// extracts it into broadcastable raw hex.
func finalizeAndSerialize(pkt *psbt.Packet) (rawHex string, inputs []wire.OutPoint, outputScripts [][]byte, err error) {
	for i := range pkt.Inputs {
		if err := psbt.Finalize(pkt, i); err != nil {
			return "", nil, nil, alkerrors.Wrap(alkerrors.Transaction, err, "execute: finalize psbt input %d", i)
		}
	}
	finalTx, err := psbt.Extract(pkt)
	if err != nil {
		return "", nil, nil, alkerrors.Wrap(alkerrors.Transaction, err, "execute: extract final transaction")
	}

	var buf bytes.Buffer
	if err := finalTx.Serialize(&buf); err != nil {
		return "", nil, nil, alkerrors.Wrap(alkerrors.Transaction, err, "execute: serialize final transaction")
	}

	for _, in := range finalTx.TxIn {
		inputs = append(inputs, in.PreviousOutPoint)
	}
	for _, out := range finalTx.TxOut {
		outputScripts = append(outputScripts, out.PkScript)
	}
	return hex.EncodeToString(buf.Bytes()), inputs, outputScripts, nil
}

// traceOutputs collects a best-effort trace per created output (spec §4.8:
// "traces?"); a per-output RPC failure is swallowed since tracing is
// diagnostic and optional, mirroring
// original_source/crates/alkanes-cli-common/src/alkanes/execute.rs's
// trace collection returning None rather than failing the execute.
func traceOutputs(ctx context.Context, prov provider.Provider, txid string, outputs [][]byte) [][]byte {
	var traces [][]byte
	for i := range outputs {
		t, err := prov.TraceOutpoint(ctx, txid, uint32(i))
		if err != nil {
			continue
		}
		traces = append(traces, t)
	}
	return traces
}
