// Package envelope builds the Taproot commit-reveal write channel that
// carries opaque contract bytecode on chain (spec §4.5, §6.2). The reveal
// script layout and gzip-before-chunk convention are grounded directly on
// spec §6.2's wire diagram.
package envelope

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"alkanes-core/core/alkerrors"
)

// maxChunk is the maximum size of one data push inside the envelope's
// OP_IF block (spec §4.5: "each chunk is at most 520 bytes").
const maxChunk = 520

// binTag is the 3-byte ASCII marker preceding the bytecode chunks
// (spec §6.2).
var binTag = []byte("BIN")

// leafVersion is the BIP-341 tapscript leaf version used for the single
// reveal leaf.
const leafVersion = txscript.BaseLeafVersion

// Envelope is a built reveal script plus everything needed to derive a
// commit address and, later, a control block for it.
type Envelope struct {
	// InternalKey is the 32-byte x-only internal key used both inside the
	// reveal script (as the CHECKSIG key) and as the Taproot internal key
	// of the commit output (spec §4.5: "tweaked with internal_key").
	InternalKey [32]byte
	// RevealScript is the full tapscript leaf: <key> OP_CHECKSIG OP_FALSE
	// OP_IF <"BIN"> <chunks>* OP_ENDIF.
	RevealScript []byte
	// LeafHash is the tagged hash of RevealScript under leafVersion.
	LeafHash chainhash.Hash
}

// Build gzip-compresses bytecode, chunks it into <=520-byte pushes, and
// assembles the reveal script around internalKey (spec §4.5, §6.2).
// A zero-length bytecode slice is valid (spec property 12: "a reveal script
// whose compressed payload is 0 bytes still parses").
func Build(internalKey [32]byte, bytecode []byte) (*Envelope, error) {
	compressed, err := gzipCompress(bytecode)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.FrameMalformed, err, "compress envelope bytecode")
	}

	b := txscript.NewScriptBuilder()
	b.AddData(internalKey[:])
	b.AddOp(txscript.OP_CHECKSIG)
	b.AddOp(txscript.OP_FALSE)
	b.AddOp(txscript.OP_IF)
	b.AddData(binTag)
	for _, chunk := range chunks(compressed, maxChunk) {
		b.AddData(chunk)
	}
	b.AddOp(txscript.OP_ENDIF)
	script, err := b.Script()
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.FrameMalformed, err, "build reveal script")
	}

	leafHash := txscript.NewTapLeaf(leafVersion, script).TapHash()

	return &Envelope{
		InternalKey:  internalKey,
		RevealScript: script,
		LeafHash:     leafHash,
	}, nil
}

// chunks splits data into slices of at most size bytes. An empty data
// slice yields zero chunks (so the OP_IF body is just <"BIN"> OP_ENDIF).
func chunks(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var out [][]byte
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// gzipDecompress reverses gzipCompress; used by callers that need to
// recover bytecode from a previously-extracted envelope (e.g. inspection).
func gzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Decompress exposes gzipDecompress to callers outside the package.
func Decompress(data []byte) ([]byte, error) {
	out, err := gzipDecompress(data)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.FrameMalformed, err, "decompress envelope bytecode")
	}
	return out, nil
}

// VerifySignature checks a schnorr signature over sigHash against e's
// internal key — used by callers validating an externally-produced
// witness before broadcast.
func (e *Envelope) VerifySignature(sigHash, sig []byte) error {
	pubKey, err := schnorr.ParsePubKey(e.InternalKey[:])
	if err != nil {
		return alkerrors.Wrap(alkerrors.Transaction, err, "parse envelope internal key")
	}
	parsedSig, err := schnorr.ParseSignature(sig)
	if err != nil {
		return alkerrors.Wrap(alkerrors.Transaction, err, "parse envelope reveal signature")
	}
	if !parsedSig.Verify(sigHash, pubKey) {
		return alkerrors.New(alkerrors.Transaction, "envelope reveal signature does not verify")
	}
	return nil
}
