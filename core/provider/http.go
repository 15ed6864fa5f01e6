package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/model"
)

// HTTP is a Provider that delegates every capability to an injected wallet
// collaborator reachable over HTTP — cmd/walletoracle, or any service that
// speaks the same small JSON API (spec.md §6.1: the provider is a
// polymorphic capability bundle; this is the out-of-process implementation
// alongside Mock's in-process one).
type HTTP struct {
	baseURL string
	network *chaincfg.Params
	client  *http.Client
}

// NewHTTP builds an HTTP provider pointed at baseURL (e.g.
// "http://127.0.0.1:8081"), caching the network reported by the oracle's
// /network endpoint.
func NewHTTP(ctx context.Context, baseURL string, timeout time.Duration) (*HTTP, error) {
	h := &HTTP{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
	var resp struct {
		Network string `json:"network"`
	}
	if err := h.getJSON(ctx, "/network", &resp); err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: fetch network")
	}
	params, err := ParamsForName(resp.Network)
	if err != nil {
		return nil, err
	}
	h.network = params
	return h, nil
}

// ParamsForName resolves a network name ("mainnet"/"testnet3"/"signet"/
// "regtest") to its chaincfg.Params, the same lookup the HTTP provider and
// the CLI's runestone analyze command use to agree on one network's address
// encoding.
func ParamsForName(name string) (*chaincfg.Params, error) {
	switch name {
	case chaincfg.MainNetParams.Name:
		return &chaincfg.MainNetParams, nil
	case chaincfg.TestNet3Params.Name:
		return &chaincfg.TestNet3Params, nil
	case chaincfg.SigNetParams.Name:
		return &chaincfg.SigNetParams, nil
	case chaincfg.RegressionNetParams.Name:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, alkerrors.New(alkerrors.RpcFailure, "http provider: unrecognized network %q", name)
	}
}

func (h *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
	if err != nil {
		return err
	}
	return h.do(req, out)
}

func (h *HTTP) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req, out)
}

func (h *HTTP) do(req *http.Request, out any) error {
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http provider: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (h *HTTP) GetUTXOs(ctx context.Context, includeFrozen bool, scriptPubKeys [][]byte) ([]model.UTXO, error) {
	q := url.Values{}
	if includeFrozen {
		q.Set("include_frozen", "true")
	}
	for _, s := range scriptPubKeys {
		q.Add("script", hex.EncodeToString(s))
	}
	var out []model.UTXO
	path := "/utxos"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	if err := h.getJSON(ctx, path, &out); err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: get utxos")
	}
	return out, nil
}

func (h *HTTP) GetUTXO(ctx context.Context, op wire.OutPoint) (*wire.TxOut, error) {
	var resp struct {
		Value    int64  `json:"value"`
		PkScript string `json:"pk_script"`
	}
	path := fmt.Sprintf("/utxo/%s/%d", op.Hash.String(), op.Index)
	if err := h.getJSON(ctx, path, &resp); err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: get utxo")
	}
	script, err := hex.DecodeString(resp.PkScript)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: decode utxo script")
	}
	return wire.NewTxOut(resp.Value, script), nil
}

func (h *HTTP) GetInternalKey(ctx context.Context) ([32]byte, KeyOrigin, error) {
	var resp struct {
		InternalKey string   `json:"internal_key"`
		Fingerprint string   `json:"fingerprint"`
		Path        []uint32 `json:"path"`
	}
	var zero [32]byte
	if err := h.getJSON(ctx, "/internal-key", &resp); err != nil {
		return zero, KeyOrigin{}, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: get internal key")
	}
	keyBytes, err := hex.DecodeString(resp.InternalKey)
	if err != nil || len(keyBytes) != 32 {
		return zero, KeyOrigin{}, alkerrors.New(alkerrors.RpcFailure, "http provider: malformed internal key")
	}
	var key [32]byte
	copy(key[:], keyBytes)
	fpBytes, err := hex.DecodeString(resp.Fingerprint)
	if err != nil || len(fpBytes) != 4 {
		return zero, KeyOrigin{}, alkerrors.New(alkerrors.RpcFailure, "http provider: malformed fingerprint")
	}
	var fp [4]byte
	copy(fp[:], fpBytes)
	return key, KeyOrigin{Fingerprint: fp, Path: resp.Path}, nil
}

func (h *HTTP) SignPSBT(ctx context.Context, pkt *psbt.Packet) (*psbt.Packet, error) {
	var buf bytes.Buffer
	if err := pkt.Serialize(&buf); err != nil {
		return nil, alkerrors.Wrap(alkerrors.Transaction, err, "http provider: serialize psbt")
	}
	var resp struct {
		PSBT string `json:"psbt"`
	}
	req := struct {
		PSBT string `json:"psbt"`
	}{PSBT: base64.StdEncoding.EncodeToString(buf.Bytes())}
	if err := h.postJSON(ctx, "/sign-psbt", req, &resp); err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: sign psbt")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.PSBT)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: decode signed psbt")
	}
	return psbt.NewFromRawBytes(bytes.NewReader(raw), false)
}

func (h *HTTP) SignTaprootScriptSpend(ctx context.Context, sigHash [32]byte) (*schnorr.Signature, error) {
	var resp struct {
		Signature string `json:"signature"`
	}
	req := struct {
		SigHash string `json:"sig_hash"`
	}{SigHash: hex.EncodeToString(sigHash[:])}
	if err := h.postJSON(ctx, "/sign-taproot", req, &resp); err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: sign taproot script spend")
	}
	sigBytes, err := hex.DecodeString(resp.Signature)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: decode signature")
	}
	return schnorr.ParseSignature(sigBytes)
}

func (h *HTTP) BroadcastTransaction(ctx context.Context, rawHex string) (string, error) {
	var resp struct {
		Txid string `json:"txid"`
	}
	req := struct {
		RawHex string `json:"raw_hex"`
	}{RawHex: rawHex}
	if err := h.postJSON(ctx, "/broadcast", req, &resp); err != nil {
		return "", alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: broadcast")
	}
	return resp.Txid, nil
}

func (h *HTTP) GetTransactionHex(ctx context.Context, txid string) (string, error) {
	var resp struct {
		RawHex string `json:"raw_hex"`
	}
	if err := h.getJSON(ctx, "/transaction/"+txid, &resp); err != nil {
		return "", alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: get transaction hex")
	}
	return resp.RawHex, nil
}

func (h *HTTP) TraceOutpoint(ctx context.Context, txid string, vout uint32) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/trace/%s/%d", h.baseURL, txid, vout), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.RpcFailure, err, "http provider: trace outpoint")
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *HTTP) GetNetwork() *chaincfg.Params { return h.network }

func (h *HTTP) GenerateToAddress(ctx context.Context, n uint32, addr string) error {
	req := struct {
		Blocks  uint32 `json:"blocks"`
		Address string `json:"address"`
	}{Blocks: n, Address: addr}
	return h.postJSON(ctx, "/generate", req, nil)
}

func (h *HTTP) Sync(ctx context.Context) error {
	return h.postJSON(ctx, "/sync", struct{}{}, nil)
}

var _ Provider = (*HTTP)(nil)
