// Package controllers provides the HTTP handlers backing the walletoracle's
// provider surface (spec.md §6.1), the same request/response shape as the
// teacher's walletserver/controllers.
package controllers

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/gorilla/mux"

	"alkanes-core/cmd/walletoracle/services"
)

// OracleController exposes one HTTP handler per provider.Provider method.
type OracleController struct {
	svc *services.OracleService
}

func NewOracleController(svc *services.OracleService) *OracleController {
	return &OracleController{svc: svc}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error, status int) {
	http.Error(w, err.Error(), status)
}

// GetUTXOs handles GET /utxos?include_frozen=&script=<hex>&script=<hex>...
func (c *OracleController) GetUTXOs(w http.ResponseWriter, r *http.Request) {
	includeFrozen := r.URL.Query().Get("include_frozen") == "true"
	var scripts [][]byte
	for _, s := range r.URL.Query()["script"] {
		b, err := hex.DecodeString(s)
		if err != nil {
			writeError(w, err, http.StatusBadRequest)
			return
		}
		scripts = append(scripts, b)
	}
	utxos, err := c.svc.GetUTXOs(r.Context(), includeFrozen, scripts)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, utxos)
}

// GetUTXO handles GET /utxo/{txid}/{vout}.
func (c *OracleController) GetUTXO(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hash, err := chainhash.NewHashFromStr(vars["txid"])
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	vout, err := strconv.ParseUint(vars["vout"], 10, 32)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	out, err := c.svc.GetUTXO(r.Context(), wire.OutPoint{Hash: *hash, Index: uint32(vout)})
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if out == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{"value": out.Value, "pk_script": hex.EncodeToString(out.PkScript)})
}

// InternalKey handles GET /internal-key.
func (c *OracleController) InternalKey(w http.ResponseWriter, r *http.Request) {
	key, origin, err := c.svc.GetInternalKey(r.Context())
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"internal_key": hex.EncodeToString(key[:]),
		"fingerprint":  hex.EncodeToString(origin.Fingerprint[:]),
		"path":         origin.Path,
	})
}

type psbtRequest struct {
	PSBT string `json:"psbt"` // base64-encoded
}

type psbtResponse struct {
	PSBT string `json:"psbt"`
}

// SignPSBT handles POST /sign-psbt.
func (c *OracleController) SignPSBT(w http.ResponseWriter, r *http.Request) {
	var req psbtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.PSBT)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	pkt, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	signed, err := c.svc.SignPSBT(r.Context(), pkt)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := signed.Serialize(&buf); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, psbtResponse{PSBT: base64.StdEncoding.EncodeToString(buf.Bytes())})
}

type signTaprootRequest struct {
	SigHash string `json:"sig_hash"` // hex, 32 bytes
}

type signTaprootResponse struct {
	Signature string `json:"signature"` // hex
}

// SignTaprootScriptSpend handles POST /sign-taproot.
func (c *OracleController) SignTaprootScriptSpend(w http.ResponseWriter, r *http.Request) {
	var req signTaprootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	raw, err := hex.DecodeString(req.SigHash)
	if err != nil || len(raw) != 32 {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	var sigHash [32]byte
	copy(sigHash[:], raw)
	sig, err := c.svc.SignTaprootScriptSpend(r.Context(), sigHash)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, signTaprootResponse{Signature: hex.EncodeToString(sig.Serialize())})
}

type broadcastRequest struct {
	RawHex string `json:"raw_hex"`
}

// Broadcast handles POST /broadcast.
func (c *OracleController) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	txid, err := c.svc.BroadcastTransaction(r.Context(), req.RawHex)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"txid": txid})
}

// TransactionHex handles GET /transaction/{txid}.
func (c *OracleController) TransactionHex(w http.ResponseWriter, r *http.Request) {
	txid := mux.Vars(r)["txid"]
	raw, err := c.svc.GetTransactionHex(r.Context(), txid)
	if err != nil {
		writeError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"raw_hex": raw})
}

// TraceOutpoint handles GET /trace/{txid}/{vout}.
func (c *OracleController) TraceOutpoint(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vout, err := strconv.ParseUint(vars["vout"], 10, 32)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	trace, err := c.svc.TraceOutpoint(r.Context(), vars["txid"], uint32(vout))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(trace)
}

// Network handles GET /network.
func (c *OracleController) Network(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"network": c.svc.GetNetwork().Name})
}

type generateRequest struct {
	Blocks  uint32 `json:"blocks"`
	Address string `json:"address"`
}

// GenerateToAddress handles POST /generate (regtest only; a no-op on other
// networks, matching provider.NetworkMeta.GenerateToAddress).
func (c *OracleController) GenerateToAddress(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if err := c.svc.GenerateToAddress(r.Context(), req.Blocks, req.Address); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// Sync handles POST /sync.
func (c *OracleController) Sync(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Sync(r.Context()); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}
