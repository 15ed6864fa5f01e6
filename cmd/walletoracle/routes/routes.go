package routes

import (
	"github.com/gorilla/mux"

	"alkanes-core/cmd/walletoracle/controllers"
	"alkanes-core/cmd/walletoracle/middleware"
)

// Register wires the provider surface (spec.md §6.1) onto r.
func Register(r *mux.Router, oc *controllers.OracleController) {
	r.Use(middleware.Logger)
	r.HandleFunc("/utxos", oc.GetUTXOs).Methods("GET")
	r.HandleFunc("/utxo/{txid}/{vout}", oc.GetUTXO).Methods("GET")
	r.HandleFunc("/internal-key", oc.InternalKey).Methods("GET")
	r.HandleFunc("/sign-psbt", oc.SignPSBT).Methods("POST")
	r.HandleFunc("/sign-taproot", oc.SignTaprootScriptSpend).Methods("POST")
	r.HandleFunc("/broadcast", oc.Broadcast).Methods("POST")
	r.HandleFunc("/transaction/{txid}", oc.TransactionHex).Methods("GET")
	r.HandleFunc("/trace/{txid}/{vout}", oc.TraceOutpoint).Methods("GET")
	r.HandleFunc("/network", oc.Network).Methods("GET")
	r.HandleFunc("/generate", oc.GenerateToAddress).Methods("POST")
	r.HandleFunc("/sync", oc.Sync).Methods("POST")
}
