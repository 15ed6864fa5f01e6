// Command walletoracle is the out-of-scope injected-wallet collaborator
// (spec.md §6.1's provider surface, §6.4's "external collaborators" note):
// an HTTP oracle exposing UTXO listing, Taproot signing, and broadcast over
// a small JSON API, the same controller/service/routes shape as the
// teacher's walletserver.
package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"alkanes-core/cmd/walletoracle/config"
	"alkanes-core/cmd/walletoracle/controllers"
	"alkanes-core/cmd/walletoracle/routes"
	"alkanes-core/cmd/walletoracle/services"
)

func main() {
	if err := config.Load(); err != nil {
		logrus.Fatal(err)
	}
	svc, err := services.NewService(config.AppConfig.Network)
	if err != nil {
		logrus.Fatal(err)
	}
	ctrl := controllers.NewOracleController(svc)

	r := mux.NewRouter()
	routes.Register(r, ctrl)

	logrus.Infof("walletoracle listening on %s (network=%s)", config.AppConfig.Port, config.AppConfig.Network)
	if err := http.ListenAndServe(":"+config.AppConfig.Port, r); err != nil {
		logrus.Fatal(err)
	}
}
