// Package services wraps the capability-bundle Provider behind the HTTP
// oracle's handlers.
package services

import (
	"github.com/btcsuite/btcd/chaincfg"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/provider"
)

// OracleService backs every walletoracle endpoint with a provider.Provider.
// Real key custody (seed/keystore files, passphrase handling) is an
// external collaborator; this service stands in for it with a freshly
// generated in-memory keypair (provider.Mock), a development-only
// simplification.
type OracleService struct {
	provider.Provider
}

// NewService builds an OracleService for the named network
// ("mainnet"/"testnet"/"signet"/"regtest").
func NewService(network string) (*OracleService, error) {
	params, err := networkParams(network)
	if err != nil {
		return nil, err
	}
	mock, err := provider.NewMock(params)
	if err != nil {
		return nil, err
	}
	return &OracleService{Provider: mock}, nil
}

func networkParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest", "":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, alkerrors.New(alkerrors.Validation, "walletoracle: unknown network %q", network)
	}
}
