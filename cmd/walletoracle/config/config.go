// Package config loads the walletoracle's own runtime settings: the port it
// listens on and the Bitcoin network profile it signs against. Kept
// deliberately separate from pkg/config's network-profile loader, one
// config package per binary.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port    string
	Network string
}

var AppConfig ServerConfig

// Load reads walletoracle/.env (if present) and falls back to defaults:
// port 8081, regtest network.
func Load() error {
	if err := godotenv.Load("cmd/walletoracle/.env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading env: %w", err)
	}
	port := os.Getenv("ORACLE_PORT")
	if port == "" {
		port = "8081"
	}
	network := os.Getenv("ORACLE_NETWORK")
	if network == "" {
		network = "regtest"
	}
	AppConfig = ServerConfig{Port: port, Network: network}
	return nil
}
