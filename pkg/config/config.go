// Package config provides a reusable loader for alkanes-core network
// profiles and environment variables. It is versioned so that applications
// can depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"alkanes-core/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified network profile for an alkanes-core binary. It
// mirrors the structure of the YAML files under cmd/config.
type Config struct {
	Network struct {
		Name          string `mapstructure:"name" json:"name"`
		DefaultFeeRate uint64 `mapstructure:"default_fee_rate" json:"default_fee_rate"`
		MaxFeeSats    uint64 `mapstructure:"max_fee_sats" json:"max_fee_sats"`
		DustLimit     uint64 `mapstructure:"dust_limit" json:"dust_limit"`
	} `mapstructure:"network" json:"network"`

	RPC struct {
		Endpoint   string `mapstructure:"endpoint" json:"endpoint"`
		TimeoutSec int    `mapstructure:"timeout_sec" json:"timeout_sec"`
	} `mapstructure:"rpc" json:"rpc"`

	Mine struct {
		Enabled     bool `mapstructure:"enabled" json:"enabled"`
		SyncSleepMS int  `mapstructure:"sync_sleep_ms" json:"sync_sleep_ms"`
	} `mapstructure:"mine" json:"mine"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads the default network profile and merges an environment-specific
// override (e.g. "regtest", "signet"). If env is empty, only the default
// profile is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ALKANES_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ALKANES_ENV", ""))
}
