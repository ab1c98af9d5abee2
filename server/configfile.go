package server

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// fileConfig is the on-disk TOML shape of a Config. Fields are strings/ints
// instead of Config's []byte/time.Duration so the file format stays plain
// text.
type fileConfig struct {
	TokenSecret       string `toml:"token_secret"`
	DB                string `toml:"db"`
	UnauthDelayMillis int    `toml:"unauth_delay_millis"`
}

// LoadConfigFile reads a TOML config file at path (e.g. "koto-server.toml")
// into a Config. A missing TokenSecret or DB is left unset, to be filled in
// later by Config.FillDefaults.
func LoadConfigFile(path string) (Config, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Config{
		UnauthDelayMillis: fc.UnauthDelayMillis,
	}

	if fc.TokenSecret != "" {
		cfg.TokenSecret = []byte(fc.TokenSecret)
	}

	if fc.DB != "" {
		db, err := ParseDBConnString(fc.DB)
		if err != nil {
			return Config{}, fmt.Errorf("db: %w", err)
		}
		cfg.DB = db
	}

	return cfg, nil
}
