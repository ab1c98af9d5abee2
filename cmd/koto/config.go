package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

// tomlConfig is the shape of an optional koto.toml found alongside a script,
// or given with --config. It has no required fields; every field left out
// of the file keeps its zero value.
type tomlConfig struct {
	// SearchPaths are additional directories consulted when resolving
	// imported modules, prepended to the script's own directory. Reserved
	// for future module-resolution support; no import statement exists yet.
	SearchPaths []string `toml:"search_paths"`

	// CacheDir, if set, enables the on-disk parsed-AST cache
	// (internal/koto/cache) at the given directory.
	CacheDir string `toml:"cache_dir"`
}

// loadTOMLConfig reads path as a koto.toml. A path that does not exist is
// not an error; it is treated the same as an empty config, since the file
// is always optional.
func loadTOMLConfig(path string) (tomlConfig, error) {
	var cfg tomlConfig
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}
