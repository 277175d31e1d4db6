package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigFileRead     = errors.New("failed to read config file")
	errConfigInvalid      = errors.New("invalid config")
	errNodesNotPositive   = errors.New("nodes must be positive")
)

// Config holds a graphbench run's parameters. JSON tags use snake_case to
// match the optional on-disk JSONC config file.
type Config struct {
	DBPath string `json:"db_path"` //nolint:tagliatelle
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
	Seed   int64  `json:"seed"`
}

// DefaultConfig returns graphbench's built-in defaults.
func DefaultConfig() Config {
	return Config{
		DBPath: "graphbench.db",
		Nodes:  10_000,
		Edges:  20_000,
		Seed:   1,
	}
}

// ConfigFileName is the default project config file name, checked in the
// working directory when no explicit -config flag is given.
const ConfigFileName = ".graphbench.jsonc"

// LoadConfig loads a Config with the following precedence (highest wins):
// 1. Defaults.
// 2. Project config file: configPath if non-empty, else ConfigFileName in
//    workDir if it exists.
// 3. CLI overrides.
func LoadConfig(workDir, configPath string, overrides Config, set map[string]bool) (Config, error) {
	cfg := DefaultConfig()

	fileCfg, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, fileCfg)
	cfg = mergeConfig(cfg, maskOverrides(overrides, set))

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadProjectConfig(workDir, configPath string) (Config, error) {
	var (
		cfgFile   string
		mustExist bool
	)

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, err := os.Stat(cfgFile); err != nil {
			return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
	}

	data, err := os.ReadFile(cfgFile) //nolint:gosec // path is caller-controlled CLI input
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("%w: %s", errConfigFileRead, cfgFile)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, cfgFile, err)
	}

	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

// maskOverrides zeroes every field in overrides whose flag was not
// explicitly set, so mergeConfig only applies flags the caller actually
// passed.
func maskOverrides(overrides Config, set map[string]bool) Config {
	masked := Config{}

	if set["db"] {
		masked.DBPath = overrides.DBPath
	}

	if set["nodes"] {
		masked.Nodes = overrides.Nodes
	}

	if set["edges"] {
		masked.Edges = overrides.Edges
	}

	if set["seed"] {
		masked.Seed = overrides.Seed
	}

	return masked
}

func mergeConfig(base, overlay Config) Config {
	if overlay.DBPath != "" {
		base.DBPath = overlay.DBPath
	}

	if overlay.Nodes != 0 {
		base.Nodes = overlay.Nodes
	}

	if overlay.Edges != 0 {
		base.Edges = overlay.Edges
	}

	if overlay.Seed != 0 {
		base.Seed = overlay.Seed
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.Nodes <= 0 {
		return fmt.Errorf("%w: %d", errNodesNotPositive, cfg.Nodes)
	}

	return nil
}
