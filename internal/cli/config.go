package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"abookvcf/internal/abook"
)

// Config controls where the addressbook lives and which domain suffix
// generated UIDs carry. Files are JWCC (JSON with comments and
// trailing commas).
type Config struct {
	Addressbook string `json:"addressbook"`
	FQDN        string `json:"fqdn,omitempty"`
}

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
)

// DefaultConfig returns the built-in defaults applied before any
// config file is read.
func DefaultConfig() Config {
	return Config{Addressbook: abook.DefaultPath()}
}

// LoadConfig resolves the effective config: defaults, overlaid with
// the global config file if one exists, overlaid with an explicit
// config file if given. A missing global file is fine; a missing
// explicit file is an error.
func LoadConfig(configPath string, env map[string]string) (Config, error) {
	cfg := DefaultConfig()

	global := globalConfigPath(env)
	if global != "" {
		fileCfg, err := readConfigFile(global)
		if err == nil {
			cfg = mergeConfig(cfg, fileCfg)
		} else if !errors.Is(err, errConfigFileNotFound) {
			return Config{}, err
		}
	}

	if configPath != "" {
		fileCfg, err := readConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}

		cfg = mergeConfig(cfg, fileCfg)
	}

	return cfg, nil
}

func globalConfigPath(env map[string]string) string {
	if dir := env["XDG_CONFIG_HOME"]; dir != "" {
		return filepath.Join(dir, "abookvcf", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "abookvcf", "config.json")
}

func readConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}

		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", errConfigInvalid, path, err)
	}

	var cfg Config

	err = json.Unmarshal(std, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", errConfigInvalid, path, err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Addressbook != "" {
		base.Addressbook = overlay.Addressbook
	}

	if overlay.FQDN != "" {
		base.FQDN = overlay.FQDN
	}

	return base
}
