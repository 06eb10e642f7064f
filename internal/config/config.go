// Package config handles vaultview settings and server discovery.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
)

// Settings is the persisted client configuration.
type Settings struct {
	ServerURL     string `toml:"server_url"`
	APIKey        string `toml:"api_key"`
	AllowInsecure bool   `toml:"allow_insecure"`
}

// DefaultPath returns the settings file location. VAULTVIEW_CONFIG overrides
// the default of ~/.config/vaultview/config.toml.
func DefaultPath() string {
	if p := os.Getenv("VAULTVIEW_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".vaultview", "config.toml")
	}
	return filepath.Join(dir, "vaultview", "config.toml")
}

// Load reads settings from path. A missing file is not an error; defaults are
// returned so first runs fall through to discovery.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultPath()
	}

	s := &Settings{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	if _, err := toml.DecodeFile(path, s); err != nil {
		return nil, eris.Wrapf(err, "decode settings %s", path)
	}
	return s, nil
}

// Save writes settings to path, creating parent directories as needed.
func Save(path string, s *Settings) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "create config directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create settings file")
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return eris.Wrap(err, "encode settings")
	}
	return nil
}
