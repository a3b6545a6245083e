package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/c2h5oh/datasize"
)

// Config represents the optional splinter configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults. A nil field was not set
// in the file.
type DefaultsConfig struct {
	ChunkSize   *datasize.ByteSize `toml:"chunk_size"`
	BlockSize   *datasize.ByteSize `toml:"block_size"`
	BWLimit     *datasize.ByteSize `toml:"bwlimit"`
	Scheme      *string            `toml:"scheme"`
	MetricsFile *string            `toml:"metrics_file"`
	Verify      *bool              `toml:"verify"`
	Checksum    *bool              `toml:"checksum"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "splinter", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. A missing file yields a zero
// Config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
