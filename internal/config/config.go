// Package config holds the CLI settings: where the inputs and the snapshot
// database live, and how loud the logs are.
package config

import (
	"os"
	"path/filepath"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. CLANMETRICS_DB.
const EnvPrefix = "CLANMETRICS_"

// FileEnv names the variable pointing at an optional YAML settings file.
const FileEnv = EnvPrefix + "CONFIG"

// Config contains the CLI settings. Flags override every field.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DB is the SQLite snapshot database path.
	DB string `koanf:"db"`

	// Input files. The matches file may be zstd-compressed (.zst).
	Matches    string `koanf:"matches"`
	Registry   string `koanf:"registry"`
	TeamConfig string `koanf:"team_config"`
	Roles      string `koanf:"roles"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		DB:         filepath.Join(userHome(), ".clanmetrics", "snapshots.db"),
		Matches:    "matches.json",
		Registry:   "registry.json",
		TeamConfig: "team_config.json",
		Roles:      "",
	}
}

// Load layers, low to high: defaults, a .env file in the working directory,
// the YAML file named by CLANMETRICS_CONFIG, then CLANMETRICS_* variables.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	k := koanf.New(".")
	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, crerr.Wrapf(err, "load %s", path)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, crerr.Wrap(err, "load environment")
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, crerr.Wrap(err, "decode settings")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return crerr.Newf("log_level %q must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.DB == "" {
		return crerr.New("db must not be empty")
	}
	return nil
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
