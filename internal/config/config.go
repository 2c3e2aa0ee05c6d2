package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"revisit/internal/fsutil"
	"revisit/internal/ics"
	appLog "revisit/internal/log"
	"revisit/internal/offset"
)

// EnvPrefix marks environment overrides. Nested keys use a double
// underscore: REVISIT_ICS__RANDOM_UID=true sets ics.random_uid.
const EnvPrefix = "REVISIT_"

// ICSConfig controls calendar file generation.
type ICSConfig struct {
	// ProductID is written to the PRODID line.
	ProductID string `yaml:"product_id" koanf:"product_id"`
	// UIDDomain is the suffix after "@" in generated UIDs.
	UIDDomain string `yaml:"uid_domain" koanf:"uid_domain"`
	// RandomUID adds a random segment to UIDs. Enable it when documents are
	// generated in bulk, where millisecond UIDs can collide.
	RandomUID bool `yaml:"random_uid" koanf:"random_uid"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API. Auth is on
// only when both fields are set.
type BasicAuthConfig struct {
	Username string `yaml:"username" koanf:"username"`
	Password string `yaml:"password" koanf:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" koanf:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" koanf:"log_level"`

	// StorePath holds picker state. A ".json" suffix selects the file
	// store, anything else a SQLite database.
	StorePath string `yaml:"store_path" koanf:"store_path"`

	// DefaultToken preselects the picker when nothing was stored yet.
	DefaultToken string `yaml:"default_token" koanf:"default_token"`

	ICS ICSConfig `yaml:"ics" koanf:"ics"`

	BasicAuth BasicAuthConfig `yaml:"basic_auth" koanf:"basic_auth"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		LogLevel:     "info",
		StorePath:    defaultStorePath(),
		DefaultToken: offset.Default.String(),
		ICS: ICSConfig{
			ProductID: ics.DefaultProductID,
			UIDDomain: ics.DefaultUIDDomain,
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "./var/revisit.db"
	}
	return filepath.Join(dir, "revisit", "revisit.db")
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	c.LogLevel = strings.ToLower(string(appLog.ParseLevel(c.LogLevel)))
	if c.StorePath == "" {
		c.StorePath = def.StorePath
	}
	if t, err := offset.Parse(c.DefaultToken); err != nil {
		if c.DefaultToken != "" {
			appLog.Warn("invalid default_token in config; using default", "value", c.DefaultToken, "reason", err.Error())
		}
		c.DefaultToken = def.DefaultToken
	} else {
		c.DefaultToken = t.String()
	}
	if c.ICS.ProductID == "" {
		c.ICS.ProductID = def.ICS.ProductID
	}
	if c.ICS.UIDDomain == "" {
		c.ICS.UIDDomain = def.ICS.UIDDomain
	}
}

// Default returns the parsed DefaultToken.
func (c *Config) Default() offset.Token {
	t, err := offset.Parse(c.DefaultToken)
	if err != nil {
		return offset.Default
	}
	return t
}

// BasicAuthEnabled reports whether both credentials are configured.
func (c *Config) BasicAuthEnabled() bool {
	return c.BasicAuth.Username != "" && c.BasicAuth.Password != ""
}

// Load builds the configuration from defaults, the YAML file at path and
// REVISIT_* environment variables, in that order.
//
// Behavior:
//   - If the file does not exist it is created with the defaults (0600) and
//     loading continues with the environment layer.
//   - If the file exists it is parsed as YAML.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(*DefaultConfig(), "koanf"), nil); err != nil {
		appLog.Error("error loading config defaults", err)
		return nil, err
	}

	var saveErr error
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		// First run: create default config file.
		appLog.Info("config file not found; writing defaults", "config_path", path)
		saveErr = Save(path, DefaultConfig())
	} else {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			appLog.Error("error loading config from YAML", err, "config_path", path)
			return nil, err
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), "__", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		appLog.Error("error loading config from environment", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	// Even if the first-run save failed, return cfg so the caller can decide.
	return &cfg, saveErr
}

// Save normalizes cfg and writes it to path as YAML with 0600 permissions,
// replacing any existing file atomically.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}
