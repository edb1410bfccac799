package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendFlatFile = "flatfile"
	BackendSQLite   = "sqlite"
)

// Config is the root application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects where members and catalog items are saved.
type StorageConfig struct {
	Backend     string `yaml:"backend"      env:"LIBRARY_STORAGE_BACKEND" env-default:"flatfile"`
	Dir         string `yaml:"dir"          env:"LIBRARY_DATA_DIR"        env-default:"."`
	MembersFile string `yaml:"members_file" env:"LIBRARY_MEMBERS_FILE"    env-default:"usuarios.csv"`
	ItemsFile   string `yaml:"items_file"   env:"LIBRARY_ITEMS_FILE"      env-default:"acervo.csv"`
	SQLitePath  string `yaml:"sqlite_path"  env:"LIBRARY_SQLITE_PATH"     env-default:"library.db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// MembersPath is MembersFile resolved against Dir.
func (s StorageConfig) MembersPath() string { return s.resolve(s.MembersFile) }

// ItemsPath is ItemsFile resolved against Dir.
func (s StorageConfig) ItemsPath() string { return s.resolve(s.ItemsFile) }

// DatabasePath is SQLitePath resolved against Dir.
func (s StorageConfig) DatabasePath() string { return s.resolve(s.SQLitePath) }

func (s StorageConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// An explicit path must exist. Without one, LIBRARY_CONFIG is tried, then
// ./config.yaml; when neither exists only ENV and defaults are used.
func Load(path string) (*Config, error) {
	var cfg Config

	explicitPath := path != ""
	if !explicitPath {
		path = os.Getenv("LIBRARY_CONFIG")
		explicitPath = path != ""
	}
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks enumerated settings. Load calls it automatically.
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendFlatFile, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q (got %q)", BackendFlatFile, BackendSQLite, c.Storage.Backend)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	return nil
}
