package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LIBRARY_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendFlatFile, cfg.Storage.Backend)
	assert.Equal(t, "usuarios.csv", cfg.Storage.MembersFile)
	assert.Equal(t, "acervo.csv", cfg.Storage.ItemsFile)
	assert.Equal(t, "library.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: sqlite
  dir: /var/lib/library
  sqlite_path: lib.db
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("/var/lib/library", "lib.db"), cfg.Storage.DatabasePath())
	assert.Equal(t, filepath.Join("/var/lib/library", "usuarios.csv"), cfg.Storage.MembersPath())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: sqlite\n")
	t.Setenv("LIBRARY_STORAGE_BACKEND", "flatfile")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendFlatFile, cfg.Storage.Backend)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "flatfile text",
			cfg:  Config{Storage: StorageConfig{Backend: "flatfile"}, Log: LogConfig{Format: "text"}},
		},
		{
			name: "backend is case insensitive",
			cfg:  Config{Storage: StorageConfig{Backend: " SQLite "}, Log: LogConfig{Format: "json"}},
		},
		{
			name:    "unknown backend",
			cfg:     Config{Storage: StorageConfig{Backend: "postgres"}, Log: LogConfig{Format: "text"}},
			wantErr: true,
		},
		{
			name:    "unknown log format",
			cfg:     Config{Storage: StorageConfig{Backend: "flatfile"}, Log: LogConfig{Format: "xml"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStorageConfig_AbsolutePathKept(t *testing.T) {
	s := StorageConfig{Dir: "data", SQLitePath: "/tmp/x.db", MembersFile: "m.csv"}
	assert.Equal(t, "/tmp/x.db", s.DatabasePath())
	assert.Equal(t, filepath.Join("data", "m.csv"), s.MembersPath())
}
