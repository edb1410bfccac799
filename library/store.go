package library

import (
	"fmt"
	"log/slog"

	"library-lending/config"
)

// OpenStore builds the Gateway selected by cfg.Backend.
func OpenStore(cfg config.StorageConfig, log *slog.Logger) (Gateway, error) {
	switch cfg.Backend {
	case config.BackendFlatFile, "":
		return NewFlatFileStore(cfg.MembersPath(), cfg.ItemsPath(), log), nil
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.DatabasePath(), log)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
