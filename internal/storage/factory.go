package storage

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/pressline/internal/config"
)

// NewStore builds the ObjectStore selected by the storage configuration.
func NewStore(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Backend {
	case config.StorageBackendFS:
		return NewFSStore(cfg.Root)
	case config.StorageBackendMemory:
		return NewMemStore(), nil
	case config.StorageBackendMinio:
		return NewMinioStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
