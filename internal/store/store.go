package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// DefaultKey is the fixed storage key for the current credential.
const DefaultKey = "spotify_token_v1"

// Store is durable storage for exactly one credential record.
type Store interface {
	// Load returns the stored credential, or nil with a nil error when none exists.
	Load(ctx context.Context) (*models.Credential, error)
	// Save replaces the stored credential.
	Save(ctx context.Context, c *models.Credential) error
	// Clear removes the stored credential. Clearing an empty store succeeds.
	Clear(ctx context.Context) error
	Close() error
}

// New opens the backend selected by cfg.Backend.
func New(ctx context.Context, cfg shared.StoreConfig) (Store, error) {
	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}

	switch cfg.Backend {
	case shared.BackendSQLite, "":
		path, err := shared.ExpandPath(cfg.Path)
		if err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, path, key, cfg.SecretKey)
	case shared.BackendAWS:
		return NewAWSStore(ctx, key, cfg.AWS)
	case shared.BackendGCP:
		return NewGCPStore(ctx, key, cfg.GCP)
	case shared.BackendAzure:
		return NewAzureStore(key, cfg.Azure)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

func encode(c *models.Credential) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil credential", shared.ErrInvalidInput)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*models.Credential, error) {
	var c models.Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorageCorrupt, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorageCorrupt, err)
	}
	return &c, nil
}
