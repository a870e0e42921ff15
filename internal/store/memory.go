package store

import (
	"context"
	"sync"

	"github.com/desertthunder/nowplaying/internal/models"
)

// MemoryStore holds the credential in process memory.
//
// It round-trips through the same JSON encoding as the durable backends so corrupt
// records can be simulated with [MemoryStore.SetRaw].
type MemoryStore struct {
	mu   sync.Mutex
	data []byte

	// Per-method error injection.
	LoadErr  error
	SaveErr  error
	ClearErr error

	loads, saves, clears int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.data == nil {
		return nil, nil
	}
	return decode(m.data)
}

func (m *MemoryStore) Save(ctx context.Context, c *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++

	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := encode(c)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++

	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.data = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// SetRaw stores bytes verbatim, bypassing validation.
func (m *MemoryStore) SetRaw(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = b
}

// Counts reports how many times Load, Save and Clear were called.
func (m *MemoryStore) Counts() (loads, saves, clears int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads, m.saves, m.clears
}
