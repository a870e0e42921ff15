package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// SQLiteStore keeps the credential encrypted in a private SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	key    string
	sealer *sealer
}

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
//
// It refuses to open without a secret key.
func OpenSQLite(ctx context.Context, path, key, secretKey string) (*SQLiteStore, error) {
	dk, err := DeriveKey(secretKey, key)
	if err != nil {
		return nil, err
	}
	s, err := newSealer(dk)
	if err != nil {
		return nil, err
	}

	db, err := shared.NewPrivateDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate credential store: %w", err)
	}

	return &SQLiteStore{db: db, key: key, sealer: s}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.Credential, error) {
	var ciphertext string
	err := s.db.QueryRowContext(ctx, "SELECT ciphertext FROM credentials WHERE key = ?", s.key).Scan(&ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	plaintext, err := s.sealer.open(ciphertext)
	if err != nil {
		return nil, err
	}
	return decode(plaintext)
}

func (s *SQLiteStore) Save(ctx context.Context, c *models.Credential) error {
	data, err := encode(c)
	if err != nil {
		return err
	}

	ciphertext, err := s.sealer.seal(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	query := `
		INSERT INTO credentials (key, ciphertext, record_id, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			record_id = excluded.record_id,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, s.key, ciphertext, shared.GenerateID()); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM credentials WHERE key = ?", s.key); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// RecordID returns the id written with the current record, or "" when none is stored.
func (s *SQLiteStore) RecordID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT record_id FROM credentials WHERE key = ?", s.key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
