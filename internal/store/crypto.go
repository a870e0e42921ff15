package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/desertthunder/nowplaying/internal/shared"
)

const hkdfInfo = "nowplaying credential store v1"

// DeriveKey stretches a user-supplied secret into a 32-byte AES-256 key using HKDF-SHA256.
//
// The storage key is the salt, so two stores sharing a secret still encrypt under different keys.
func DeriveKey(secret, salt string) ([]byte, error) {
	if secret == "" {
		return nil, shared.ErrMissingSecretKey
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(hkdfInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}

// sealer encrypts records with AES-256-GCM. Output is base64(nonce || ciphertext || tag).
type sealer struct {
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &sealer{aead: gcm}, nil
}

func (s *sealer) seal(plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(s.aead.Seal(nonce, nonce, plaintext, nil)), nil
}

func (s *sealer) open(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", shared.ErrStorageCorrupt, err)
	}

	n := s.aead.NonceSize()
	if len(data) < n {
		return nil, fmt.Errorf("%w: ciphertext too short", shared.ErrStorageCorrupt)
	}

	plaintext, err := s.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: gcm.Open: %v", shared.ErrStorageCorrupt, err)
	}
	return plaintext, nil
}
