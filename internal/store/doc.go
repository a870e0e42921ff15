// Package store persists the single current [models.Credential].
//
// Every backend implements [Store] under one fixed key:
//
//   - [SQLiteStore] : local file, AES-256-GCM per record, key derived with HKDF-SHA256
//   - [AWSStore]    : AWS Secrets Manager
//   - [GCPStore]    : Google Cloud Secret Manager
//   - [AzureStore]  : Azure Key Vault
//   - [MemoryStore] : process memory, for tests and dry runs
//
// Load returns nil, nil when no credential is stored and wraps [shared.ErrStorageCorrupt]
// when a record exists but cannot be decoded. No backend falls back to plaintext local storage.
package store
