package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// keyVaultAPI is the subset of [azsecrets.Client] the store calls.
type keyVaultAPI interface {
	GetSecret(ctx context.Context, name, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
	SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error)
}

// AzureStore keeps the credential in Azure Key Vault.
//
// Clear writes an empty value instead of deleting: soft-delete would reserve the name
// until purged and block the next login's Save.
type AzureStore struct {
	client keyVaultAPI
	name   string
}

// NewAzureStore authenticates with [azidentity.NewDefaultAzureCredential].
func NewAzureStore(key string, cfg shared.AzureConfig) (*AzureStore, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Azure credential: %v", shared.ErrStorageUnavailable, err)
	}

	client, err := azsecrets.NewClient(cfg.VaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Key Vault client: %v", shared.ErrStorageUnavailable, err)
	}
	return newAzureStore(client, cfg.Prefix+key), nil
}

func newAzureStore(client keyVaultAPI, name string) *AzureStore {
	return &AzureStore{client: client, name: azureSecretName(name)}
}

// azureSecretName maps a key to the Key Vault name alphabet (alphanumerics and dashes).
func azureSecretName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}

func (s *AzureStore) Load(ctx context.Context) (*models.Credential, error) {
	resp, err := s.client.GetSecret(ctx, s.name, "", nil)
	if isAzureNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", s.name, err)
	}
	if resp.Value == nil || *resp.Value == "" {
		return nil, nil
	}
	return decode([]byte(*resp.Value))
}

func (s *AzureStore) Save(ctx context.Context, c *models.Credential) error {
	data, err := encode(c)
	if err != nil {
		return err
	}
	return s.set(ctx, string(data))
}

func (s *AzureStore) Clear(ctx context.Context) error {
	if _, err := s.client.GetSecret(ctx, s.name, "", nil); isAzureNotFound(err) {
		return nil
	}
	return s.set(ctx, "")
}

func (s *AzureStore) set(ctx context.Context, value string) error {
	contentType := "application/json"
	params := azsecrets.SetSecretParameters{Value: &value, ContentType: &contentType}
	if _, err := s.client.SetSecret(ctx, s.name, params, nil); err != nil {
		return fmt.Errorf("failed to write secret %s: %w", s.name, err)
	}
	return nil
}

func (s *AzureStore) Close() error { return nil }

func isAzureNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
