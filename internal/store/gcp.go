package store

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// secretManagerAPI is the subset of [secretmanager.Client] the store calls.
type secretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.SecretVersion, error)
	CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
	DeleteSecret(ctx context.Context, req *secretmanagerpb.DeleteSecretRequest, opts ...gax.CallOption) error
	Close() error
}

// GCPStore keeps the credential in Google Cloud Secret Manager.
// Each save adds a version; Load reads versions/latest.
type GCPStore struct {
	client    secretManagerAPI
	projectID string
	secretID  string
}

// NewGCPStore connects using Application Default Credentials unless cfg.CredentialsFile is set.
func NewGCPStore(ctx context.Context, key string, cfg shared.GCPConfig) (*GCPStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GCP client: %v", shared.ErrStorageUnavailable, err)
	}
	return newGCPStore(client, cfg.ProjectID, cfg.Prefix+key), nil
}

func newGCPStore(client secretManagerAPI, projectID, secretID string) *GCPStore {
	return &GCPStore{client: client, projectID: projectID, secretID: secretID}
}

func (s *GCPStore) secretPath() string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretID)
}

func (s *GCPStore) Load(ctx context.Context) (*models.Credential, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretPath() + "/versions/latest",
	})
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access secret %s: %w", s.secretID, err)
	}
	if resp.GetPayload() == nil {
		return nil, fmt.Errorf("%w: secret %s has no payload", shared.ErrStorageCorrupt, s.secretID)
	}
	return decode(resp.GetPayload().GetData())
}

func (s *GCPStore) Save(ctx context.Context, c *models.Credential) error {
	data, err := encode(c)
	if err != nil {
		return err
	}

	add := &secretmanagerpb.AddSecretVersionRequest{
		Parent:  s.secretPath(),
		Payload: &secretmanagerpb.SecretPayload{Data: data},
	}

	_, err = s.client.AddSecretVersion(ctx, add)
	if status.Code(err) != codes.NotFound {
		if err != nil {
			return fmt.Errorf("failed to add secret version %s: %w", s.secretID, err)
		}
		return nil
	}

	_, err = s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + s.projectID,
		SecretId: s.secretID,
		Secret: &secretmanagerpb.Secret{
			Labels: map[string]string{"app": "nowplaying"},
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("failed to create secret %s: %w", s.secretID, err)
	}

	if _, err := s.client.AddSecretVersion(ctx, add); err != nil {
		return fmt.Errorf("failed to add secret version %s: %w", s.secretID, err)
	}
	return nil
}

func (s *GCPStore) Clear(ctx context.Context) error {
	err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{Name: s.secretPath()})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to delete secret %s: %w", s.secretID, err)
	}
	return nil
}

func (s *GCPStore) Close() error {
	return s.client.Close()
}
