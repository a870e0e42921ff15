package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// secretsManagerAPI is the subset of [secretsmanager.Client] the store calls.
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, in *secretsmanager.PutSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, in *secretsmanager.CreateSecretInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	DeleteSecret(ctx context.Context, in *secretsmanager.DeleteSecretInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

// AWSStore keeps the credential in AWS Secrets Manager as a JSON secret string.
type AWSStore struct {
	client secretsManagerAPI
	name   string
}

// NewAWSStore loads the default AWS configuration (env, shared config, IMDS) for cfg.Region.
func NewAWSStore(ctx context.Context, key string, cfg shared.AWSConfig) (*AWSStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS config: %v", shared.ErrStorageUnavailable, err)
	}

	client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newAWSStore(client, cfg.Prefix+key), nil
}

func newAWSStore(client secretsManagerAPI, name string) *AWSStore {
	return &AWSStore{client: client, name: name}
}

func (s *AWSStore) Load(ctx context.Context) (*models.Credential, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(s.name)})
	if isAWSNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", s.name, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("%w: secret %s has no string value", shared.ErrStorageCorrupt, s.name)
	}
	return decode([]byte(*out.SecretString))
}

func (s *AWSStore) Save(ctx context.Context, c *models.Credential) error {
	data, err := encode(c)
	if err != nil {
		return err
	}

	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(s.name),
		SecretString: aws.String(string(data)),
	})
	if !isAWSNotFound(err) {
		if err != nil {
			return fmt.Errorf("failed to write secret %s: %w", s.name, err)
		}
		return nil
	}

	_, err = s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(s.name),
		SecretString: aws.String(string(data)),
		Tags:         []types.Tag{{Key: aws.String("app"), Value: aws.String("nowplaying")}},
	})
	if err != nil {
		return fmt.Errorf("failed to create secret %s: %w", s.name, err)
	}
	return nil
}

// Clear deletes the secret immediately, skipping the recovery window so the name can be reused.
func (s *AWSStore) Clear(ctx context.Context) error {
	_, err := s.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(s.name),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil && !isAWSNotFound(err) {
		return fmt.Errorf("failed to delete secret %s: %w", s.name, err)
	}
	return nil
}

func (s *AWSStore) Close() error { return nil }

func isAWSNotFound(err error) bool {
	var rnf *types.ResourceNotFoundException
	return errors.As(err, &rnf)
}
