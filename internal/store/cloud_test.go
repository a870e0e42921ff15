package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/desertthunder/nowplaying/internal/shared"
)

type fakeSecretsManager struct {
	mu      sync.Mutex
	secrets map[string]string
	creates int
	err     error
}

func newFakeSecretsManager() *fakeSecretsManager {
	return &fakeSecretsManager{secrets: map[string]string{}}
}

func notFoundAWS() error {
	return &types.ResourceNotFoundException{Message: aws.String("secret not found")}
}

func (f *fakeSecretsManager) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.secrets[*in.SecretId]
	if !ok {
		return nil, notFoundAWS()
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func (f *fakeSecretsManager) PutSecretValue(_ context.Context, in *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.secrets[*in.SecretId]; !ok {
		return nil, notFoundAWS()
	}
	f.secrets[*in.SecretId] = *in.SecretString
	return &secretsmanager.PutSecretValueOutput{}, nil
}

func (f *fakeSecretsManager) CreateSecret(_ context.Context, in *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.secrets[*in.Name] = *in.SecretString
	return &secretsmanager.CreateSecretOutput{Name: in.Name}, nil
}

func (f *fakeSecretsManager) DeleteSecret(_ context.Context, in *secretsmanager.DeleteSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.ForceDeleteWithoutRecovery == nil || !*in.ForceDeleteWithoutRecovery {
		return nil, errors.New("expected force delete")
	}
	if _, ok := f.secrets[*in.SecretId]; !ok {
		return nil, notFoundAWS()
	}
	delete(f.secrets, *in.SecretId)
	return &secretsmanager.DeleteSecretOutput{}, nil
}

func TestAWSStore(t *testing.T) {
	t.Run("contract", func(t *testing.T) {
		fake := newFakeSecretsManager()
		exerciseStore(t, newAWSStore(fake, "nowplaying/"+DefaultKey))
		assert.Equal(t, 1, fake.creates, "secret is created once then updated with PutSecretValue")
	})

	t.Run("corrupt secret", func(t *testing.T) {
		fake := newFakeSecretsManager()
		fake.secrets["k"] = "garbage"

		_, err := newAWSStore(fake, "k").Load(context.Background())
		assert.ErrorIs(t, err, shared.ErrStorageCorrupt)
	})

	t.Run("service error propagates", func(t *testing.T) {
		fake := newFakeSecretsManager()
		fake.err = errors.New("throttled")

		_, err := newAWSStore(fake, "k").Load(context.Background())
		assert.ErrorContains(t, err, "throttled")
	})
}

type fakeSecretManager struct {
	mu       sync.Mutex
	versions map[string][][]byte
	deleted  []string
}

func (f *fakeSecretManager) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	const suffix = "/versions/latest"
	name := req.GetName()
	if len(name) < len(suffix) || name[len(name)-len(suffix):] != suffix {
		return nil, status.Error(codes.InvalidArgument, "expected latest version")
	}
	vs := f.versions[name[:len(name)-len(suffix)]]
	if len(vs) == 0 {
		return nil, status.Error(codes.NotFound, "secret not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    name,
		Payload: &secretmanagerpb.SecretPayload{Data: vs[len(vs)-1]},
	}, nil
}

func (f *fakeSecretManager) AddSecretVersion(_ context.Context, req *secretmanagerpb.AddSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.SecretVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vs, ok := f.versions[req.GetParent()]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret not found")
	}
	f.versions[req.GetParent()] = append(vs, req.GetPayload().GetData())
	return &secretmanagerpb.SecretVersion{Name: req.GetParent() + "/versions/n"}, nil
}

func (f *fakeSecretManager) CreateSecret(_ context.Context, req *secretmanagerpb.CreateSecretRequest, _ ...gax.CallOption) (*secretmanagerpb.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.GetSecret().GetReplication().GetAutomatic() == nil {
		return nil, status.Error(codes.InvalidArgument, "replication required")
	}
	name := req.GetParent() + "/secrets/" + req.GetSecretId()
	if _, ok := f.versions[name]; ok {
		return nil, status.Error(codes.AlreadyExists, "exists")
	}
	f.versions[name] = nil
	return &secretmanagerpb.Secret{Name: name}, nil
}

func (f *fakeSecretManager) DeleteSecret(_ context.Context, req *secretmanagerpb.DeleteSecretRequest, _ ...gax.CallOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.versions[req.GetName()]; !ok {
		return status.Error(codes.NotFound, "secret not found")
	}
	delete(f.versions, req.GetName())
	f.deleted = append(f.deleted, req.GetName())
	return nil
}

func (f *fakeSecretManager) Close() error { return nil }

func TestGCPStore(t *testing.T) {
	t.Run("contract", func(t *testing.T) {
		fake := &fakeSecretManager{versions: map[string][][]byte{}}
		exerciseStore(t, newGCPStore(fake, "proj", "nowplaying-"+DefaultKey))
		assert.Equal(t, []string{"projects/proj/secrets/nowplaying-spotify_token_v1"}, fake.deleted)
	})

	t.Run("save appends versions", func(t *testing.T) {
		fake := &fakeSecretManager{versions: map[string][][]byte{}}
		s := newGCPStore(fake, "proj", "k")
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, sampleCredential()))
		require.NoError(t, s.Save(ctx, sampleCredential()))
		assert.Len(t, fake.versions["projects/proj/secrets/k"], 2)
	})
}

type fakeKeyVault struct {
	mu      sync.Mutex
	secrets map[string]string
}

func (f *fakeKeyVault) GetSecret(_ context.Context, name, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "SecretNotFound"}
	}
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: &v}}, nil
}

func (f *fakeKeyVault) SetSecret(_ context.Context, name string, p azsecrets.SetSecretParameters, _ *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[name] = *p.Value
	return azsecrets.SetSecretResponse{}, nil
}

func TestAzureStore(t *testing.T) {
	t.Run("contract", func(t *testing.T) {
		fake := &fakeKeyVault{secrets: map[string]string{}}
		exerciseStore(t, newAzureStore(fake, "nowplaying-"+DefaultKey))

		v, ok := fake.secrets["nowplaying-spotify-token-v1"]
		assert.True(t, ok, "secret name is sanitized and kept after clear")
		assert.Empty(t, v)
	})

	t.Run("secret name", func(t *testing.T) {
		assert.Equal(t, "a-b-c-1", azureSecretName("a_b.c/1"))
	})
}
