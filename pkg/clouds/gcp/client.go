package gcp

import (
	"context"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

type SecretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

type ClientFactory interface {
	SecretManager(ctx context.Context) (SecretManagerClient, error)
}

// sdkClientFactory creates a single client using the application default
// credentials and reuses it afterwards.
type sdkClientFactory struct {
	mu     sync.Mutex
	client SecretManagerClient
}

func NewClientFactory() ClientFactory {
	return &sdkClientFactory{}
}

func (f *sdkClientFactory) SecretManager(ctx context.Context) (SecretManagerClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil {
		return f.client, nil
	}
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	f.client = c
	return c, nil
}
