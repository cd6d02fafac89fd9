package vault

import (
	"context"

	"github.com/hashicorp/vault/api"
)

// FakeClientFactory serves the raw secret data per path, the same for every server.
type FakeClientFactory struct {
	Secrets map[string]map[string]interface{}
}

func NewFakeClientFactory() *FakeClientFactory {
	return &FakeClientFactory{
		Secrets: map[string]map[string]interface{}{},
	}
}

func (f *FakeClientFactory) Logical(server string) (LogicalClient, error) {
	return f, nil
}

func (f *FakeClientFactory) ReadWithContext(ctx context.Context, path string) (*api.Secret, error) {
	d, ok := f.Secrets[path]
	if !ok {
		return nil, nil
	}
	return &api.Secret{Data: d}, nil
}
