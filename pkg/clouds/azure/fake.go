package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeClientFactory maps vault uris to secret names to values.
type FakeClientFactory struct {
	Vaults map[string]map[string]string
}

func NewFakeClientFactory() *FakeClientFactory {
	return &FakeClientFactory{
		Vaults: map[string]map[string]string{},
	}
}

type fakeKeyVault map[string]string

func (v fakeKeyVault) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	s, ok := v[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, fmt.Errorf("SecretNotFound: secret %s not found", name)
	}
	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{Value: &s},
	}, nil
}

func (f *FakeClientFactory) KeyVault(vaultUri string) (KeyVaultClient, error) {
	v, ok := f.Vaults[vaultUri]
	if !ok {
		return nil, fmt.Errorf("unknown vault %s", vaultUri)
	}
	return fakeKeyVault(v), nil
}
