package azure

import (
	"context"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

type KeyVaultClient interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

type ClientFactory interface {
	KeyVault(vaultUri string) (KeyVaultClient, error)
}

// sdkClientFactory shares one default credential between all vault clients.
type sdkClientFactory struct {
	mu      sync.Mutex
	cred    azcore.TokenCredential
	clients map[string]KeyVaultClient
}

func NewClientFactory() ClientFactory {
	return &sdkClientFactory{
		clients: map[string]KeyVaultClient{},
	}
}

func (f *sdkClientFactory) KeyVault(vaultUri string) (KeyVaultClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[vaultUri]; ok {
		return c, nil
	}
	if f.cred == nil {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get azure credentials: %w", err)
		}
		f.cred = cred
	}
	c, err := azsecrets.NewClient(vaultUri, f.cred, nil)
	if err != nil {
		return nil, err
	}
	f.clients[vaultUri] = c
	return c, nil
}
