package vault

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/vault/api"
)

// LogicalClient is the read part of the vault logical backend.
type LogicalClient interface {
	ReadWithContext(ctx context.Context, path string) (*api.Secret, error)
}

type ClientFactory interface {
	Logical(server string) (LogicalClient, error)
}

type sdkClientFactory struct {
	httpClient *http.Client

	mu      sync.Mutex
	clients map[string]LogicalClient
}

// NewClientFactory creates clients that authenticate with the token from
// VAULT_TOKEN, as the vault CLI does.
func NewClientFactory() ClientFactory {
	return &sdkClientFactory{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		clients:    map[string]LogicalClient{},
	}
}

func (f *sdkClientFactory) Logical(server string) (LogicalClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[server]; ok {
		return c, nil
	}
	c, err := api.NewClient(&api.Config{Address: server, HttpClient: f.httpClient})
	if err != nil {
		return nil, fmt.Errorf("failed to create client for vault %s: %w", server, err)
	}
	f.clients[server] = c.Logical()
	return f.clients[server], nil
}
