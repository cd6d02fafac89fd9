package providers

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/awesome-it/adeploy/pkg/types"
	log "github.com/sirupsen/logrus"
)

// Provider is a reference to a secret value. The value is only resolved when
// Value is called and then memoized for the lifetime of the provider.
type Provider interface {
	// ID is stable and does not depend on the secret value. It is used for
	// secret names and for deduplication.
	ID() string
	// Descriptor returns everything needed to recreate the provider in another process.
	Descriptor() Descriptor
	Value(ctx context.Context) (string, error)
}

const (
	TypeGopass            = "gopass"
	TypeShellCommand      = "shell"
	TypeRandom            = "random"
	TypePlaintext         = "plaintext"
	TypeVault             = "vault"
	TypeAwsSecretsManager = "aws-secretsmanager"
	TypeGcpSecretManager  = "gcp-secretmanager"
	TypeAzureKeyVault     = "azure-keyvault"
)

type TrimPolicy struct {
	Left  bool `yaml:"left,omitempty"`
	Right bool `yaml:"right,omitempty"`
}

type Descriptor struct {
	Type   string            `yaml:"type" validate:"required"`
	Params map[string]string `yaml:"params,omitempty"`
	Trim   TrimPolicy        `yaml:"trim,omitempty"`
}

type valueFunc func(ctx context.Context) (string, error)

type baseProvider struct {
	id   string
	trim TrimPolicy

	mu       sync.Mutex
	resolved bool
	value    string
}

func (p *baseProvider) ID() string {
	return p.id
}

// String returns the id so that printing a provider never reveals its value.
func (p *baseProvider) String() string {
	return p.id
}

// resolve invokes fn only once successfully. Failed resolutions are not cached.
func (p *baseProvider) resolve(ctx context.Context, fn valueFunc) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.resolved {
		return p.value, nil
	}

	v, err := fn(ctx)
	if err != nil {
		var configErr *types.ConfigError
		if errors.As(err, &configErr) {
			return "", err
		}
		return "", &types.ProviderError{ProviderId: p.id, Err: err}
	}

	p.value = applyTrim(p.id, v, p.trim)
	p.resolved = true
	return p.value, nil
}

// applyTrim trims whitespace as requested by the policy. Whitespace which is not
// trimmed explicitly is preserved, but a warning is logged.
func applyTrim(id string, value string, trim TrimPolicy) string {
	if trim.Left {
		value = strings.TrimLeft(value, " \t\r\n")
	} else if value != strings.TrimLeft(value, " \t\r\n") {
		log.Warningf("Secret value of \"%s\" has leading whitespace", id)
	}
	if trim.Right {
		value = strings.TrimRight(value, " \t\r\n")
	} else if value != strings.TrimRight(value, " \t\r\n") {
		log.Warningf("Secret value of \"%s\" has trailing whitespace", id)
	}
	return value
}
