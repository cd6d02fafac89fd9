package kubectl

import (
	"context"

	"github.com/awesome-it/adeploy/pkg/utils/uo"
)

type DryRun string

const (
	DryRunNone   DryRun = ""
	DryRunClient DryRun = "client"
	DryRunServer DryRun = "server"
)

type SecretType string

const (
	SecretTypeGeneric        SecretType = "generic"
	SecretTypeTLS            SecretType = "tls"
	SecretTypeDockerRegistry SecretType = "docker-registry"
)

type ApplyOptions struct {
	Namespace  string
	DryRun     DryRun
	OutputJson bool
}

type CreateSecretRequest struct {
	Name       string
	Namespace  string
	Type       SecretType
	Args       []string
	Labels     map[string]string
	DryRun     DryRun
	OutputJson bool
}

type CreateSecretResult struct {
	// Manifest is the secret object as it was sent to the cluster, including labels.
	Manifest *uo.UnstructuredObject
	// Stdout is the output of the apply call.
	Stdout string
}

// ClusterClient is the interface to the cluster. All calls are blocking.
type ClusterClient interface {
	Apply(ctx context.Context, manifestPath string, opts ApplyOptions) (string, error)
	// GetSecret returns an error for which IsNotFound is true if the secret does not exist.
	GetSecret(ctx context.Context, name string, namespace string) (*uo.UnstructuredObject, error)
	DeleteSecret(ctx context.Context, name string, namespace string) error
	CreateSecret(ctx context.Context, req CreateSecretRequest) (*CreateSecretResult, error)
	// ListSecretNames returns the names of all secrets in namespace matching all labels.
	ListSecretNames(ctx context.Context, namespace string, labels map[string]string) ([]string, error)
	CurrentApiServerUrl(ctx context.Context) (string, error)
}
