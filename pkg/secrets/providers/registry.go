package providers

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/awesome-it/adeploy/pkg/clouds/aws"
	"github.com/awesome-it/adeploy/pkg/clouds/azure"
	"github.com/awesome-it/adeploy/pkg/clouds/gcp"
	"github.com/awesome-it/adeploy/pkg/clouds/vault"
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils/process"
)

// DuplicateProviderError is returned when a provider is constructed with an id
// that is already taken by a provider with different parameters.
type DuplicateProviderError struct {
	Id       string
	Existing Descriptor
	New      Descriptor
}

func (e *DuplicateProviderError) Error() string {
	return fmt.Sprintf("secret provider \"%s\" already exists with different parameters, reference the existing one instead of creating a new one", e.Id)
}

type Options struct {
	Executor    process.Executor
	GopassRepos []string

	Vault vault.ClientFactory
	Aws   aws.ClientFactory
	Gcp   gcp.ClientFactory
	Azure azure.ClientFactory
}

// Registry constructs providers and guarantees that there is only one provider per id.
type Registry struct {
	mu        sync.Mutex
	providers map[string]Provider

	executor process.Executor
	gopass   *gopassBackend
	vault    vault.ClientFactory
	aws      aws.ClientFactory
	gcp      gcp.ClientFactory
	azure    azure.ClientFactory
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		providers: map[string]Provider{},
		executor:  opts.Executor,
		vault:     opts.Vault,
		aws:       opts.Aws,
		gcp:       opts.Gcp,
		azure:     opts.Azure,
	}
	if r.executor == nil {
		r.executor = process.NewRealExecutor()
	}
	if r.vault == nil {
		r.vault = vault.NewClientFactory()
	}
	if r.aws == nil {
		r.aws = aws.NewClientFactory()
	}
	if r.gcp == nil {
		r.gcp = gcp.NewClientFactory()
	}
	if r.azure == nil {
		r.azure = azure.NewClientFactory()
	}
	r.gopass = newGopassBackend(r.executor, opts.GopassRepos)
	return r
}

// Register adds p to the registry. If a provider with the same id and equal
// parameters exists, the existing instance is returned so that resolved values are shared.
func (r *Registry) Register(p Provider) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.providers[p.ID()]
	if ok {
		if reflect.DeepEqual(existing.Descriptor(), p.Descriptor()) {
			return existing, nil
		}
		return nil, &DuplicateProviderError{
			Id:       p.ID(),
			Existing: existing.Descriptor(),
			New:      p.Descriptor(),
		}
	}
	r.providers[p.ID()] = p
	return p, nil
}

func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	return p, ok
}

// FromDescriptor recreates a provider from its persisted form.
func (r *Registry) FromDescriptor(d Descriptor) (Provider, error) {
	p := d.Params
	switch d.Type {
	case TypeGopass:
		return r.Gopass(p["path"], d.Trim)
	case TypeShellCommand:
		return r.ShellCommand(p["command"], d.Trim)
	case TypeRandom:
		length, err := strconv.Atoi(p["length"])
		if err != nil {
			return nil, &types.ConfigError{Err: fmt.Errorf("invalid random secret length '%s'", p["length"])}
		}
		return r.Random(p["name"], length)
	case TypePlaintext:
		return r.Plaintext(p["value"], d.Trim)
	case TypeVault:
		return r.Vault(vault.SecretRef{Server: p["server"], Path: p["path"], Key: p["key"]}, d.Trim)
	case TypeAwsSecretsManager:
		ref := aws.SecretRef{Name: p["secretName"], Profile: p["profile"], Region: p["region"]}
		return r.AwsSecretsManager(ref, p["key"], d.Trim)
	case TypeGcpSecretManager:
		return r.GcpSecretManager(p["name"], d.Trim)
	case TypeAzureKeyVault:
		return r.AzureKeyVault(azure.SecretRef{VaultUri: p["vaultUri"], Name: p["name"], Version: p["version"]}, d.Trim)
	}
	return nil, &types.ConfigError{Err: fmt.Errorf("unknown secret provider type '%s'", d.Type)}
}

func requireParam(kind string, name string, v string) error {
	if v == "" {
		return &types.ConfigError{Err: fmt.Errorf("%s secret provider requires a non-empty %s", kind, name)}
	}
	return nil
}
