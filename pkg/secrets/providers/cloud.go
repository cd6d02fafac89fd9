package providers

import (
	"context"
	"fmt"

	"github.com/awesome-it/adeploy/pkg/clouds/aws"
	"github.com/awesome-it/adeploy/pkg/clouds/azure"
	"github.com/awesome-it/adeploy/pkg/clouds/gcp"
	"github.com/awesome-it/adeploy/pkg/clouds/vault"
	"github.com/awesome-it/adeploy/pkg/utils/uo"
)

type Vault struct {
	baseProvider
	ref vault.SecretRef
	cf  vault.ClientFactory
}

func (r *Registry) Vault(ref vault.SecretRef, trim TrimPolicy) (Provider, error) {
	for n, v := range map[string]string{"server": ref.Server, "path": ref.Path, "key": ref.Key} {
		if err := requireParam(TypeVault, n, v); err != nil {
			return nil, err
		}
	}
	return r.Register(&Vault{
		baseProvider: baseProvider{id: fmt.Sprintf("%s:%s/%s#%s", TypeVault, ref.Server, ref.Path, ref.Key), trim: trim},
		ref:          ref,
		cf:           r.vault,
	})
}

func (p *Vault) Descriptor() Descriptor {
	return Descriptor{
		Type:   TypeVault,
		Params: map[string]string{"server": p.ref.Server, "path": p.ref.Path, "key": p.ref.Key},
		Trim:   p.trim,
	}
}

func (p *Vault) Value(ctx context.Context) (string, error) {
	return p.resolve(ctx, func(ctx context.Context) (string, error) {
		return vault.ReadSecret(ctx, p.cf, p.ref)
	})
}

type AwsSecretsManager struct {
	baseProvider
	ref aws.SecretRef
	key string
	cf  aws.ClientFactory
}

// AwsSecretsManager references a secret in AWS Secrets Manager. If key is set,
// the secret must be a JSON object and the value of key is returned.
func (r *Registry) AwsSecretsManager(ref aws.SecretRef, key string, trim TrimPolicy) (Provider, error) {
	if err := requireParam(TypeAwsSecretsManager, "secretName", ref.Name); err != nil {
		return nil, err
	}
	id := TypeAwsSecretsManager + ":"
	if ref.Region != "" {
		id += ref.Region + ":"
	}
	id += ref.Name
	if key != "" {
		id += "#" + key
	}
	return r.Register(&AwsSecretsManager{
		baseProvider: baseProvider{id: id, trim: trim},
		ref:          ref,
		key:          key,
		cf:           r.aws,
	})
}

func (p *AwsSecretsManager) Descriptor() Descriptor {
	params := map[string]string{"secretName": p.ref.Name}
	for k, v := range map[string]string{"profile": p.ref.Profile, "region": p.ref.Region, "key": p.key} {
		if v != "" {
			params[k] = v
		}
	}
	return Descriptor{
		Type:   TypeAwsSecretsManager,
		Params: params,
		Trim:   p.trim,
	}
}

func (p *AwsSecretsManager) Value(ctx context.Context) (string, error) {
	return p.resolve(ctx, func(ctx context.Context) (string, error) {
		s, err := aws.ReadSecret(ctx, p.cf, p.ref)
		if err != nil {
			return "", err
		}
		if p.key == "" {
			return s, nil
		}
		return extractKey(s, p.key)
	})
}

func extractKey(doc string, key string) (string, error) {
	o, err := uo.FromString(doc)
	if err != nil {
		return "", fmt.Errorf("secret is not a JSON object: %w", err)
	}
	v, found, err := o.GetNestedString(key)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("secret has no key %s", key)
	}
	return v, nil
}

type GcpSecretManager struct {
	baseProvider
	name string
	cf   gcp.ClientFactory
}

func (r *Registry) GcpSecretManager(name string, trim TrimPolicy) (Provider, error) {
	if err := requireParam(TypeGcpSecretManager, "name", name); err != nil {
		return nil, err
	}
	return r.Register(&GcpSecretManager{
		baseProvider: baseProvider{id: TypeGcpSecretManager + ":" + name, trim: trim},
		name:         name,
		cf:           r.gcp,
	})
}

func (p *GcpSecretManager) Descriptor() Descriptor {
	return Descriptor{
		Type:   TypeGcpSecretManager,
		Params: map[string]string{"name": p.name},
		Trim:   p.trim,
	}
}

func (p *GcpSecretManager) Value(ctx context.Context) (string, error) {
	return p.resolve(ctx, func(ctx context.Context) (string, error) {
		return gcp.ReadSecret(ctx, p.cf, p.name)
	})
}

type AzureKeyVault struct {
	baseProvider
	ref azure.SecretRef
	cf  azure.ClientFactory
}

func (r *Registry) AzureKeyVault(ref azure.SecretRef, trim TrimPolicy) (Provider, error) {
	if err := requireParam(TypeAzureKeyVault, "vaultUri", ref.VaultUri); err != nil {
		return nil, err
	}
	if err := requireParam(TypeAzureKeyVault, "name", ref.Name); err != nil {
		return nil, err
	}
	return r.Register(&AzureKeyVault{
		baseProvider: baseProvider{id: TypeAzureKeyVault + ":" + ref.String(), trim: trim},
		ref:          ref,
		cf:           r.azure,
	})
}

func (p *AzureKeyVault) Descriptor() Descriptor {
	params := map[string]string{"vaultUri": p.ref.VaultUri, "name": p.ref.Name}
	if p.ref.Version != "" {
		params["version"] = p.ref.Version
	}
	return Descriptor{
		Type:   TypeAzureKeyVault,
		Params: params,
		Trim:   p.trim,
	}
}

func (p *AzureKeyVault) Value(ctx context.Context) (string, error) {
	return p.resolve(ctx, func(ctx context.Context) (string, error) {
		return azure.ReadSecret(ctx, p.cf, p.ref)
	})
}
