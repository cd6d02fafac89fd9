package secrets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/awesome-it/adeploy/pkg/kubectl"
	"github.com/awesome-it/adeploy/pkg/secrets/providers"
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/awesome-it/adeploy/pkg/yaml"
)

const storedSecretVersion = 1

// storedSecret is the on-disk form of a Secret. It contains provider
// descriptors, never resolved values.
type storedSecret struct {
	Version    int                             `yaml:"version" validate:"required"`
	Type       kubectl.SecretType              `yaml:"type" validate:"required"`
	Name       string                          `yaml:"name" validate:"required"`
	Deployment types.DeploymentRef             `yaml:"deployment"`
	Fields     map[string]string               `yaml:"fields,omitempty"`
	Data       map[string]providers.Descriptor `yaml:"data,omitempty"`
}

// SecretsDir returns the directory holding the stored secrets of a deployment.
func SecretsDir(buildDir string, d types.DeploymentRef) (string, error) {
	return utils.SecureJoin(buildDir, d.Namespace, d.Name, "secrets", d.Release)
}

func (s *Secret) path(buildDir string) (string, error) {
	dir, err := SecretsDir(buildDir, s.Deployment)
	if err != nil {
		return "", err
	}
	return utils.SecureJoin(dir, s.Name)
}

// Store writes the secret below buildDir.
func (s *Secret) Store(buildDir string) error {
	p, err := s.path(buildDir)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(p), 0o700)
	if err != nil {
		return err
	}

	ss := storedSecret{
		Version:    storedSecretVersion,
		Type:       s.Payload.Type(),
		Name:       s.Name,
		Deployment: s.Deployment,
	}
	s.Payload.store(&ss)

	b, err := yaml.WriteYamlBytes(&ss)
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// loadSecret reads a stored secret and recreates its providers in pr.
func loadSecret(p string, pr *providers.Registry) (*Secret, error) {
	var ss storedSecret
	err := yaml.ReadYamlFile(p, &ss)
	if err != nil {
		return nil, &types.ConfigError{Path: p, Err: err}
	}
	if ss.Version != storedSecretVersion {
		return nil, &types.ConfigError{Path: p, Err: fmt.Errorf("unsupported stored secret version %d", ss.Version)}
	}
	if ss.Name != filepath.Base(p) {
		return nil, &types.ConfigError{Path: p, Err: fmt.Errorf("stored secret name %s does not match file name", ss.Name)}
	}

	provider := func(key string) (providers.Provider, error) {
		d, ok := ss.Data[key]
		if !ok {
			return nil, &types.ConfigError{Path: p, Err: fmt.Errorf("missing data key %s", key)}
		}
		return pr.FromDescriptor(d)
	}

	var payload Payload
	switch ss.Type {
	case kubectl.SecretTypeGeneric:
		gp := &GenericPayload{Data: map[string]providers.Provider{}}
		for k := range ss.Data {
			gp.Data[k], err = provider(k)
			if err != nil {
				return nil, err
			}
		}
		payload = gp
	case kubectl.SecretTypeTLS:
		tp := &TlsPayload{}
		tp.Cert, err = provider("cert")
		if err != nil {
			return nil, err
		}
		tp.Key, err = provider("key")
		if err != nil {
			return nil, err
		}
		payload = tp
	case kubectl.SecretTypeDockerRegistry:
		dp := &DockerRegistryPayload{
			Server:   ss.Fields["server"],
			Username: ss.Fields["username"],
			Email:    ss.Fields["email"],
		}
		dp.Password, err = provider("password")
		if err != nil {
			return nil, err
		}
		payload = dp
	default:
		return nil, &types.ConfigError{Path: p, Err: fmt.Errorf("unknown secret type %s", ss.Type)}
	}

	return &Secret{
		Deployment: ss.Deployment,
		Name:       ss.Name,
		Payload:    payload,
	}, nil
}
