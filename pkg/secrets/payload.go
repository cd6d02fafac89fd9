package secrets

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/awesome-it/adeploy/pkg/kubectl"
	"github.com/awesome-it/adeploy/pkg/secrets/providers"
	"github.com/awesome-it/adeploy/pkg/yaml"
	corev1 "k8s.io/api/core/v1"
)

const dryRunPlaceholder = "*****"

// Payload is the variant specific part of a Secret.
type Payload interface {
	Type() kubectl.SecretType

	// canonical returns the version 1 hash input. Providers are represented by their ids.
	canonical() map[string]interface{}
	// createArgs materializes the payload into kubectl arguments. Values go into
	// files created through tmp, never into the arguments themselves.
	createArgs(ctx context.Context, dryRun kubectl.DryRun, tmp *tmpFiles) ([]string, error)
	store(s *storedSecret)
}

type GenericPayload struct {
	Data map[string]providers.Provider
}

func (p *GenericPayload) Type() kubectl.SecretType {
	return kubectl.SecretTypeGeneric
}

func (p *GenericPayload) canonical() map[string]interface{} {
	data := map[string]interface{}{}
	for k, v := range p.Data {
		data[k] = v.ID()
	}
	return map[string]interface{}{
		"v":    1,
		"type": string(p.Type()),
		"data": data,
	}
}

func (p *GenericPayload) createArgs(ctx context.Context, dryRun kubectl.DryRun, tmp *tmpFiles) ([]string, error) {
	keys := make([]string, 0, len(p.Data))
	for k := range p.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		v, err := resolveValue(ctx, p.Data[k], dryRun)
		if err != nil {
			return nil, err
		}
		f, err := tmp.write(ctx, []byte(v))
		if err != nil {
			return nil, err
		}
		args = append(args, fmt.Sprintf("--from-file=%s=%s", k, f))
	}
	return args, nil
}

func (p *GenericPayload) store(s *storedSecret) {
	s.Data = map[string]providers.Descriptor{}
	for k, v := range p.Data {
		s.Data[k] = v.Descriptor()
	}
}

type TlsPayload struct {
	Cert providers.Provider
	Key  providers.Provider
}

func (p *TlsPayload) Type() kubectl.SecretType {
	return kubectl.SecretTypeTLS
}

func (p *TlsPayload) canonical() map[string]interface{} {
	return map[string]interface{}{
		"v":    1,
		"type": string(p.Type()),
		"cert": p.Cert.ID(),
		"key":  p.Key.ID(),
	}
}

func (p *TlsPayload) createArgs(ctx context.Context, dryRun kubectl.DryRun, tmp *tmpFiles) ([]string, error) {
	var cert, key []byte
	if dryRun != kubectl.DryRunNone {
		var err error
		cert, key, err = dummyCertificate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate dummy certificate: %w", err)
		}
	} else {
		c, err := p.Cert.Value(ctx)
		if err != nil {
			return nil, err
		}
		k, err := p.Key.Value(ctx)
		if err != nil {
			return nil, err
		}
		cert, key = []byte(c), []byte(k)
	}

	certFile, err := tmp.write(ctx, cert)
	if err != nil {
		return nil, err
	}
	keyFile, err := tmp.write(ctx, key)
	if err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("--cert=%s", certFile),
		fmt.Sprintf("--key=%s", keyFile),
	}, nil
}

func (p *TlsPayload) store(s *storedSecret) {
	s.Data = map[string]providers.Descriptor{
		"cert": p.Cert.Descriptor(),
		"key":  p.Key.Descriptor(),
	}
}

type DockerRegistryPayload struct {
	Server   string
	Username string
	Password providers.Provider
	Email    string
}

func (p *DockerRegistryPayload) Type() kubectl.SecretType {
	return kubectl.SecretTypeDockerRegistry
}

func (p *DockerRegistryPayload) canonical() map[string]interface{} {
	return map[string]interface{}{
		"v":        1,
		"type":     string(p.Type()),
		"server":   p.Server,
		"username": p.Username,
		"email":    p.Email,
		"password": p.Password.ID(),
	}
}

// createArgs passes the docker config as file so that the password does not
// show up in the process list.
func (p *DockerRegistryPayload) createArgs(ctx context.Context, dryRun kubectl.DryRun, tmp *tmpFiles) ([]string, error) {
	password, err := resolveValue(ctx, p.Password, dryRun)
	if err != nil {
		return nil, err
	}

	entry := map[string]interface{}{
		"username": p.Username,
		"password": password,
		"auth":     base64.StdEncoding.EncodeToString([]byte(p.Username + ":" + password)),
	}
	if p.Email != "" {
		entry["email"] = p.Email
	}
	dockerConfig := map[string]interface{}{
		"auths": map[string]interface{}{
			p.Server: entry,
		},
	}
	j, err := yaml.WriteJsonString(dockerConfig)
	if err != nil {
		return nil, err
	}
	f, err := tmp.write(ctx, []byte(j))
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("--from-file=%s=%s", corev1.DockerConfigJsonKey, f)}, nil
}

func (p *DockerRegistryPayload) store(s *storedSecret) {
	s.Fields = map[string]string{
		"server":   p.Server,
		"username": p.Username,
	}
	if p.Email != "" {
		s.Fields["email"] = p.Email
	}
	s.Data = map[string]providers.Descriptor{
		"password": p.Password.Descriptor(),
	}
}

// resolveValue returns a placeholder on dry-runs so that no provider is resolved.
func resolveValue(ctx context.Context, p providers.Provider, dryRun kubectl.DryRun) (string, error) {
	if dryRun != kubectl.DryRunNone {
		return dryRunPlaceholder, nil
	}
	return p.Value(ctx)
}
