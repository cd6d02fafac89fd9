package vault

import (
	"context"
	"fmt"
)

type SecretRef struct {
	Server string
	Path   string
	Key    string
}

// ReadSecret reads a single string key. Secrets of a KV v2 engine are unwrapped
// from their "data" envelope.
func ReadSecret(ctx context.Context, cf ClientFactory, ref SecretRef) (string, error) {
	c, err := cf.Logical(ref.Server)
	if err != nil {
		return "", err
	}
	secret, err := c.ReadWithContext(ctx, ref.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s from vault %s: %w", ref.Path, ref.Server, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret %s not found in vault %s", ref.Path, ref.Server)
	}

	data := secret.Data
	if inner, ok := data["data"].(map[string]interface{}); ok {
		data = inner
	}
	switch v := data[ref.Key].(type) {
	case string:
		return v, nil
	case nil:
		return "", fmt.Errorf("secret %s has no key %s", ref.Path, ref.Key)
	default:
		return "", fmt.Errorf("key %s of secret %s is a %T, expected a string", ref.Key, ref.Path, v)
	}
}
