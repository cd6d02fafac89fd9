package azure

import (
	"context"
	"fmt"
)

// SecretRef references a key vault secret. An empty Version means the latest one.
type SecretRef struct {
	VaultUri string
	Name     string
	Version  string
}

func (r SecretRef) String() string {
	s := r.VaultUri + "/" + r.Name
	if r.Version != "" {
		s += "@" + r.Version
	}
	return s
}

func ReadSecret(ctx context.Context, cf ClientFactory, ref SecretRef) (string, error) {
	c, err := cf.KeyVault(ref.VaultUri)
	if err != nil {
		return "", err
	}
	resp, err := c.GetSecret(ctx, ref.Name, ref.Version, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", ref, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %s has no value", ref)
	}
	return *resp.Value, nil
}
