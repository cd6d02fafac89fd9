package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// versionName completes "projects/<p>/secrets/<s>" to its latest version.
func versionName(name string) (string, error) {
	if !strings.HasPrefix(name, "projects/") {
		return "", fmt.Errorf("invalid secret name %s, expected projects/<project>/secrets/<secret>[/versions/<version>]", name)
	}
	if strings.Contains(name, "/versions/") {
		return name, nil
	}
	return name + "/versions/latest", nil
}

func ReadSecret(ctx context.Context, cf ClientFactory, name string) (string, error) {
	version, err := versionName(name)
	if err != nil {
		return "", err
	}
	c, err := cf.SecretManager(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create secret manager client: %w", err)
	}
	resp, err := c.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: version,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access %s: %w", version, err)
	}
	return string(resp.GetPayload().GetData()), nil
}
