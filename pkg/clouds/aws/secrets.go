package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretRef references a secret in AWS Secrets Manager. Profile and Region are
// optional, without a region Name must be an ARN.
type SecretRef struct {
	Name    string
	Profile string
	Region  string
}

func (r SecretRef) region() (string, error) {
	if r.Region != "" {
		return r.Region, nil
	}
	a, err := arn.Parse(r.Name)
	if err != nil {
		return "", fmt.Errorf("secret %s: without a region, the secret name must be an ARN", r.Name)
	}
	return a.Region, nil
}

func ReadSecret(ctx context.Context, cf ClientFactory, ref SecretRef) (string, error) {
	if ref.Name == "" {
		return "", fmt.Errorf("secret name must not be empty")
	}
	region, err := ref.region()
	if err != nil {
		return "", err
	}

	c, err := cf.SecretsManager(ctx, ref.Profile, region)
	if err != nil {
		return "", fmt.Errorf("failed to create secrets manager client for region %s: %w", region, err)
	}
	out, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &ref.Name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s from secrets manager: %w", ref.Name, err)
	}
	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	return string(out.SecretBinary), nil
}
