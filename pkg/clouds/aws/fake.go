package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// FakeClientFactory serves Secrets by name. ARNs are reduced to their name.
type FakeClientFactory struct {
	Secrets map[string]string

	// Regions records the region of every requested client.
	Regions []string
	Calls   int
}

func NewFakeClientFactory() *FakeClientFactory {
	return &FakeClientFactory{
		Secrets: map[string]string{},
	}
}

func (f *FakeClientFactory) SecretsManager(ctx context.Context, profile string, region string) (SecretsManagerClient, error) {
	f.Regions = append(f.Regions, region)
	return f, nil
}

func (f *FakeClientFactory) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.Calls++

	name := *params.SecretId
	if a, err := arn.Parse(name); err == nil {
		name = strings.TrimPrefix(a.Resource, "secret:")
	}
	s, ok := f.Secrets[name]
	if !ok {
		msg := fmt.Sprintf("secret %s not found", *params.SecretId)
		return nil, &types.ResourceNotFoundException{Message: &msg}
	}
	return &secretsmanager.GetSecretValueOutput{
		Name:         &name,
		SecretString: &s,
	}, nil
}
