package gcp

import (
	"context"
	"path"
	"strings"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FakeClientFactory serves Secrets by their short name. Project and version are ignored.
type FakeClientFactory struct {
	Secrets map[string]string

	// Requested holds the names of all accessed versions.
	Requested []string
}

func NewFakeClientFactory() *FakeClientFactory {
	return &FakeClientFactory{
		Secrets: map[string]string{},
	}
}

func (f *FakeClientFactory) SecretManager(ctx context.Context) (SecretManagerClient, error) {
	return f, nil
}

func (f *FakeClientFactory) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.Requested = append(f.Requested, req.Name)

	secret, _, _ := strings.Cut(req.Name, "/versions/")
	v, ok := f.Secrets[path.Base(secret)]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "secret %s not found", req.Name)
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    req.Name,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(v)},
	}, nil
}
