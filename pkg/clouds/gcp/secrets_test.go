package gcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestReadSecret(t *testing.T) {
	f := NewFakeClientFactory()
	f.Secrets["db-password"] = "s3cr3t"

	s, err := ReadSecret(context.TODO(), f, "projects/p/secrets/db-password")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", s)

	s, err = ReadSecret(context.TODO(), f, "projects/p/secrets/db-password/versions/3")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", s)

	assert.Equal(t, []string{
		"projects/p/secrets/db-password/versions/latest",
		"projects/p/secrets/db-password/versions/3",
	}, f.Requested)
}

func TestReadSecretErrors(t *testing.T) {
	f := NewFakeClientFactory()

	_, err := ReadSecret(context.TODO(), f, "db-password")
	assert.Error(t, err)
	assert.Empty(t, f.Requested)

	_, err = ReadSecret(context.TODO(), f, "projects/p/secrets/missing")
	assert.Equal(t, codes.NotFound, status.Code(err))
}
