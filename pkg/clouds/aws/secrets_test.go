package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecret(t *testing.T) {
	f := NewFakeClientFactory()
	f.Secrets["db"] = "pw"

	s, err := ReadSecret(context.TODO(), f, SecretRef{Name: "db", Profile: "p", Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, "pw", s)

	s, err = ReadSecret(context.TODO(), f, SecretRef{Name: "arn:aws:secretsmanager:eu-central-1:000000000000:secret:db"})
	require.NoError(t, err)
	assert.Equal(t, "pw", s)
	assert.Equal(t, []string{"eu-west-1", "eu-central-1"}, f.Regions)
}

func TestReadSecretErrors(t *testing.T) {
	f := NewFakeClientFactory()

	_, err := ReadSecret(context.TODO(), f, SecretRef{Region: "eu-west-1"})
	assert.Error(t, err)

	_, err = ReadSecret(context.TODO(), f, SecretRef{Name: "db"})
	assert.ErrorContains(t, err, "must be an ARN")
	assert.Equal(t, 0, f.Calls)

	_, err = ReadSecret(context.TODO(), f, SecretRef{Name: "missing", Region: "eu-west-1"})
	var notFound *types.ResourceNotFoundException
	assert.True(t, errors.As(err, &notFound))
}
