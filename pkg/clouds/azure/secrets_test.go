package azure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecret(t *testing.T) {
	f := NewFakeClientFactory()
	f.Vaults["https://v.vault.azure.net"] = map[string]string{"db": "pw"}

	s, err := ReadSecret(context.TODO(), f, SecretRef{VaultUri: "https://v.vault.azure.net", Name: "db"})
	require.NoError(t, err)
	assert.Equal(t, "pw", s)

	_, err = ReadSecret(context.TODO(), f, SecretRef{VaultUri: "https://v.vault.azure.net", Name: "missing", Version: "2"})
	assert.ErrorContains(t, err, "SecretNotFound")
	assert.ErrorContains(t, err, "https://v.vault.azure.net/missing@2")

	_, err = ReadSecret(context.TODO(), f, SecretRef{VaultUri: "https://other.vault.azure.net", Name: "db"})
	assert.Error(t, err)
}
