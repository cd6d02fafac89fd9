package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomPassword(t *testing.T) {
	_, err := RandomPassword(15)
	assert.Error(t, err)

	for i := 0; i < 50; i++ {
		s, err := RandomPassword(16)
		require.NoError(t, err)
		assert.Len(t, s, 16)
		assert.True(t, hasPasswordClasses(s), s)
	}

	a, _ := RandomPassword(32)
	b, _ := RandomPassword(32)
	assert.NotEqual(t, a, b)
}

func TestGlobFilter(t *testing.T) {
	f, err := NewGlobFilter(nil)
	require.NoError(t, err)
	assert.True(t, f.Match("anything"))

	f, err = NewGlobFilter([]string{"prod*", "stage"})
	require.NoError(t, err)
	assert.True(t, f.Match("prod-eu"))
	assert.True(t, f.Match("stage"))
	assert.False(t, f.Match("dev"))

	_, err = NewGlobFilter([]string{"[a"})
	assert.Error(t, err)
}

func TestSecureJoin(t *testing.T) {
	root := t.TempDir()
	p, err := SecureJoin(root, "ns", "../../etc", "passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), p)
}

func TestWriteTmpFile(t *testing.T) {
	ctx := WithTmpBaseDir(context.Background(), t.TempDir())
	p, cleanup, err := WriteTmpFile(ctx, "secret-*", []byte("value"))
	require.NoError(t, err)

	b, err := os.ReadFile(p)
	assert.NoError(t, err)
	assert.Equal(t, "value", string(b))

	st, err := os.Stat(p)
	assert.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
	dir, err := GetTmpBaseDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(p))

	cleanup()
	assert.NoFileExists(t, p)
}

func TestGetTmpBaseDirPerUser(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	ctx := WithTmpBaseDir(context.Background(), base)

	dir, err := GetTmpBaseDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, base, filepath.Dir(dir))

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), st.Mode().Perm())

	f := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(f, nil, 0o600))
	_, err = GetTmpBaseDir(WithTmpBaseDir(context.Background(), f))
	assert.Error(t, err)
}
