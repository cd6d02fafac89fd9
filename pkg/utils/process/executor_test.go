//go:build !windows

package process

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealExecutor(t *testing.T) {
	e := NewRealExecutor()

	stdout, _, err := e.Execute(context.Background(), "sh", "-c", "echo secret")
	assert.NoError(t, err)
	assert.Equal(t, "secret\n", string(stdout))

	_, _, err = e.Execute(context.Background(), "sh", "-c", "echo fail >&2; exit 3")
	var exitErr *ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "fail\n", exitErr.Stderr)
}

func TestRealExecutorCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := NewRealExecutor().Execute(ctx, "sh", "-c", "sleep 10")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFakeExecutor(t *testing.T) {
	f := NewFakeExecutor().
		On("gopass version", "gopass 1.15.0").
		OnError("gopass cat missing", 1, "not found")

	stdout, _, err := f.Execute(context.Background(), "gopass", "version")
	assert.NoError(t, err)
	assert.Equal(t, "gopass 1.15.0", string(stdout))

	_, _, err = f.Execute(context.Background(), "gopass", "cat", "missing")
	assert.Error(t, err)

	_, _, err = f.Execute(context.Background(), "unknown")
	assert.Error(t, err)

	assert.Equal(t, 2, f.CallCount("gopass"))
}
