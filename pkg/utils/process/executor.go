package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Executor runs external commands. All interaction with kubectl, gopass and
// shell commands goes through it so that it can be replaced in tests.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// ExitError is returned when a command ran but exited with a non-zero code.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	s := fmt.Sprintf("command '%s' failed with exit code %d", e.Command, e.ExitCode)
	if e.Stderr != "" {
		s += ": " + strings.TrimSpace(e.Stderr)
	}
	return s
}

type RealExecutor struct {
}

func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

// Execute runs the command in its own process group. When ctx is cancelled,
// the whole group is terminated.
func (e *RealExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.Command(name, args...)
	newProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Tracef("executing %s", commandString(name, args))

	err := cmd.Start()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = terminateGroup(cmd.Process)
		<-done
		return stdout.Bytes(), stderr.Bytes(), ctx.Err()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), stderr.Bytes(), &ExitError{
				Command:  commandString(name, args),
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return stdout.Bytes(), stderr.Bytes(), err
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

func commandString(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
