package process

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type FakeResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

type FakeCall struct {
	Name string
	Args []string
}

func (c FakeCall) String() string {
	return commandString(c.Name, c.Args)
}

// FakeExecutor returns canned responses. Responses are looked up by the full
// command line first and then by the command name alone.
type FakeExecutor struct {
	mu sync.Mutex

	Responses map[string]FakeResponse
	Handler   func(name string, args ...string) (FakeResponse, bool)
	Calls     []FakeCall
}

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		Responses: map[string]FakeResponse{},
	}
}

func (f *FakeExecutor) On(cmdline string, stdout string) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[cmdline] = FakeResponse{Stdout: []byte(stdout)}
	return f
}

func (f *FakeExecutor) OnError(cmdline string, exitCode int, stderr string) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[cmdline] = FakeResponse{
		Stderr: []byte(stderr),
		Err: &ExitError{
			Command:  cmdline,
			ExitCode: exitCode,
			Stderr:   stderr,
		},
	}
	return f
}

func (f *FakeExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, FakeCall{Name: name, Args: append([]string{}, args...)})

	if f.Handler != nil {
		if r, ok := f.Handler(name, args...); ok {
			return r.Stdout, r.Stderr, r.Err
		}
	}

	cmdline := commandString(name, args)
	if r, ok := f.Responses[cmdline]; ok {
		return r.Stdout, r.Stderr, r.Err
	}
	if r, ok := f.Responses[name]; ok {
		return r.Stdout, r.Stderr, r.Err
	}
	return nil, nil, &ExitError{
		Command:  cmdline,
		ExitCode: 127,
		Stderr:   fmt.Sprintf("%s: command not found", name),
	}
}

// CallCount returns how many calls started with the given command line prefix.
func (f *FakeExecutor) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c.String(), prefix) {
			n++
		}
	}
	return n
}
