package providers

import (
	"context"
	"fmt"

	"github.com/awesome-it/adeploy/pkg/utils/process"
	log "github.com/sirupsen/logrus"
)

type ShellCommand struct {
	baseProvider
	command  string
	executor process.Executor
}

func (r *Registry) ShellCommand(command string, trim TrimPolicy) (Provider, error) {
	if err := requireParam(TypeShellCommand, "command", command); err != nil {
		return nil, err
	}
	return r.Register(&ShellCommand{
		baseProvider: baseProvider{id: "shell:" + command, trim: trim},
		command:      command,
		executor:     r.executor,
	})
}

func (p *ShellCommand) Descriptor() Descriptor {
	return Descriptor{
		Type:   TypeShellCommand,
		Params: map[string]string{"command": p.command},
		Trim:   p.trim,
	}
}

func (p *ShellCommand) Value(ctx context.Context) (string, error) {
	return p.resolve(ctx, func(ctx context.Context) (string, error) {
		log.Debugf("Executing command \"%s\"", p.command)
		stdout, _, err := p.executor.Execute(ctx, "sh", "-c", p.command)
		if err != nil {
			return "", err
		}
		if len(stdout) == 0 {
			return "", fmt.Errorf("command \"%s\" returned an empty result", p.command)
		}
		return string(stdout), nil
	})
}
