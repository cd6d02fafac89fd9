package providers

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils/process"
	log "github.com/sirupsen/logrus"
)

const GopassReposEnv = "ADEPLOY_GOPASS_REPOS"

var (
	minGopassVersion = semver.MustParse("1.10.0")
	gopassVersionRe  = regexp.MustCompile(`^gopass ([^ ]*)`)
)

// ResolveGopassRepos returns the ordered list of repository prefixes to search.
// The store root always comes first, followed by the repos given on the command
// line or, if none were given, the comma separated repos from ADEPLOY_GOPASS_REPOS.
func ResolveGopassRepos(flagRepos []string) []string {
	repos := []string{""}
	extra := flagRepos
	if len(extra) == 0 {
		extra = strings.Split(os.Getenv(GopassReposEnv), ",")
	}
	for _, r := range extra {
		r = strings.TrimSpace(r)
		if r != "" {
			repos = append(repos, r)
		}
	}
	return repos
}

type gopassBackend struct {
	executor process.Executor
	repos    []string

	versionOnce sync.Once
	versionErr  error
}

func newGopassBackend(executor process.Executor, repos []string) *gopassBackend {
	if len(repos) == 0 || repos[0] != "" {
		repos = append([]string{""}, repos...)
	}
	return &gopassBackend{
		executor: executor,
		repos:    repos,
	}
}

func (b *gopassBackend) checkVersion(ctx context.Context) error {
	b.versionOnce.Do(func() {
		stdout, _, err := b.executor.Execute(ctx, "gopass", "version")
		if err != nil {
			// reported as a provider error, only unsupported versions are config errors
			b.versionErr = fmt.Errorf("failed to run gopass: %w", err)
			return
		}
		m := gopassVersionRe.FindStringSubmatch(strings.TrimSpace(string(stdout)))
		if m == nil {
			b.versionErr = &types.ConfigError{Err: fmt.Errorf("could not determine gopass version")}
			return
		}
		v, err := semver.NewVersion(m[1])
		if err != nil {
			b.versionErr = &types.ConfigError{Err: fmt.Errorf("could not parse gopass version %s: %w", m[1], err)}
			return
		}
		if v.LessThan(minGopassVersion) {
			b.versionErr = &types.ConfigError{Err: fmt.Errorf("found gopass version %s but version %s+ is required", v, minGopassVersion)}
		}
	})
	return b.versionErr
}

// read returns the password of the secret at p. Secrets with metadata need to be
// read via "gopass show", as "gopass cat" returns the raw document in that case.
func (b *gopassBackend) read(ctx context.Context, p string) (string, error) {
	stdout, _, err := b.executor.Execute(ctx, "gopass", "cat", p)
	if err != nil {
		return "", err
	}
	out := string(stdout)
	if strings.HasPrefix(out, "GOPASS-SECRET-1.0") {
		stdout, _, err = b.executor.Execute(ctx, "gopass", "show", p)
		if err != nil {
			return "", err
		}
		out = string(stdout)
	}
	if strings.HasPrefix(out, "Password: ") {
		stdout, _, err = b.executor.Execute(ctx, "gopass", "show", "-n", "--password", p)
		if err != nil {
			return "", err
		}
		out = string(stdout)
	}
	return out, nil
}

type Gopass struct {
	baseProvider
	path    string
	backend *gopassBackend
}

func (r *Registry) Gopass(secretPath string, trim TrimPolicy) (Provider, error) {
	if err := requireParam(TypeGopass, "path", secretPath); err != nil {
		return nil, err
	}
	return r.Register(&Gopass{
		baseProvider: baseProvider{id: "gopass:" + secretPath, trim: trim},
		path:         secretPath,
		backend:      r.gopass,
	})
}

func (p *Gopass) Descriptor() Descriptor {
	return Descriptor{
		Type:   TypeGopass,
		Params: map[string]string{"path": p.path},
		Trim:   p.trim,
	}
}

func (p *Gopass) Value(ctx context.Context) (string, error) {
	return p.resolve(ctx, p.fetch)
}

func (p *Gopass) fetch(ctx context.Context) (string, error) {
	err := p.backend.checkVersion(ctx)
	if err != nil {
		return "", err
	}

	var lastErr error
	for _, repo := range p.backend.repos {
		secretPath := path.Join(repo, p.path)
		log.Debugf("Looking up gopass secret %s", secretPath)
		out, err := p.backend.read(ctx, secretPath)
		if err != nil {
			lastErr = err
			continue
		}
		if strings.TrimSpace(out) != "" {
			return normalizeGopassOutput(out), nil
		}
	}

	err = fmt.Errorf("cannot find gopass secret %s in repos %v, did you specify a gopass repo?", p.path, p.backend.repos)
	if lastErr != nil {
		err = fmt.Errorf("%w: %v", err, lastErr)
	}
	return "", &types.ConfigError{Err: err}
}

// normalizeGopassOutput strips single line secrets on both sides and multi line
// secrets only at the beginning.
func normalizeGopassOutput(s string) string {
	if len(strings.Split(strings.TrimSpace(s), "\n")) <= 1 {
		return strings.TrimSpace(s)
	}
	return strings.TrimLeft(s, " \t\r\n")
}
