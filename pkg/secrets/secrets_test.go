package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awesome-it/adeploy/pkg/kubectl"
	"github.com/awesome-it/adeploy/pkg/secrets/providers"
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/awesome-it/adeploy/pkg/utils/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

var testDeployment = types.DeploymentRef{Name: "app", Release: "prod", Namespace: "ns"}

func testContext(t *testing.T) context.Context {
	return utils.WithTmpBaseDir(context.Background(), t.TempDir())
}

func newProviders(e *process.FakeExecutor, repos ...string) *providers.Registry {
	return providers.NewRegistry(providers.Options{
		Executor:    e,
		GopassRepos: repos,
	})
}

func newGenericSecret(t *testing.T, pr *providers.Registry, command string) *Secret {
	p, err := pr.ShellCommand(command, providers.TrimPolicy{Right: true})
	require.NoError(t, err)
	s, err := NewSecret(testDeployment, "", &GenericPayload{Data: map[string]providers.Provider{"password": p}})
	require.NoError(t, err)
	return s
}

func TestDeployTwiceCreatesOnce(t *testing.T) {
	ctx := testContext(t)
	e := process.NewFakeExecutor().On("sh -c echo secret", "secret\n")
	client := kubectl.NewFakeClient("https://cluster")

	s := newGenericSecret(t, newProviders(e), "echo secret")

	require.NoError(t, s.Deploy(ctx, client, false))
	require.NoError(t, s.Deploy(ctx, client, false))

	assert.Equal(t, 1, client.CreateCalls)
	assert.Equal(t, 0, client.DeleteCalls)
	assert.Equal(t, 1, e.CallCount("sh -c echo secret"))
	assert.True(t, client.HasSecret(s.Name, "ns"))
}

func TestDeployRecreate(t *testing.T) {
	ctx := testContext(t)
	e := process.NewFakeExecutor().On("sh -c echo secret", "secret\n")
	client := kubectl.NewFakeClient("https://cluster")

	s := newGenericSecret(t, newProviders(e), "echo secret")

	require.NoError(t, s.Deploy(ctx, client, false))
	require.NoError(t, s.Deploy(ctx, client, true))

	assert.Equal(t, 2, client.CreateCalls)
	assert.Equal(t, 1, client.DeleteCalls)
	// the value is memoized by the provider
	assert.Equal(t, 1, e.CallCount("sh -c echo secret"))
}

func TestDeployProviderError(t *testing.T) {
	ctx := testContext(t)
	e := process.NewFakeExecutor().OnError("sh -c false", 1, "")
	client := kubectl.NewFakeClient("https://cluster")

	s := newGenericSecret(t, newProviders(e), "false")

	err := s.Deploy(ctx, client, false)
	var deployErr *types.DeployError
	var providerErr *types.ProviderError
	assert.True(t, errors.As(err, &deployErr))
	assert.True(t, errors.As(err, &providerErr))
	assert.Equal(t, 0, client.CreateCalls)
}

func TestTestDoesNotResolveValues(t *testing.T) {
	ctx := testContext(t)
	e := process.NewFakeExecutor()
	client := kubectl.NewFakeClient("https://cluster")

	s := newGenericSecret(t, newProviders(e), "echo secret")

	require.NoError(t, s.Test(ctx, client))
	assert.Empty(t, e.Calls)
	assert.Equal(t, 0, client.CreateCalls)
	assert.False(t, client.HasSecret(s.Name, "ns"))
}

func TestTestExistingSecret(t *testing.T) {
	ctx := testContext(t)
	client := kubectl.NewFakeClient("https://cluster")
	s := newGenericSecret(t, newProviders(process.NewFakeExecutor()), "echo secret")
	client.AddSecret(s.Name, "ns", testDeployment.Labels())

	require.NoError(t, s.Test(ctx, client))
	assert.Equal(t, 0, client.CreateCalls)
}

func TestNameDeterminism(t *testing.T) {
	pr1 := newProviders(process.NewFakeExecutor().On("sh -c echo secret", "secret"))
	pr2 := newProviders(process.NewFakeExecutor())

	s1 := newGenericSecret(t, pr1, "echo secret")
	s2 := newGenericSecret(t, pr2, "echo secret")
	assert.Equal(t, s1.Name, s2.Name)
	assert.True(t, strings.HasPrefix(s1.Name, "secret-"))
	assert.Len(t, s1.Name, len("secret-")+40)

	// resolving the value does not change the name
	_, err := s1.Payload.(*GenericPayload).Data["password"].Value(context.Background())
	require.NoError(t, err)
	name, err := GenName(s1.Payload)
	require.NoError(t, err)
	assert.Equal(t, s2.Name, name)

	s3 := newGenericSecret(t, pr2, "echo other")
	assert.NotEqual(t, s1.Name, s3.Name)
}

func TestNameIndependentOfGopassRepo(t *testing.T) {
	gen := func(repos ...string) string {
		pr := newProviders(process.NewFakeExecutor(), repos...)
		p, err := pr.Gopass("db/password", providers.TrimPolicy{})
		require.NoError(t, err)
		name, err := GenName(&GenericPayload{Data: map[string]providers.Provider{"password": p}})
		require.NoError(t, err)
		return name
	}
	assert.Equal(t, gen("team-a"), gen("team-b"))
}

func TestNameVariants(t *testing.T) {
	pr := newProviders(process.NewFakeExecutor())
	cert, _ := pr.ShellCommand("cat tls.crt", providers.TrimPolicy{})
	key, _ := pr.ShellCommand("cat tls.key", providers.TrimPolicy{})
	password, _ := pr.Plaintext("secret", providers.TrimPolicy{})

	tlsName, err := GenName(&TlsPayload{Cert: cert, Key: key})
	require.NoError(t, err)
	swapped, err := GenName(&TlsPayload{Cert: key, Key: cert})
	require.NoError(t, err)
	assert.NotEqual(t, tlsName, swapped)

	d1, err := GenName(&DockerRegistryPayload{Server: "registry.example.com", Username: "u", Password: password})
	require.NoError(t, err)
	d2, err := GenName(&DockerRegistryPayload{Server: "registry.example.com", Username: "u", Password: password, Email: "a@b.c"})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)

	s, err := NewSecret(testDeployment, "my-secret", &TlsPayload{Cert: cert, Key: key})
	require.NoError(t, err)
	assert.Equal(t, "my-secret", s.Name)
}

func TestRegistryDedup(t *testing.T) {
	pr := newProviders(process.NewFakeExecutor())
	r := NewRegistry()

	s1 := newGenericSecret(t, pr, "echo secret")
	s2 := newGenericSecret(t, pr, "echo secret")
	assert.True(t, r.Register(s1))
	assert.False(t, r.Register(s2))

	other := *s1
	other.Deployment.Release = "test"
	assert.True(t, r.Register(&other))

	assert.Len(t, r.Secrets(), 2)
	assert.Len(t, r.ForDeployment(testDeployment), 1)
}

func TestStoreAndLoad(t *testing.T) {
	buildDir := t.TempDir()
	pr := newProviders(process.NewFakeExecutor().On("sh -c echo secret", "resolved-value"))
	r := NewRegistry()

	generic := newGenericSecret(t, pr, "echo secret")
	_, err := generic.Payload.(*GenericPayload).Data["password"].Value(context.Background())
	require.NoError(t, err)
	r.Register(generic)

	cert, _ := pr.Gopass("certs/tls.crt", providers.TrimPolicy{})
	key, _ := pr.Gopass("certs/tls.key", providers.TrimPolicy{})
	tls, err := NewSecret(testDeployment, "tls", &TlsPayload{Cert: cert, Key: key})
	require.NoError(t, err)
	r.Register(tls)

	password, _ := pr.Random("registry", 20)
	docker, err := NewSecret(types.DeploymentRef{Name: "app", Release: "test", Namespace: "ns"}, "",
		&DockerRegistryPayload{Server: "registry.example.com", Username: "u", Password: password, Email: "a@b.c"})
	require.NoError(t, err)
	r.Register(docker)

	require.NoError(t, r.Store(buildDir))

	p := filepath.Join(buildDir, "ns", "app", "secrets", "prod", generic.Name)
	assert.FileExists(t, p)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "resolved-value")

	pr2 := newProviders(process.NewFakeExecutor())
	loaded, err := LoadStored(buildDir, "app", pr2)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	byName := map[string]*Secret{}
	for _, s := range loaded {
		byName[s.Name] = s
	}
	require.Contains(t, byName, generic.Name)
	require.Contains(t, byName, "tls")
	require.Contains(t, byName, docker.Name)

	assert.Equal(t, testDeployment, byName[generic.Name].Deployment)
	assert.Equal(t, "shell:echo secret", byName[generic.Name].Payload.(*GenericPayload).Data["password"].ID())
	assert.Equal(t, "gopass:certs/tls.key", byName["tls"].Payload.(*TlsPayload).Key.ID())

	dp := byName[docker.Name].Payload.(*DockerRegistryPayload)
	assert.Equal(t, "registry.example.com", dp.Server)
	assert.Equal(t, "a@b.c", dp.Email)

	// names derived again from the loaded payloads are unchanged
	for _, s := range loaded {
		if s.Name == "tls" {
			continue
		}
		name, err := GenName(s.Payload)
		require.NoError(t, err)
		assert.Equal(t, s.Name, name)
	}

	prod, err := LoadStoredForDeployment(buildDir, testDeployment, newProviders(process.NewFakeExecutor()))
	require.NoError(t, err)
	assert.Len(t, prod, 2)

	require.NoError(t, CleanBuildSecrets(buildDir, testDeployment))
	loaded, err = LoadStored(buildDir, "app", newProviders(process.NewFakeExecutor()))
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestLoadInvalid(t *testing.T) {
	buildDir := t.TempDir()
	dir := filepath.Join(buildDir, "ns", "app", "secrets", "prod")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte("version: 1\ntype: unknown\nname: x\ndeployment: {name: app, release: prod, namespace: ns}\n"), 0o600))

	_, err := LoadStored(buildDir, "app", newProviders(process.NewFakeExecutor()))
	var configErr *types.ConfigError
	assert.True(t, errors.As(err, &configErr))
}

func TestCleanAllOrphans(t *testing.T) {
	ctx := context.Background()
	client := kubectl.NewFakeClient("https://cluster")
	for _, n := range []string{"A", "B", "C"} {
		client.AddSecret(n, "ns", testDeployment.Labels())
	}
	otherDeployment := types.DeploymentRef{Name: "other", Release: "prod", Namespace: "ns"}
	client.AddSecret("D", "ns", otherDeployment.Labels())

	var current []*Secret
	for _, n := range []string{"A", "C"} {
		current = append(current, &Secret{Deployment: testDeployment, Name: n})
	}

	orphans, err := CleanAll(ctx, current, client, true)
	require.NoError(t, err)
	assert.Equal(t, []Orphan{{Deployment: testDeployment, Name: "B"}}, orphans)
	assert.Equal(t, 0, client.DeleteCalls)

	orphans, err = CleanAll(ctx, current, client, false)
	require.NoError(t, err)
	assert.Equal(t, []Orphan{{Deployment: testDeployment, Name: "B"}}, orphans)
	assert.Equal(t, 1, client.DeleteCalls)
	assert.True(t, client.HasSecret("A", "ns"))
	assert.False(t, client.HasSecret("B", "ns"))
	assert.True(t, client.HasSecret("C", "ns"))
	assert.True(t, client.HasSecret("D", "ns"))
}

func TestDockerRegistryArgs(t *testing.T) {
	ctx := testContext(t)
	pr := newProviders(process.NewFakeExecutor())
	password, _ := pr.Plaintext("pw", providers.TrimPolicy{})
	p := &DockerRegistryPayload{Server: "registry.example.com", Username: "user", Password: password}

	tmp := &tmpFiles{}
	defer tmp.cleanup()
	args, err := p.createArgs(ctx, kubectl.DryRunNone, tmp)
	require.NoError(t, err)
	require.Len(t, args, 1)

	prefix := "--from-file=" + corev1.DockerConfigJsonKey + "="
	require.True(t, strings.HasPrefix(args[0], prefix))
	b, err := os.ReadFile(strings.TrimPrefix(args[0], prefix))
	require.NoError(t, err)

	var config map[string]map[string]map[string]string
	require.NoError(t, json.Unmarshal(b, &config))
	entry := config["auths"]["registry.example.com"]
	assert.Equal(t, "user", entry["username"])
	assert.Equal(t, "pw", entry["password"])
	assert.Equal(t, "dXNlcjpwdw==", entry["auth"])
	_, hasEmail := entry["email"]
	assert.False(t, hasEmail)

	args, err = p.createArgs(ctx, kubectl.DryRunClient, tmp)
	require.NoError(t, err)
	b, err = os.ReadFile(strings.TrimPrefix(args[0], prefix))
	require.NoError(t, err)
	assert.Contains(t, string(b), dryRunPlaceholder)
	assert.NotContains(t, string(b), "\"pw\"")
}

func TestTlsDryRunUsesDummyCertificate(t *testing.T) {
	ctx := testContext(t)
	e := process.NewFakeExecutor()
	pr := newProviders(e)
	cert, _ := pr.ShellCommand("cat tls.crt", providers.TrimPolicy{})
	key, _ := pr.ShellCommand("cat tls.key", providers.TrimPolicy{})
	p := &TlsPayload{Cert: cert, Key: key}

	tmp := &tmpFiles{}
	args, err := p.createArgs(ctx, kubectl.DryRunServer, tmp)
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Empty(t, e.Calls)

	b, err := os.ReadFile(strings.TrimPrefix(args[0], "--cert="))
	require.NoError(t, err)
	assert.Contains(t, string(b), "BEGIN CERTIFICATE")

	tmp.cleanup()
	assert.NoFileExists(t, strings.TrimPrefix(args[0], "--cert="))
}
