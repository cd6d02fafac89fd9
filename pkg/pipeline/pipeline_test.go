package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/awesome-it/adeploy/pkg/kubectl"
	"github.com/awesome-it/adeploy/pkg/render"
	"github.com/awesome-it/adeploy/pkg/secrets/providers"
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/awesome-it/adeploy/pkg/utils/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deploymentTemplate = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  replicas: {{ .replicas }}
  template:
    spec:
      containers:
        - name: web
          image: nginx:{{ version "nginx" }}
          env:
            - name: PASSWORD
              valueFrom:
                secretKeyRef:
                  name: {{ create_secret (dict "password" (from_shell_command "echo secret")) }}
                  key: password
`

type testProject struct {
	opts     Options
	executor *process.FakeExecutor
}

func writeFile(t *testing.T, p string, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newTestProject(t *testing.T) *testProject {
	dir := t.TempDir()
	src := filepath.Join(dir, "app")
	writeFile(t, filepath.Join(src, "defaults.yml"), "replicas: 1\nversions:\n  nginx: \"1.25\"\n")
	writeFile(t, filepath.Join(src, "namespaces", "ns1", "prod.yml"), "replicas: 3\n")
	writeFile(t, filepath.Join(src, "templates", "deployment.yml"), deploymentTemplate)

	return &testProject{
		opts: Options{
			SourceDir:     src,
			BuildDir:      filepath.Join(dir, "build"),
			NamespacesDir: "namespaces",
			TemplatesDir:  "templates",
			DefaultsFile:  "defaults.yml",
		},
		executor: process.NewFakeExecutor().On("sh -c echo secret", "secret\n"),
	}
}

func (p *testProject) newContext(client kubectl.ClusterClient) *Context {
	return NewContext(providers.Options{Executor: p.executor}, client, render.Options{})
}

func testContext(t *testing.T) context.Context {
	return utils.WithTmpBaseDir(context.Background(), t.TempDir())
}

func storedSecretFiles(t *testing.T, buildDir string) []string {
	matches, err := filepath.Glob(filepath.Join(buildDir, "ns1", "app", "secrets", "prod", "*"))
	require.NoError(t, err)
	return matches
}

func TestRender(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := kubectl.NewFakeClient("https://cluster-a")

	require.NoError(t, p.newContext(client).Render(ctx, p.opts))

	b, err := os.ReadFile(filepath.Join(p.opts.BuildDir, "ns1", "app", "prod", "deployment.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "replicas: 3")
	assert.Contains(t, string(b), "image: nginx:1.25")
	assert.Regexp(t, `name: secret-[0-9a-f]{40}`, string(b))

	assert.Len(t, storedSecretFiles(t, p.opts.BuildDir), 1)
	// values are only resolved when deploying
	assert.Equal(t, 0, p.executor.CallCount("sh -c echo secret"))
	assert.Equal(t, 0, client.CreateCalls)
}

func TestRenderCleansStoredSecrets(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := kubectl.NewFakeClient("https://cluster-a")

	require.NoError(t, p.newContext(client).Render(ctx, p.opts))
	require.Len(t, storedSecretFiles(t, p.opts.BuildDir), 1)

	writeFile(t, filepath.Join(p.opts.SourceDir, "templates", "deployment.yml"), "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: cm\n")
	require.NoError(t, p.newContext(client).Render(ctx, p.opts))
	assert.Empty(t, storedSecretFiles(t, p.opts.BuildDir))
}

func TestRenderContinuesAfterFailure(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	writeFile(t, filepath.Join(p.opts.SourceDir, "namespaces", "ns2", "prod.yml"), "replicas: [")

	err := p.newContext(kubectl.NewFakeClient("https://cluster-a")).Render(ctx, p.opts)
	require.Error(t, err)
	var configErr *types.ConfigError
	assert.True(t, errors.As(err, &configErr))

	assert.FileExists(t, filepath.Join(p.opts.BuildDir, "ns1", "app", "prod", "deployment.yml"))
}

func TestRenderFilter(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	writeFile(t, filepath.Join(p.opts.SourceDir, "namespaces", "ns2", "prod.yml"), "replicas: 2\n")

	f, err := utils.NewGlobFilter([]string{"ns2"})
	require.NoError(t, err)
	p.opts.NamespaceFilter = f

	require.NoError(t, p.newContext(kubectl.NewFakeClient("https://cluster-a")).Render(ctx, p.opts))
	assert.NoDirExists(t, filepath.Join(p.opts.BuildDir, "ns1"))
	assert.FileExists(t, filepath.Join(p.opts.BuildDir, "ns2", "app", "prod", "deployment.yml"))
}

func TestDefaultsDirectory(t *testing.T) {
	p := newTestProject(t)
	writeFile(t, filepath.Join(p.opts.SourceDir, "defaults", "app.yaml"), "replicas: 1\n")

	p.opts.DefaultsFile = "defaults"
	assert.Equal(t, filepath.Join(p.opts.SourceDir, "defaults", "app.yaml"), p.opts.defaultsPath("app"))
	assert.Equal(t, "", p.opts.defaultsPath("other"))

	p.opts.DefaultsFile = "missing.yml"
	assert.Equal(t, "", p.opts.defaultsPath("app"))
}

func TestDeploy(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := kubectl.NewFakeClient("https://cluster-a")
	client.ApplyOutput = "deployment.apps/web created\n"

	require.NoError(t, p.newContext(client).Render(ctx, p.opts))

	// a fresh context like a separate adeploy invocation
	require.NoError(t, p.newContext(client).Deploy(ctx, p.opts))
	assert.Equal(t, 1, client.CreateCalls)
	assert.Equal(t, 1, p.executor.CallCount("sh -c echo secret"))
	assert.Equal(t, []string{filepath.Join(p.opts.BuildDir, "ns1", "app", "prod")}, client.Applied)
	assert.FileExists(t, filepath.Join(p.opts.BuildDir, "ns1", "app", "prod.last-cluster"))

	names, err := client.ListSecretNames(ctx, "ns1", types.DeploymentRef{Name: "app", Release: "prod", Namespace: "ns1"}.Labels())
	require.NoError(t, err)
	require.Len(t, names, 1)

	require.NoError(t, p.newContext(client).Deploy(ctx, p.opts))
	assert.Equal(t, 1, client.CreateCalls)
	assert.Equal(t, 1, p.executor.CallCount("sh -c echo secret"))
}

func TestDeployRecreateSecrets(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := kubectl.NewFakeClient("https://cluster-a")

	require.NoError(t, p.newContext(client).Render(ctx, p.opts))
	require.NoError(t, p.newContext(client).Deploy(ctx, p.opts))

	p.opts.RecreateSecrets = true
	require.NoError(t, p.newContext(client).Deploy(ctx, p.opts))
	assert.Equal(t, 2, client.CreateCalls)
	assert.Equal(t, 1, client.DeleteCalls)
}

func TestDeployOrphans(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := kubectl.NewFakeClient("https://cluster-a")
	ref := types.DeploymentRef{Name: "app", Release: "prod", Namespace: "ns1"}
	client.AddSecret("secret-old", "ns1", ref.Labels())
	client.AddSecret("unrelated", "ns1", map[string]string{"foo": "bar"})

	require.NoError(t, p.newContext(client).Render(ctx, p.opts))

	p.opts.DryRun = true
	require.NoError(t, p.newContext(client).Deploy(ctx, p.opts))
	assert.True(t, client.HasSecret("secret-old", "ns1"))

	p.opts.DryRun = false
	require.NoError(t, p.newContext(client).Deploy(ctx, p.opts))
	assert.False(t, client.HasSecret("secret-old", "ns1"))
	assert.True(t, client.HasSecret("unrelated", "ns1"))
}

func TestDeployWithoutStoredSecretsKeepsSecrets(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := kubectl.NewFakeClient("https://cluster-a")
	labels := types.DeploymentRef{Name: "app", Release: "prod", Namespace: "ns1"}.Labels()
	client.AddSecret("secret-inuse-1", "ns1", labels)
	client.AddSecret("secret-inuse-2", "ns1", labels)

	// deploy without a previous render, e.g. with a wrong build dir
	require.NoError(t, p.newContext(client).Deploy(ctx, p.opts))
	assert.Equal(t, 0, client.DeleteCalls)
	assert.True(t, client.HasSecret("secret-inuse-1", "ns1"))
	assert.True(t, client.HasSecret("secret-inuse-2", "ns1"))

	// a render without secrets does not remove them either
	writeFile(t, filepath.Join(p.opts.SourceDir, "templates", "deployment.yml"), "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: cm\n")
	require.NoError(t, p.newContext(client).Render(ctx, p.opts))
	require.NoError(t, p.newContext(client).Deploy(ctx, p.opts))
	assert.Equal(t, 0, client.DeleteCalls)
	assert.True(t, client.HasSecret("secret-inuse-1", "ns1"))
}

// orderClient records the order of cluster modifications.
type orderClient struct {
	*kubectl.FakeClient
	calls []string
}

func (c *orderClient) Apply(ctx context.Context, manifestPath string, opts kubectl.ApplyOptions) (string, error) {
	c.calls = append(c.calls, "apply")
	return c.FakeClient.Apply(ctx, manifestPath, opts)
}

func (c *orderClient) DeleteSecret(ctx context.Context, name string, namespace string) error {
	c.calls = append(c.calls, "delete "+name)
	return c.FakeClient.DeleteSecret(ctx, name, namespace)
}

func TestDeployDeletesOrphansAfterApply(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := &orderClient{FakeClient: kubectl.NewFakeClient("https://cluster-a")}
	client.AddSecret("secret-old", "ns1", types.DeploymentRef{Name: "app", Release: "prod", Namespace: "ns1"}.Labels())

	require.NoError(t, p.newContext(client).Render(ctx, p.opts))
	require.NoError(t, p.newContext(client).Deploy(ctx, p.opts))
	assert.Equal(t, []string{"apply", "delete secret-old"}, client.calls)
}

func TestDeployApplyFailureKeepsOrphans(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := kubectl.NewFakeClient("https://cluster-a")
	client.AddSecret("secret-old", "ns1", types.DeploymentRef{Name: "app", Release: "prod", Namespace: "ns1"}.Labels())
	client.ApplyErr = errors.New("apply failed")

	require.NoError(t, p.newContext(client).Render(ctx, p.opts))
	var deployErr *types.DeployError
	require.True(t, errors.As(p.newContext(client).Deploy(ctx, p.opts), &deployErr))
	assert.True(t, client.HasSecret("secret-old", "ns1"))
	assert.NoFileExists(t, filepath.Join(p.opts.BuildDir, "ns1", "app", "prod.last-cluster"))
}

func TestDeployClusterMismatch(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)

	require.NoError(t, p.newContext(kubectl.NewFakeClient("https://cluster-a")).Render(ctx, p.opts))
	require.NoError(t, p.newContext(kubectl.NewFakeClient("https://cluster-a")).Deploy(ctx, p.opts))

	other := kubectl.NewFakeClient("https://cluster-b")
	err := p.newContext(other).Deploy(ctx, p.opts)
	var mismatch *types.ClusterMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "https://cluster-a", mismatch.LastCluster)
	assert.Equal(t, 0, other.CreateCalls)
	assert.Empty(t, other.Applied)

	p.opts.ForceCluster = true
	require.NoError(t, p.newContext(other).Deploy(ctx, p.opts))
	assert.Equal(t, 1, other.CreateCalls)
}

func TestTest(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := kubectl.NewFakeClient("https://cluster-a")

	require.NoError(t, p.newContext(client).Render(ctx, p.opts))
	require.NoError(t, p.newContext(client).Test(ctx, p.opts))

	assert.Equal(t, 0, client.CreateCalls)
	assert.Empty(t, client.Applied)
	assert.Equal(t, []string{filepath.Join(p.opts.BuildDir, "ns1", "app", "prod")}, client.DryRunApplied)
	assert.Equal(t, 0, p.executor.CallCount("sh -c echo secret"))
}

func TestTestWithoutManifests(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	client := kubectl.NewFakeClient("https://cluster-a")

	require.NoError(t, p.newContext(client).Test(ctx, p.opts))
	assert.Empty(t, client.DryRunApplied)
}

func TestConfig(t *testing.T) {
	ctx := testContext(t)
	p := newTestProject(t)
	writeFile(t, filepath.Join(p.opts.SourceDir, "namespaces", "ns1", "staging.yml"), "replicas: 2\nversions:\n  nginx: \"1.26\"\n")

	cfg, err := p.newContext(kubectl.NewFakeClient("https://cluster-a")).Config(ctx, p.opts)
	require.NoError(t, err)
	require.Len(t, cfg, 2)

	prod := cfg["prod"].(map[string]interface{})
	assert.Equal(t, 3, prod["replicas"])
	assert.Equal(t, map[string]interface{}{"nginx": "1.25"}, prod["versions"])
	staging := cfg["staging"].(map[string]interface{})
	assert.Equal(t, 2, staging["replicas"])
	assert.Equal(t, map[string]interface{}{"nginx": "1.26"}, staging["versions"])

	// nothing is rendered
	assert.NoDirExists(t, p.opts.BuildDir)
}

func TestMissingSourceDir(t *testing.T) {
	p := newTestProject(t)
	p.opts.SourceDir = filepath.Join(t.TempDir(), "missing")
	err := p.newContext(kubectl.NewFakeClient("https://cluster-a")).Render(testContext(t), p.opts)
	var configErr *types.ConfigError
	assert.True(t, errors.As(err, &configErr))
}
