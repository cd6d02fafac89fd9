package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awesome-it/adeploy/pkg/deployment"
	"github.com/awesome-it/adeploy/pkg/kubectl"
	"github.com/awesome-it/adeploy/pkg/render"
	"github.com/awesome-it/adeploy/pkg/secrets"
	"github.com/awesome-it/adeploy/pkg/secrets/providers"
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/awesome-it/adeploy/pkg/utils/uo"
	"github.com/awesome-it/adeploy/pkg/yaml"
	log "github.com/sirupsen/logrus"
)

// Context holds everything a single pipeline run shares between deployments.
// A new context must be created for every run.
type Context struct {
	Providers *providers.Registry
	Secrets   *secrets.Registry
	Client    kubectl.ClusterClient
	Renderer  *render.Renderer
}

func NewContext(providerOpts providers.Options, client kubectl.ClusterClient, renderOpts render.Options) *Context {
	pr := providers.NewRegistry(providerOpts)
	sr := secrets.NewRegistry()
	return &Context{
		Providers: pr,
		Secrets:   sr,
		Client:    client,
		Renderer:  render.NewRenderer(pr, sr, renderOpts),
	}
}

type Options struct {
	SourceDir string
	BuildDir  string

	// NamespacesDir, TemplatesDir and DefaultsFile are relative to SourceDir unless absolute.
	NamespacesDir string
	TemplatesDir  string
	DefaultsFile  string

	// Name defaults to the base name of SourceDir.
	Name string

	NamespaceFilter *utils.GlobFilter
	ReleaseFilter   *utils.GlobFilter

	RecreateSecrets bool
	ForceCluster    bool
	// DryRun only reports orphaned secrets instead of deleting them.
	DryRun bool
}

func (o *Options) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.SourceDir, p)
}

func (o *Options) name() (string, error) {
	if o.Name != "" {
		return o.Name, nil
	}
	abs, err := filepath.Abs(o.SourceDir)
	if err != nil {
		return "", err
	}
	return filepath.Base(abs), nil
}

// defaultsPath returns the defaults file to use or "" if there is none. If the
// configured path is a directory, <dir>/<name>.yml is used.
func (o *Options) defaultsPath(name string) string {
	p := o.resolve(o.DefaultsFile)
	if p == "" {
		return ""
	}
	if utils.IsDirectory(p) {
		p = yaml.FixPathExt(filepath.Join(p, name+".yml"))
	}
	if !utils.IsFile(p) {
		return ""
	}
	return p
}

func (o *Options) discover() ([]*deployment.Deployment, error) {
	if !utils.IsDirectory(o.SourceDir) {
		return nil, &types.ConfigError{Path: o.SourceDir, Err: fmt.Errorf("not a directory")}
	}
	name, err := o.name()
	if err != nil {
		return nil, err
	}
	l, err := deployment.Discover(deployment.DiscoverOptions{
		Name:            name,
		NamespacesDir:   o.resolve(o.NamespacesDir),
		BuildDir:        o.BuildDir,
		NamespaceFilter: o.NamespaceFilter,
		ReleaseFilter:   o.ReleaseFilter,
	})
	if err != nil {
		return nil, err
	}
	if len(l) == 0 {
		log.Warningf("No deployments found for \"%s\" in \"%s\"", name, o.resolve(o.NamespacesDir))
	}
	return l, nil
}

type deploymentStep func(ctx context.Context, d *deployment.Deployment, eh *deployment.ErrorsHolder) error

// forEachDeployment runs step for all discovered deployments. A failing
// deployment does not stop the remaining ones.
func (c *Context) forEachDeployment(ctx context.Context, opts Options, what string, step deploymentStep) error {
	deployments, err := opts.discover()
	if err != nil {
		return err
	}

	eh := deployment.NewErrorsHolder()
	for _, d := range deployments {
		err = step(ctx, d, eh)
		if err != nil {
			eh.AddError(d.Ref(), err)
		}
	}

	warnings := len(eh.GetWarningsList())
	if failed := eh.FailedDeployments(); len(failed) != 0 {
		log.Errorf("%s failed for %d of %d deployments: %v", what, len(failed), len(deployments), failed)
		return eh.GetMultiError()
	}
	log.Infof("%s finished with %d warnings", what, warnings)
	return nil
}

// Render renders all discovered deployments and stores their secrets in the
// build dir.
func (c *Context) Render(ctx context.Context, opts Options) error {
	name, err := opts.name()
	if err != nil {
		return err
	}
	defaultsPath := opts.defaultsPath(name)
	templatesDir := opts.resolve(opts.TemplatesDir)

	return c.forEachDeployment(ctx, opts, "Rendering", func(ctx context.Context, d *deployment.Deployment, eh *deployment.ErrorsHolder) error {
		return c.renderDeployment(ctx, d, defaultsPath, templatesDir)
	})
}

func (c *Context) renderDeployment(ctx context.Context, d *deployment.Deployment, defaultsPath string, templatesDir string) error {
	log.Infof("Rendering deployment \"%s\" ...", d)

	err := d.LoadConfig(ctx, defaultsPath, c.Renderer)
	if err != nil {
		return err
	}
	err = c.Renderer.RenderDeployment(ctx, d, templatesDir)
	if err != nil {
		return err
	}

	// only the rendered deployment is cleaned, filtered ones keep their stored secrets
	err = secrets.CleanBuildSecrets(d.BuildDir, d.Ref())
	if err != nil {
		return err
	}
	return c.Secrets.Store(d.BuildDir, d.Ref())
}

// Test validates the stored secrets and the rendered manifests of all
// discovered deployments with dry-runs.
func (c *Context) Test(ctx context.Context, opts Options) error {
	return c.forEachDeployment(ctx, opts, "Testing", func(ctx context.Context, d *deployment.Deployment, eh *deployment.ErrorsHolder) error {
		return c.testDeployment(ctx, d)
	})
}

func (c *Context) testDeployment(ctx context.Context, d *deployment.Deployment) error {
	stored, err := secrets.LoadStoredForDeployment(d.BuildDir, d.Ref(), c.Providers)
	if err != nil {
		return err
	}
	for _, s := range stored {
		err = s.Test(ctx, c.Client)
		if err != nil {
			return err
		}
	}

	return c.applyManifests(ctx, d, kubectl.DryRunServer)
}

// Deploy creates the stored secrets, applies the rendered manifests and then
// removes orphaned secrets of all discovered deployments.
func (c *Context) Deploy(ctx context.Context, opts Options) error {
	return c.forEachDeployment(ctx, opts, "Deployment", func(ctx context.Context, d *deployment.Deployment, eh *deployment.ErrorsHolder) error {
		return c.deployDeployment(ctx, d, opts, eh)
	})
}

func (c *Context) deployDeployment(ctx context.Context, d *deployment.Deployment, opts Options, eh *deployment.ErrorsHolder) error {
	err := d.VerifyCluster(ctx, c.Client)
	var mismatch *types.ClusterMismatchError
	if errors.As(err, &mismatch) && opts.ForceCluster {
		eh.AddWarning(d.Ref(), fmt.Errorf("%s, continuing as forced", mismatch.Error()))
	} else if err != nil {
		return err
	}

	stored, err := secrets.LoadStoredForDeployment(d.BuildDir, d.Ref(), c.Providers)
	if err != nil {
		return err
	}
	log.Infof("Deploying secrets for deployment \"%s\" ...", d)
	for _, s := range stored {
		err = s.Deploy(ctx, c.Client, opts.RecreateSecrets)
		if err != nil {
			return err
		}
	}

	err = c.applyManifests(ctx, d, kubectl.DryRunNone)
	if err != nil {
		return err
	}

	// orphans are only removed after the manifests stopped referencing them
	if len(stored) == 0 {
		log.Infof("No stored secrets for deployment \"%s\", skipping the check for orphaned secrets", d)
	} else {
		_, err = secrets.CleanAll(ctx, stored, c.Client, opts.DryRun)
		if err != nil {
			return err
		}
	}

	return d.SaveCluster(ctx, c.Client)
}

func (c *Context) applyManifests(ctx context.Context, d *deployment.Deployment, dryRun kubectl.DryRun) error {
	dir, err := d.ManifestDir()
	if err != nil {
		return err
	}
	log.Infof("Applying manifests for deployment \"%s\" in \"%s\" ...", d, dir)
	if !utils.IsDirectory(dir) {
		log.Infof("... skip deployment without manifests")
		return nil
	}

	out, err := c.Client.Apply(ctx, dir, kubectl.ApplyOptions{
		Namespace: d.Namespace,
		DryRun:    dryRun,
	})
	if err != nil {
		if dryRun != kubectl.DryRunNone {
			return &types.TestError{Object: dir, Err: err}
		}
		return &types.DeployError{Object: dir, Err: err}
	}

	manifests, err := readManifests(dir)
	if err != nil {
		log.Debugf("Failed to read manifests from \"%s\": %v", dir, err)
	}
	kubectl.ReportApply(kubectl.ParseApplyOutput(out, manifests, d.Namespace))
	return nil
}

// readManifests reads all YAML documents below dir. They are only used to
// resolve the namespaces in the apply report.
func readManifests(dir string) ([]*uo.UnstructuredObject, error) {
	var ret []*uo.UnstructuredObject
	err := filepath.WalkDir(dir, func(p string, de os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() || !yaml.IsYamlFile(p) {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		docs, err := uo.FromStringMulti(string(b))
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		ret = append(ret, docs...)
		return nil
	})
	return ret, err
}
