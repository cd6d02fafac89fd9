package render

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/awesome-it/adeploy/pkg/deployment"
	"github.com/awesome-it/adeploy/pkg/manifest"
	"github.com/awesome-it/adeploy/pkg/secrets"
	"github.com/awesome-it/adeploy/pkg/secrets/providers"
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils/uo"
	"github.com/awesome-it/adeploy/pkg/yaml"
	log "github.com/sirupsen/logrus"
)

// Renderer renders config files and manifest templates with text/template,
// sprig and the adeploy secret functions.
type Renderer struct {
	providers *providers.Registry
	secrets   *secrets.Registry

	awsProfile string
}

type Options struct {
	// AwsProfile is used for all AWS Secrets Manager lookups.
	AwsProfile string
}

func NewRenderer(pr *providers.Registry, sr *secrets.Registry, opts Options) *Renderer {
	return &Renderer{
		providers:  pr,
		secrets:    sr,
		awsProfile: opts.AwsProfile,
	}
}

func (r *Renderer) funcMap(ctx context.Context, d *deployment.Deployment) template.FuncMap {
	f := &funcs{ctx: ctx, r: r, d: d}

	m := sprig.TxtFuncMap()
	m["version"] = f.version
	m["get_version"] = f.version
	m["create_labels"] = f.createLabels
	m["create_secret"] = f.createSecret
	m["create_named_secret"] = f.createNamedSecret
	m["create_secret_ref"] = f.createSecretRef
	m["create_tls_secret"] = f.createTlsSecret
	m["create_docker_registry_secret"] = f.createDockerRegistrySecret
	m["from_gopass"] = f.fromGopass
	m["from_shell_command"] = f.fromShellCommand
	m["random_string"] = f.randomString
	m["from_plaintext"] = f.fromPlaintext
	m["from_vault"] = f.fromVault
	m["from_aws_secrets_manager"] = f.fromAwsSecretsManager
	m["from_gcp_secret_manager"] = f.fromGcpSecretManager
	m["from_azure_key_vault"] = f.fromAzureKeyVault
	m["secret_value"] = f.secretValue
	m["to_json"] = toJson
	return m
}

// templateData exposes the config at the top level, plus name, release and namespace.
func templateData(d *deployment.Deployment) map[string]interface{} {
	var config map[string]interface{}
	if d.Config != nil {
		config = d.Config.Object
	}
	return uo.Merge(config, map[string]interface{}{
		"name":      d.Name,
		"release":   d.Release,
		"namespace": d.Namespace,
	}, uo.Override)
}

func (r *Renderer) RenderString(ctx context.Context, d *deployment.Deployment, name string, content string) (string, error) {
	t, err := template.New(name).Funcs(r.funcMap(ctx, d)).Parse(content)
	if err != nil {
		return "", err
	}
	buf := bytes.NewBuffer(nil)
	err = t.Execute(buf, templateData(d))
	if err != nil {
		return "", err
	}
	// missing values render as empty strings, same as helm does
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

func (r *Renderer) RenderFile(ctx context.Context, d *deployment.Deployment, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return r.RenderString(ctx, d, filepath.Base(path), string(b))
}

// RenderConfigFile implements deployment.ConfigRenderer.
func (r *Renderer) RenderConfigFile(ctx context.Context, d *deployment.Deployment, path string) (string, error) {
	return r.RenderFile(ctx, d, path)
}

// RenderDeployment renders all files in templatesDir into the manifest dir of
// d. Rendered YAML files are enriched with the deployment defaults.
func (r *Renderer) RenderDeployment(ctx context.Context, d *deployment.Deployment, templatesDir string) error {
	outDir, err := d.ManifestDir()
	if err != nil {
		return err
	}
	log.Infof("Rendering deployment \"%s\" into \"%s\" ...", d, outDir)

	enricher, err := manifest.NewEnricher(d.Config)
	if err != nil {
		return &types.RenderError{Path: templatesDir, Err: err}
	}

	err = os.RemoveAll(outDir)
	if err != nil {
		return err
	}

	return filepath.WalkDir(templatesDir, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(templatesDir, p)
		if err != nil {
			return err
		}

		log.Debugf("... rendering %s", rel)
		s, err := r.RenderFile(ctx, d, p)
		if err != nil {
			return &types.RenderError{Path: p, Err: err}
		}
		if yaml.IsYamlFile(p) {
			s, err = enricher.EnrichYaml(s)
			if err != nil {
				return &types.RenderError{Path: p, Err: fmt.Errorf("failed to enrich manifest: %w", err)}
			}
		}

		out := filepath.Join(outDir, rel)
		err = os.MkdirAll(filepath.Dir(out), 0o755)
		if err != nil {
			return err
		}
		return os.WriteFile(out, []byte(s), 0o644)
	})
}
