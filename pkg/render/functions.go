package render

import (
	"context"
	"fmt"
	"sort"

	"github.com/awesome-it/adeploy/pkg/clouds/aws"
	"github.com/awesome-it/adeploy/pkg/clouds/azure"
	"github.com/awesome-it/adeploy/pkg/clouds/vault"
	"github.com/awesome-it/adeploy/pkg/deployment"
	"github.com/awesome-it/adeploy/pkg/secrets"
	"github.com/awesome-it/adeploy/pkg/secrets/providers"
	"github.com/awesome-it/adeploy/pkg/yaml"
	log "github.com/sirupsen/logrus"
)

const defaultRandomLength = 32

// funcs binds the template functions to a single deployment.
type funcs struct {
	ctx context.Context
	r   *Renderer
	d   *deployment.Deployment
}

func (f *funcs) version(pkg string) string {
	if f.d.Config != nil {
		v, found, _ := f.d.Config.GetNestedField("versions", pkg)
		if found && v != nil {
			return fmt.Sprint(v)
		}
	}
	return "latest"
}

var standardLabels = map[string]string{
	"name":       "app.kubernetes.io/name",
	"instance":   "app.kubernetes.io/instance",
	"version":    "app.kubernetes.io/version",
	"component":  "app.kubernetes.io/component",
	"part_of":    "app.kubernetes.io/part-of",
	"managed_by": "app.kubernetes.io/managed-by",
}

// createLabels builds the recommended app.kubernetes.io labels. args is
// usually created with sprig's dict. Keys which are not standard label
// arguments are added as custom labels, as well as everything in "labels".
func (f *funcs) createLabels(args ...map[string]interface{}) (string, error) {
	opts := map[string]interface{}{
		"instance":   f.d.Release,
		"part_of":    f.d.Name,
		"managed_by": "adeploy",
	}
	for _, a := range args {
		for k, v := range a {
			opts[k] = v
		}
	}

	labels := map[string]interface{}{}
	if custom, ok := opts["labels"]; ok && custom != nil {
		switch c := custom.(type) {
		case map[string]interface{}:
			for k, v := range c {
				labels[k] = fmt.Sprint(v)
			}
		case []interface{}:
			for _, e := range c {
				m, ok := e.(map[string]interface{})
				if !ok {
					return "", fmt.Errorf("labels must be a list of maps")
				}
				for k, v := range m {
					labels[k] = fmt.Sprint(v)
				}
			}
		default:
			return "", fmt.Errorf("labels must be a map or a list of maps, got %T", custom)
		}
	}
	for k, v := range opts {
		if k == "labels" {
			continue
		}
		if _, ok := standardLabels[k]; ok {
			continue
		}
		labels[k] = fmt.Sprint(v)
	}
	for k, l := range standardLabels {
		v, ok := opts[k]
		if !ok || v == nil || v == "" {
			continue
		}
		labels[l] = fmt.Sprint(v)
	}
	return yaml.WriteJsonString(labels)
}

func (f *funcs) register(s *secrets.Secret, kind string) string {
	if f.r.secrets.Register(s) {
		log.Infof("Registered %s secret \"%s\" for deployment \"%s\" ...", kind, s.Name, f.d)
	}
	return s.Name
}

func toProviders(data map[string]interface{}) (map[string]providers.Provider, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("at least one secret key must be specified")
	}
	ret := map[string]providers.Provider{}
	for k, v := range data {
		p, ok := v.(providers.Provider)
		if !ok {
			return nil, fmt.Errorf("value of secret key %s must be a secret provider, e.g. from_gopass, got %T", k, v)
		}
		ret[k] = p
	}
	return ret, nil
}

func (f *funcs) createGenericSecret(name string, data map[string]interface{}) (*secrets.Secret, error) {
	p, err := toProviders(data)
	if err != nil {
		return nil, err
	}
	return secrets.NewSecret(f.d.Ref(), name, &secrets.GenericPayload{Data: p})
}

func (f *funcs) createSecret(data map[string]interface{}) (string, error) {
	s, err := f.createGenericSecret("", data)
	if err != nil {
		return "", err
	}
	return f.register(s, "generic"), nil
}

func (f *funcs) createNamedSecret(name string, data map[string]interface{}) (string, error) {
	if name == "" {
		return "", fmt.Errorf("missing secret name")
	}
	s, err := f.createGenericSecret(name, data)
	if err != nil {
		return "", err
	}
	return f.register(s, "generic"), nil
}

// createSecretRef returns {"name": ..., "key": ...} for use in secretKeyRef,
// key being the first key of data in sorted order.
func (f *funcs) createSecretRef(data map[string]interface{}) (string, error) {
	name, err := f.createSecret(data)
	if err != nil {
		return "", err
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return yaml.WriteJsonString(map[string]interface{}{
		"name": name,
		"key":  keys[0],
	})
}

func (f *funcs) createTlsSecret(cert providers.Provider, key providers.Provider, name ...string) (string, error) {
	if cert == nil || key == nil {
		return "", fmt.Errorf("cert and key must be secret providers")
	}
	s, err := secrets.NewSecret(f.d.Ref(), optionalArg(name), &secrets.TlsPayload{Cert: cert, Key: key})
	if err != nil {
		return "", err
	}
	return f.register(s, "TLS"), nil
}

func (f *funcs) createDockerRegistrySecret(args map[string]interface{}) (string, error) {
	str := func(k string) string {
		v, ok := args[k]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
	for k := range args {
		switch k {
		case "server", "username", "password", "email", "name":
		default:
			return "", fmt.Errorf("unknown docker registry secret argument %s", k)
		}
	}
	password, ok := args["password"].(providers.Provider)
	if !ok {
		return "", fmt.Errorf("password must be a secret provider")
	}
	if str("server") == "" || str("username") == "" {
		return "", fmt.Errorf("server and username are required")
	}
	s, err := secrets.NewSecret(f.d.Ref(), str("name"), &secrets.DockerRegistryPayload{
		Server:   str("server"),
		Username: str("username"),
		Password: password,
		Email:    str("email"),
	})
	if err != nil {
		return "", err
	}
	return f.register(s, "docker registry"), nil
}

func parseTrim(opts []string) (providers.TrimPolicy, error) {
	switch optionalArg(opts) {
	case "":
		return providers.TrimPolicy{}, nil
	case "left":
		return providers.TrimPolicy{Left: true}, nil
	case "right":
		return providers.TrimPolicy{Right: true}, nil
	case "both":
		return providers.TrimPolicy{Left: true, Right: true}, nil
	}
	return providers.TrimPolicy{}, fmt.Errorf("invalid trim option %s, must be left, right or both", opts[0])
}

func optionalArg(l []string) string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

func (f *funcs) fromGopass(path string, trim ...string) (providers.Provider, error) {
	t, err := parseTrim(trim)
	if err != nil {
		return nil, err
	}
	return f.r.providers.Gopass(path, t)
}

func (f *funcs) fromShellCommand(command string, trim ...string) (providers.Provider, error) {
	t, err := parseTrim(trim)
	if err != nil {
		return nil, err
	}
	return f.r.providers.ShellCommand(command, t)
}

func (f *funcs) randomString(name string, length ...int) (providers.Provider, error) {
	l := defaultRandomLength
	if len(length) != 0 {
		l = length[0]
	}
	return f.r.providers.Random(name, l)
}

func (f *funcs) fromPlaintext(value string, trim ...string) (providers.Provider, error) {
	t, err := parseTrim(trim)
	if err != nil {
		return nil, err
	}
	return f.r.providers.Plaintext(value, t)
}

func (f *funcs) fromVault(server string, path string, key string) (providers.Provider, error) {
	return f.r.providers.Vault(vault.SecretRef{Server: server, Path: path, Key: key}, providers.TrimPolicy{})
}

// fromAwsSecretsManager accepts an optional region and an optional key of a JSON secret.
func (f *funcs) fromAwsSecretsManager(secretName string, opts ...string) (providers.Provider, error) {
	ref := aws.SecretRef{Name: secretName, Profile: f.r.awsProfile}
	var key string
	if len(opts) > 0 {
		ref.Region = opts[0]
	}
	if len(opts) > 1 {
		key = opts[1]
	}
	return f.r.providers.AwsSecretsManager(ref, key, providers.TrimPolicy{})
}

func (f *funcs) fromGcpSecretManager(name string) (providers.Provider, error) {
	return f.r.providers.GcpSecretManager(name, providers.TrimPolicy{})
}

func (f *funcs) fromAzureKeyVault(vaultUri string, name string, version ...string) (providers.Provider, error) {
	return f.r.providers.AzureKeyVault(azure.SecretRef{VaultUri: vaultUri, Name: name, Version: optionalArg(version)}, providers.TrimPolicy{})
}

// secretValue resolves a provider while rendering. Only meant for debugging.
func (f *funcs) secretValue(p providers.Provider) (string, error) {
	log.Warningf("Rendering the value of secret provider \"%s\" into a template, don't do this in production", p.ID())
	return p.Value(f.ctx)
}

func toJson(v interface{}) (string, error) {
	return yaml.WriteJsonString(v)
}
