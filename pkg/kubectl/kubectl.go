package kubectl

import (
	"context"
	"fmt"
	"sort"

	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/awesome-it/adeploy/pkg/utils/process"
	"github.com/awesome-it/adeploy/pkg/utils/uo"
	"github.com/awesome-it/adeploy/pkg/yaml"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/tools/clientcmd"
)

var secretNamesPath = uo.NewJsonPathMust("$.items[*].metadata.name")

// Kubectl implements ClusterClient by shelling out to kubectl.
type Kubectl struct {
	executor    process.Executor
	kubeconfig  string
	kubeContext string
}

func NewKubectl(executor process.Executor, kubeconfig string, kubeContext string) *Kubectl {
	return &Kubectl{
		executor:    executor,
		kubeconfig:  kubeconfig,
		kubeContext: kubeContext,
	}
}

func (k *Kubectl) run(ctx context.Context, namespace string, args ...string) ([]byte, error) {
	var cmd []string
	if k.kubeconfig != "" {
		cmd = append(cmd, "--kubeconfig", k.kubeconfig)
	}
	if k.kubeContext != "" {
		cmd = append(cmd, "--context", k.kubeContext)
	}
	if namespace != "" {
		cmd = append(cmd, "-n", namespace)
	}
	cmd = append(cmd, args...)

	log.Debugf("Executing kubectl %v", args)
	stdout, stderr, err := k.executor.Execute(ctx, "kubectl", cmd...)
	if err != nil {
		if len(args) >= 3 && args[1] == "secret" && (args[0] == "get" || args[0] == "delete") && isNotFoundOutput(string(stderr)) {
			return nil, NewSecretNotFound(args[2])
		}
		return stdout, errors.Wrapf(err, "kubectl %s failed", args[0])
	}
	return stdout, nil
}

func (k *Kubectl) Apply(ctx context.Context, manifestPath string, opts ApplyOptions) (string, error) {
	args := []string{"apply", "-f", manifestPath}
	if opts.DryRun != DryRunNone {
		args = append(args, fmt.Sprintf("--dry-run=%s", opts.DryRun))
	}
	if opts.OutputJson {
		args = append(args, "-o", "json")
	}
	stdout, err := k.run(ctx, opts.Namespace, args...)
	return string(stdout), err
}

func (k *Kubectl) GetSecret(ctx context.Context, name string, namespace string) (*uo.UnstructuredObject, error) {
	stdout, err := k.run(ctx, namespace, "get", "secret", name, "-o", "json")
	if err != nil {
		return nil, err
	}
	return uo.FromString(string(stdout))
}

func (k *Kubectl) DeleteSecret(ctx context.Context, name string, namespace string) error {
	_, err := k.run(ctx, namespace, "delete", "secret", name, "-o", "name")
	return err
}

// CreateSecret lets kubectl generate the secret manifest, adds the labels and applies it.
func (k *Kubectl) CreateSecret(ctx context.Context, req CreateSecretRequest) (*CreateSecretResult, error) {
	args := append([]string{"create", "secret", string(req.Type), req.Name}, req.Args...)
	args = append(args, "--dry-run=client", "-o", "json")
	stdout, err := k.run(ctx, req.Namespace, args...)
	if err != nil {
		return nil, err
	}

	stdout, err = addLabels(stdout, req.Labels)
	if err != nil {
		return nil, err
	}
	manifest, err := uo.FromString(string(stdout))
	if err != nil {
		return nil, fmt.Errorf("failed to parse secret manifest: %w", err)
	}

	b, err := yaml.WriteYamlBytes(manifest.Object)
	if err != nil {
		return nil, err
	}
	p, cleanup, err := utils.WriteTmpFile(ctx, "secret-*.yaml", b)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	out, err := k.Apply(ctx, p, ApplyOptions{
		Namespace:  req.Namespace,
		DryRun:     req.DryRun,
		OutputJson: req.OutputJson,
	})
	if err != nil {
		return nil, err
	}
	return &CreateSecretResult{
		Manifest: manifest,
		Stdout:   out,
	}, nil
}

func (k *Kubectl) ListSecretNames(ctx context.Context, namespace string, l map[string]string) ([]string, error) {
	selector := labels.SelectorFromSet(l).String()
	stdout, err := k.run(ctx, namespace, "get", "secrets", "-l", selector, "-o", "json")
	if err != nil {
		return nil, err
	}
	list, err := uo.FromString(string(stdout))
	if err != nil {
		return nil, fmt.Errorf("failed to parse secret list: %w", err)
	}
	names := secretNamesPath.GetStrings(list)
	sort.Strings(names)
	return names, nil
}

// CurrentApiServerUrl returns the server of the current (or selected) kubeconfig context.
func (k *Kubectl) CurrentApiServerUrl(ctx context.Context) (string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if k.kubeconfig != "" {
		rules.ExplicitPath = k.kubeconfig
	}
	configOverrides := &clientcmd.ConfigOverrides{
		CurrentContext: k.kubeContext,
	}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, configOverrides)
	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return restConfig.Host, nil
}

// addLabels merges l into the labels of the JSON manifest generated by kubectl.
func addLabels(manifest []byte, l map[string]string) ([]byte, error) {
	if len(l) == 0 {
		return manifest, nil
	}
	patch, err := yaml.WriteJsonString(map[string]interface{}{
		"metadata": map[string]interface{}{
			"labels": l,
		},
	})
	if err != nil {
		return nil, err
	}
	ret, err := jsonpatch.MergePatch(manifest, []byte(patch))
	if err != nil {
		return nil, fmt.Errorf("failed to add labels to secret manifest: %w", err)
	}
	return ret, nil
}
