package kubectl

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/awesome-it/adeploy/pkg/utils/uo"
)

type fakeSecret struct {
	labels map[string]string
	obj    *uo.UnstructuredObject
}

// FakeClient is an in-memory ClusterClient.
type FakeClient struct {
	mu sync.Mutex

	ApiServerUrl string

	secrets map[string]map[string]fakeSecret

	// ApplyOutput is returned by every Apply call.
	ApplyOutput string
	// ApplyErr is returned by every Apply call that is not a dry-run.
	ApplyErr      error
	Applied       []string
	DryRunApplied []string
	CreateCalls   int
	DeleteCalls   int
	GetCalls      int
}

func NewFakeClient(apiServerUrl string) *FakeClient {
	return &FakeClient{
		ApiServerUrl: apiServerUrl,
		secrets:      map[string]map[string]fakeSecret{},
	}
}

// AddSecret puts a secret into the fake cluster.
func (c *FakeClient) AddSecret(name string, namespace string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addSecret(name, namespace, labels)
}

func (c *FakeClient) addSecret(name string, namespace string, labels map[string]string) {
	ns, ok := c.secrets[namespace]
	if !ok {
		ns = map[string]fakeSecret{}
		c.secrets[namespace] = ns
	}
	o := uo.New()
	_ = o.SetNestedField("v1", "apiVersion")
	_ = o.SetNestedField("Secret", "kind")
	_ = o.SetNestedField(name, "metadata", "name")
	_ = o.SetNestedField(namespace, "metadata", "namespace")
	ns[name] = fakeSecret{labels: labels, obj: o}
}

func (c *FakeClient) HasSecret(name string, namespace string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.secrets[namespace][name]
	return ok
}

func (c *FakeClient) Apply(ctx context.Context, manifestPath string, opts ApplyOptions) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if opts.DryRun == DryRunNone {
		if c.ApplyErr != nil {
			return "", c.ApplyErr
		}
		c.Applied = append(c.Applied, manifestPath)
	} else {
		c.DryRunApplied = append(c.DryRunApplied, manifestPath)
	}
	return c.ApplyOutput, nil
}

func (c *FakeClient) GetSecret(ctx context.Context, name string, namespace string) (*uo.UnstructuredObject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	s, ok := c.secrets[namespace][name]
	if !ok {
		return nil, NewSecretNotFound(name)
	}
	return s.obj.Clone(), nil
}

func (c *FakeClient) DeleteSecret(ctx context.Context, name string, namespace string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DeleteCalls++
	if _, ok := c.secrets[namespace][name]; !ok {
		return NewSecretNotFound(name)
	}
	delete(c.secrets[namespace], name)
	return nil
}

func (c *FakeClient) CreateSecret(ctx context.Context, req CreateSecretRequest) (*CreateSecretResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req.Name == "" {
		return nil, fmt.Errorf("missing secret name")
	}

	m := uo.New()
	_ = m.SetNestedField("v1", "apiVersion")
	_ = m.SetNestedField("Secret", "kind")
	_ = m.SetNestedField(req.Name, "metadata", "name")
	for k, v := range req.Labels {
		_ = m.SetNestedField(v, "metadata", "labels", k)
	}

	if req.DryRun == DryRunNone {
		c.CreateCalls++
		c.addSecret(req.Name, req.Namespace, req.Labels)
	}
	status := "created"
	if req.DryRun != DryRunNone {
		status = fmt.Sprintf("created (%s dry run)", req.DryRun)
	}
	return &CreateSecretResult{
		Manifest: m,
		Stdout:   fmt.Sprintf("secret/%s %s\n", req.Name, status),
	}, nil
}

func (c *FakeClient) ListSecretNames(ctx context.Context, namespace string, labels map[string]string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var names []string
outer:
	for name, s := range c.secrets[namespace] {
		for k, v := range labels {
			if s.labels[k] != v {
				continue outer
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *FakeClient) CurrentApiServerUrl(ctx context.Context) (string, error) {
	return c.ApiServerUrl, nil
}
