package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/awesome-it/adeploy/pkg/kubectl"
	"github.com/awesome-it/adeploy/pkg/secrets/providers"
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// Registry holds all secrets created during a render pass.
type Registry struct {
	mu      sync.Mutex
	secrets map[string]*Secret
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{
		secrets: map[string]*Secret{},
	}
}

func registryKey(s *Secret) string {
	return fmt.Sprintf("%s/%s", s.Deployment, s.Name)
}

// Register adds s and returns true, or returns false if a secret with the
// same deployment and name is already registered.
func (r *Registry) Register(s *Secret) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(s)
	if _, ok := r.secrets[key]; ok {
		return false
	}
	r.secrets[key] = s
	r.order = append(r.order, key)
	return true
}

// Secrets returns all registered secrets in registration order.
func (r *Registry) Secrets() []*Secret {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]*Secret, 0, len(r.order))
	for _, k := range r.order {
		ret = append(ret, r.secrets[k])
	}
	return ret
}

func (r *Registry) ForDeployment(d types.DeploymentRef) []*Secret {
	var ret []*Secret
	for _, s := range r.Secrets() {
		if s.Deployment == d {
			ret = append(ret, s)
		}
	}
	return ret
}

// Store persists the registered secrets below buildDir. If deployments are
// given, only their secrets are stored.
func (r *Registry) Store(buildDir string, deployments ...types.DeploymentRef) error {
	l := r.Secrets()
	if len(deployments) != 0 {
		l = nil
		for _, d := range deployments {
			l = append(l, r.ForDeployment(d)...)
		}
	}
	for _, s := range l {
		err := s.Store(buildDir)
		if err != nil {
			return fmt.Errorf("failed to store secret %s: %w", s, err)
		}
	}
	return nil
}

// CleanBuildSecrets removes the stored secrets of the given deployments.
func CleanBuildSecrets(buildDir string, deployments ...types.DeploymentRef) error {
	for _, d := range deployments {
		dir, err := SecretsDir(buildDir, d)
		if err != nil {
			return err
		}
		err = os.RemoveAll(dir)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadStored loads the stored secrets of all releases and namespaces of the
// deployment with the given name.
func LoadStored(buildDir string, deploymentName string, pr *providers.Registry) ([]*Secret, error) {
	pattern := filepath.Join(buildDir, "*", deploymentName, "secrets", "*", "*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var ret []*Secret
	for _, p := range matches {
		if !utils.IsFile(p) {
			continue
		}
		s, err := loadSecret(p, pr)
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	return ret, nil
}

// LoadStoredForDeployment loads the stored secrets of a single deployment.
func LoadStoredForDeployment(buildDir string, d types.DeploymentRef, pr *providers.Registry) ([]*Secret, error) {
	all, err := LoadStored(buildDir, d.Name, pr)
	if err != nil {
		return nil, err
	}
	var ret []*Secret
	for _, s := range all {
		if s.Deployment == d {
			ret = append(ret, s)
		}
	}
	return ret, nil
}

type Orphan struct {
	Deployment types.DeploymentRef
	Name       string
}

func (o Orphan) String() string {
	return fmt.Sprintf("%s/%s", o.Deployment.Name, o.Name)
}

// CleanAll looks for secrets on the cluster which are labeled for one of the
// deployments of secrets but are not part of secrets. Orphans are deleted
// unless dryRun is set. Each deployment is checked on its own.
func CleanAll(ctx context.Context, secrets []*Secret, client kubectl.ClusterClient, dryRun bool) ([]Orphan, error) {
	var order []types.DeploymentRef
	byDeployment := map[types.DeploymentRef][]string{}
	for _, s := range secrets {
		if _, ok := byDeployment[s.Deployment]; !ok {
			order = append(order, s.Deployment)
		}
		byDeployment[s.Deployment] = append(byDeployment[s.Deployment], s.Name)
	}

	var ret []Orphan
	for _, d := range order {
		orphans, err := CleanOrphans(ctx, d, byDeployment[d], client, dryRun)
		ret = append(ret, orphans...)
		if err != nil {
			return ret, err
		}
	}
	return ret, nil
}

// CleanOrphans reconciles a single deployment against the names of its current secrets.
func CleanOrphans(ctx context.Context, d types.DeploymentRef, current []string, client kubectl.ClusterClient, dryRun bool) ([]Orphan, error) {
	log.Infof("Checking for orphaned secrets of deployment \"%s\" ...", d)

	existing, err := client.ListSecretNames(ctx, d.Namespace, d.Labels())
	if err != nil {
		return nil, &types.DeployError{Object: d.String(), Err: err}
	}

	created := map[string]bool{}
	for _, n := range current {
		created[n] = true
	}
	sortedCurrent := append([]string{}, current...)
	sort.Strings(sortedCurrent)
	log.Debugf("... existing secrets: %s", strings.Join(existing, ", "))
	log.Debugf("... created secrets: %s", strings.Join(sortedCurrent, ", "))

	var orphans []Orphan
	for _, n := range existing {
		if created[n] {
			continue
		}
		o := Orphan{Deployment: d, Name: n}
		if dryRun {
			log.Infof("... found orphaned secret \"%s\", will be deleted without dry-run", o)
		} else {
			log.Infof("... delete orphaned secret \"%s\"", o)
			err = client.DeleteSecret(ctx, n, d.Namespace)
			if err != nil && !kubectl.IsNotFound(err) {
				return orphans, &types.DeployError{Object: o.String(), Err: err}
			}
		}
		orphans = append(orphans, o)
	}

	if len(orphans) > 0 {
		log.Infof("Found %d orphaned secrets.", len(orphans))
	} else {
		log.Infof("No orphaned secrets found.")
	}
	return orphans, nil
}
