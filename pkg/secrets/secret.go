package secrets

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/awesome-it/adeploy/pkg/kubectl"
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/awesome-it/adeploy/pkg/utils/uo"
	"github.com/awesome-it/adeploy/pkg/yaml"
	log "github.com/sirupsen/logrus"
)

const namePrefix = "secret-"

// Secret is a kubernetes secret owned by a single deployment.
type Secret struct {
	Deployment types.DeploymentRef
	Name       string
	Payload    Payload
}

// NewSecret creates a secret. If name is empty, it is derived from the payload.
func NewSecret(deployment types.DeploymentRef, name string, payload Payload) (*Secret, error) {
	if name == "" {
		var err error
		name, err = GenName(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Secret{
		Deployment: deployment,
		Name:       name,
		Payload:    payload,
	}, nil
}

// GenName derives the secret name from the canonical form of the payload.
// Changing the canonical form renames every generated secret.
func GenName(payload Payload) (string, error) {
	j, err := yaml.WriteJsonString(payload.canonical())
	if err != nil {
		return "", fmt.Errorf("failed to build canonical secret form: %w", err)
	}
	h := sha1.Sum([]byte(j))
	return namePrefix + hex.EncodeToString(h[:]), nil
}

func (s *Secret) String() string {
	return fmt.Sprintf("%s/%s", s.Deployment.Name, s.Name)
}

func (s *Secret) Type() kubectl.SecretType {
	return s.Payload.Type()
}

// Create creates the secret through the cluster client. Resolved values only
// ever end up in temporary files which are removed before returning.
func (s *Secret) Create(ctx context.Context, client kubectl.ClusterClient, dryRun kubectl.DryRun, outputJson bool) (*kubectl.CreateSecretResult, error) {
	tmp := &tmpFiles{}
	defer tmp.cleanup()

	args, err := s.Payload.createArgs(ctx, dryRun, tmp)
	if err != nil {
		return nil, err
	}

	return client.CreateSecret(ctx, kubectl.CreateSecretRequest{
		Name:       s.Name,
		Namespace:  s.Deployment.Namespace,
		Type:       s.Payload.Type(),
		Args:       args,
		Labels:     s.Deployment.Labels(),
		DryRun:     dryRun,
		OutputJson: outputJson,
	})
}

func (s *Secret) Exists(ctx context.Context, client kubectl.ClusterClient) (bool, error) {
	_, err := client.GetSecret(ctx, s.Name, s.Deployment.Namespace)
	if err != nil {
		if kubectl.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Test validates the secret with client and server side dry-runs. Existing
// secrets are left untouched.
func (s *Secret) Test(ctx context.Context, client kubectl.ClusterClient) error {
	log.Infof("Testing secret \"%s\" for deployment \"%s\" ...", s, s.Deployment)

	exists, err := s.Exists(ctx, client)
	if err != nil {
		return &types.TestError{Object: s.String(), Err: err}
	}
	if exists {
		log.Infof("... secret already exists. The secret will not be re-created unless --recreate-secrets was specified.")
		return nil
	}

	manifest, err := s.Create(ctx, client, kubectl.DryRunClient, true)
	if err != nil {
		return &types.TestError{Object: s.String(), Err: err}
	}
	result, err := s.Create(ctx, client, kubectl.DryRunServer, false)
	if err != nil {
		return &types.TestError{Object: s.String(), Err: err}
	}

	kubectl.ReportApply(kubectl.ParseApplyOutput(result.Stdout, []*uo.UnstructuredObject{manifest.Manifest}, s.Deployment.Namespace))
	return nil
}

// Deploy creates the secret if it does not exist yet. Existing secrets are only
// replaced when recreate is set.
func (s *Secret) Deploy(ctx context.Context, client kubectl.ClusterClient, recreate bool) error {
	exists, err := s.Exists(ctx, client)
	if err != nil {
		return &types.DeployError{Object: s.String(), Err: err}
	}
	if exists {
		if !recreate {
			log.Infof("... skip re-creating existing secret \"%s\"", s)
			return nil
		}
		log.Infof("... remove existing secret \"%s\" in order to re-create ...", s)
		err = client.DeleteSecret(ctx, s.Name, s.Deployment.Namespace)
		if err != nil && !kubectl.IsNotFound(err) {
			return &types.DeployError{Object: s.String(), Err: err}
		}
	}

	log.Infof("... creating secret \"%s\" ...", s)
	_, err = s.Create(ctx, client, kubectl.DryRunNone, false)
	if err != nil {
		return &types.DeployError{Object: s.String(), Err: err}
	}
	return nil
}

type tmpFiles struct {
	cleanups []func()
}

func (t *tmpFiles) write(ctx context.Context, content []byte) (string, error) {
	p, cleanup, err := utils.WriteTmpFile(ctx, "secret-value-*", content)
	if err != nil {
		return "", err
	}
	t.cleanups = append(t.cleanups, cleanup)
	return p, nil
}

func (t *tmpFiles) cleanup() {
	for _, c := range t.cleanups {
		c()
	}
	t.cleanups = nil
}
