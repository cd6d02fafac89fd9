package deployment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
)

type ClusterInfo interface {
	CurrentApiServerUrl(ctx context.Context) (string, error)
}

// VerifyCluster compares the current cluster with the one d was last deployed
// to and returns a *types.ClusterMismatchError if they differ.
func (d *Deployment) VerifyCluster(ctx context.Context, c ClusterInfo) error {
	p, err := d.LastClusterMarkerPath()
	if err != nil {
		return err
	}
	if !utils.IsFile(p) {
		return nil
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	last := strings.TrimSpace(string(b))
	if last == "" {
		return nil
	}

	current, err := c.CurrentApiServerUrl(ctx)
	if err != nil {
		return fmt.Errorf("failed to determine current cluster: %w", err)
	}
	if current == last {
		return nil
	}

	return &types.ClusterMismatchError{
		Deployment:  d.DeploymentRef,
		LastCluster: last,
		Cluster:     current,
	}
}

// SaveCluster records the current cluster as the last cluster of d.
func (d *Deployment) SaveCluster(ctx context.Context, c ClusterInfo) error {
	current, err := c.CurrentApiServerUrl(ctx)
	if err != nil {
		return fmt.Errorf("failed to determine current cluster: %w", err)
	}
	p, err := d.LastClusterMarkerPath()
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(p), 0o755)
	if err != nil {
		return err
	}
	return os.WriteFile(p, []byte(current+"\n"), 0o644)
}
