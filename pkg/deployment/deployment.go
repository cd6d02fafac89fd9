package deployment

import (
	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/awesome-it/adeploy/pkg/utils/uo"
)

// Deployment is one release of an application in a namespace.
type Deployment struct {
	types.DeploymentRef

	// ConfigPath is the release specific config file.
	ConfigPath string
	// Config is the resolved configuration, set by LoadConfig.
	Config *uo.UnstructuredObject

	BuildDir string
}

func (d *Deployment) Ref() types.DeploymentRef {
	return d.DeploymentRef
}

// ManifestDir is the directory the rendered manifests are written to.
func (d *Deployment) ManifestDir() (string, error) {
	return utils.SecureJoin(d.BuildDir, d.Namespace, d.Name, d.Release)
}

// LastClusterMarkerPath is the file recording the API server the deployment was last applied to.
func (d *Deployment) LastClusterMarkerPath() (string, error) {
	return utils.SecureJoin(d.BuildDir, d.Namespace, d.Name, d.Release+".last-cluster")
}
