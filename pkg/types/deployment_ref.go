package types

import (
	"fmt"
)

// DeploymentRef identifies a deployment by name, release and namespace.
type DeploymentRef struct {
	Name      string `yaml:"name" validate:"required"`
	Release   string `yaml:"release" validate:"required"`
	Namespace string `yaml:"namespace" validate:"required"`
}

func (r DeploymentRef) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Namespace, r.Name, r.Release)
}

// Labels returns the labels which mark cluster objects as owned by the deployment.
func (r DeploymentRef) Labels() map[string]string {
	return map[string]string{
		LabelName:    r.Name,
		LabelRelease: r.Release,
	}
}

const (
	LabelName    = "adeploy.name"
	LabelRelease = "adeploy.release"
)
