package types

import (
	"fmt"
)

// ConfigError signals a malformed or unresolvable configuration document.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ProviderError signals that a secret value could not be resolved.
type ProviderError struct {
	ProviderId string
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("failed to resolve secret value from %s: %v", e.ProviderId, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RenderError signals a templating or manifest enrichment failure.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ClusterMismatchError is returned when a deployment was last applied to another cluster.
type ClusterMismatchError struct {
	Deployment  DeploymentRef
	LastCluster string
	Cluster     string
}

func (e *ClusterMismatchError) Error() string {
	return fmt.Sprintf("deployment %s was last deployed to cluster %s but the current cluster is %s", e.Deployment, e.LastCluster, e.Cluster)
}

// DeployError signals that a cluster side operation failed.
type DeployError struct {
	Object string
	Err    error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("failed to deploy %s: %v", e.Object, e.Err)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// TestError signals that a dry-run validation failed.
type TestError struct {
	Object string
	Err    error
}

func (e *TestError) Error() string {
	return fmt.Sprintf("test of %s failed: %v", e.Object, e.Err)
}

func (e *TestError) Unwrap() error {
	return e.Err
}
