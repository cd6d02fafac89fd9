package pipeline

import (
	"context"
	"fmt"

	"github.com/awesome-it/adeploy/pkg/deployment"
)

// Config resolves the configs of all discovered deployments and returns them
// keyed by release. If a release exists in multiple namespaces, the config of
// the last namespace wins and a warning is logged.
func (c *Context) Config(ctx context.Context, opts Options) (map[string]interface{}, error) {
	name, err := opts.name()
	if err != nil {
		return nil, err
	}
	defaultsPath := opts.defaultsPath(name)

	ret := map[string]interface{}{}
	namespaces := map[string]string{}
	err = c.forEachDeployment(ctx, opts, "Loading configs", func(ctx context.Context, d *deployment.Deployment, eh *deployment.ErrorsHolder) error {
		err := d.LoadConfig(ctx, defaultsPath, c.Renderer)
		if err != nil {
			return err
		}
		if ns, ok := namespaces[d.Release]; ok {
			eh.AddWarning(d.Ref(), fmt.Errorf("release \"%s\" also exists in namespace \"%s\", overwriting its config", d.Release, ns))
		}
		namespaces[d.Release] = d.Namespace
		ret[d.Release] = d.Config.Object
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
