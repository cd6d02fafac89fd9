package deployment

import (
	"context"
	"fmt"
	"os"

	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils/uo"
	log "github.com/sirupsen/logrus"
)

// ConfigRenderer renders a config file before it is parsed. The deployment is
// passed so that template functions can refer to it.
type ConfigRenderer interface {
	RenderConfigFile(ctx context.Context, d *Deployment, path string) (string, error)
}

func readConfigFile(ctx context.Context, d *Deployment, path string, renderer ConfigRenderer) (*uo.UnstructuredObject, error) {
	var s string
	if renderer != nil {
		var err error
		s, err = renderer.RenderConfigFile(ctx, d, path)
		if err != nil {
			return nil, &types.ConfigError{Path: path, Err: err}
		}
	} else {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, &types.ConfigError{Path: path, Err: err}
		}
		s = string(b)
	}

	o, err := uo.FromString(s)
	if err != nil {
		return nil, &types.ConfigError{Path: path, Err: err}
	}
	return o, nil
}

// LoadConfig resolves the configuration of d by merging the release config over
// the defaults. defaultsPath is optional.
func (d *Deployment) LoadConfig(ctx context.Context, defaultsPath string, renderer ConfigRenderer) error {
	// the config is visible to templates while the files themselves are rendered
	d.Config = uo.New()

	var defaults *uo.UnstructuredObject
	if defaultsPath != "" {
		log.Infof("Using defaults from \"%s\" ...", defaultsPath)
		var err error
		defaults, err = readConfigFile(ctx, d, defaultsPath, renderer)
		if err != nil {
			return err
		}
		d.Config = defaults
	} else {
		log.Warningf("Not using defaults, continue ...")
		defaults = uo.New()
	}

	release, err := readConfigFile(ctx, d, d.ConfigPath, renderer)
	if err != nil {
		return err
	}

	d.Config = uo.FromMap(uo.Merge(defaults.Object, release.Object, uo.Override))
	log.Debugf("Resolved config of %s: %d top level keys", d.DeploymentRef, len(d.Config.Object))
	return nil
}

func (d *Deployment) String() string {
	return fmt.Sprintf("%s/%s-%s", d.Namespace, d.Name, d.Release)
}
