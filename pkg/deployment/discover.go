package deployment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
	log "github.com/sirupsen/logrus"
)

var configExtensions = []string{".yaml", ".yml"}

type DiscoverOptions struct {
	// Name of the deployment, usually the base name of the source directory.
	Name string
	// NamespacesDir contains one directory per namespace.
	NamespacesDir string
	BuildDir      string

	NamespaceFilter *utils.GlobFilter
	ReleaseFilter   *utils.GlobFilter
}

// Discover finds all releases of a deployment. Two layouts are supported:
//
//	<namespaces>/<namespace>/<release>.yml
//	<namespaces>/<namespace>/<name>/<release>.yml
//
// The second one is used when the <name> directory exists.
func Discover(opts DiscoverOptions) ([]*Deployment, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("missing deployment name")
	}

	log.Debugf("Scanning for deployment configs in \"%s\" ...", opts.NamespacesDir)

	entries, err := os.ReadDir(opts.NamespacesDir)
	if err != nil {
		return nil, &types.ConfigError{Path: opts.NamespacesDir, Err: err}
	}

	var ret []*Deployment
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ns := e.Name()

		dir := filepath.Join(opts.NamespacesDir, ns, opts.Name)
		if !utils.IsDirectory(dir) {
			dir = filepath.Join(opts.NamespacesDir, ns)
		}

		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, &types.ConfigError{Path: dir, Err: err}
		}
		var names []string
		for _, f := range files {
			if f.IsDir() || !hasConfigExtension(f.Name()) {
				continue
			}
			names = append(names, f.Name())
		}
		sort.Strings(names)

		for _, fn := range names {
			release := strings.TrimSuffix(fn, filepath.Ext(fn))
			d := &Deployment{
				DeploymentRef: types.DeploymentRef{
					Name:      opts.Name,
					Release:   release,
					Namespace: ns,
				},
				ConfigPath: filepath.Join(dir, fn),
				BuildDir:   opts.BuildDir,
			}

			if !opts.NamespaceFilter.Match(ns) || !opts.ReleaseFilter.Match(release) {
				log.Infof("... Deployment \"%s\" skipped by user filter.", d)
				continue
			}

			log.Debugf("... found deployment \"%s\", release \"%s\", namespace \"%s\" in \"%s\"", d.Name, release, ns, d.ConfigPath)
			ret = append(ret, d)
		}
	}
	return ret, nil
}

func hasConfigExtension(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range configExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
