package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const DefaultWatchDelay = 500 * time.Millisecond

type WatchOptions struct {
	// Test tests all deployments after each rendering.
	Test bool
	// Deploy deploys all deployments after each successful test. Requires Test.
	Deploy bool
	// DeployOnStart tests and deploys once after the initial rendering.
	DeployOnStart bool
	// Delay is the time to wait for further changes before rendering again.
	Delay time.Duration
}

// Watch renders all deployments and renders them again whenever a file below the
// source dir changes. Each run gets a new pipeline context from newContext.
// Failed runs are logged and watching continues. Watch returns when ctx is done.
func Watch(ctx context.Context, opts Options, wopts WatchOptions, newContext func() *Context) error {
	if wopts.Deploy && !wopts.Test {
		return &types.ConfigError{Err: fmt.Errorf("deploying on changes requires testing on changes")}
	}
	if !utils.IsDirectory(opts.SourceDir) {
		return &types.ConfigError{Path: opts.SourceDir, Err: fmt.Errorf("not a directory")}
	}
	delay := wopts.Delay
	if delay == 0 {
		delay = DefaultWatchDelay
	}
	buildDir, err := filepath.Abs(opts.BuildDir)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	err = addWatches(w, opts.SourceDir, buildDir)
	if err != nil {
		return err
	}

	runWatchStep(ctx, opts, newContext, wopts.Test || wopts.DeployOnStart, wopts.DeployOnStart)
	log.Infof("Startup finished. Watching for changes in \"%s\" ...", opts.SourceDir)

	var rerun <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isRelevantChange(ev, buildDir) {
				continue
			}
			log.Debugf("\"%s\" changed (%s)", ev.Name, ev.Op)
			if ev.Has(fsnotify.Create) && utils.IsDirectory(ev.Name) {
				err = addWatches(w, ev.Name, buildDir)
				if err != nil {
					log.Warningf("Failed to watch \"%s\": %v", ev.Name, err)
				}
			}
			rerun = time.After(delay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warningf("File watcher error: %v", err)
		case <-rerun:
			rerun = nil
			runWatchStep(ctx, opts, newContext, wopts.Test, wopts.Deploy)
		}
	}
}

func runWatchStep(ctx context.Context, opts Options, newContext func() *Context, test bool, deploy bool) {
	err := newContext().Render(ctx, opts)
	if err == nil && test {
		err = newContext().Test(ctx, opts)
	}
	if err == nil && deploy {
		err = newContext().Deploy(ctx, opts)
	}
	if err != nil {
		log.Errorf("Processing changes of \"%s\" failed, waiting for further changes", opts.SourceDir)
	}
}

// addWatches watches root and all its sub directories except for the build dir
// and hidden directories. fsnotify does not watch recursively.
func addWatches(w *fsnotify.Watcher, root string, buildDir string) error {
	return filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !de.IsDir() {
			return nil
		}
		if isBelow(p, buildDir) || (p != root && strings.HasPrefix(de.Name(), ".")) {
			return filepath.SkipDir
		}
		log.Debugf("Watching for changes in \"%s\" ...", p)
		return w.Add(p)
	})
}

func isRelevantChange(ev fsnotify.Event, buildDir string) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	// editor backup files
	if strings.HasSuffix(ev.Name, "~") {
		return false
	}
	return !isBelow(ev.Name, buildDir)
}

func isBelow(p string, dir string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
