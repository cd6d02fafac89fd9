package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awesome-it/adeploy/cmd/adeploy/args"
	"github.com/awesome-it/adeploy/pkg/kubectl"
	"github.com/awesome-it/adeploy/pkg/pipeline"
	"github.com/awesome-it/adeploy/pkg/render"
	"github.com/awesome-it/adeploy/pkg/secrets/providers"
	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/awesome-it/adeploy/pkg/utils/process"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

func buildPipelineOptions(srcDir string) (pipeline.Options, error) {
	nsFilter, releaseFilter, err := args.ParseFiltersFromArgs()
	if err != nil {
		return pipeline.Options{}, err
	}
	abs, err := filepath.Abs(srcDir)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		SourceDir:       abs,
		BuildDir:        args.BuildDir,
		NamespacesDir:   args.NamespacesDir,
		TemplatesDir:    args.TemplatesDir,
		DefaultsFile:    args.DefaultsFile,
		Name:            args.Name,
		NamespaceFilter: nsFilter,
		ReleaseFilter:   releaseFilter,
		RecreateSecrets: args.RecreateSecret,
		ForceCluster:    args.ForceCluster,
		DryRun:          args.DryRun,
	}, nil
}

type pipelineStep func(ctx context.Context, newContext func() *pipeline.Context, opts pipeline.Options) error

// contextStep runs f with a single new pipeline context.
func contextStep(f func(pc *pipeline.Context, ctx context.Context, opts pipeline.Options) error) pipelineStep {
	return func(ctx context.Context, newContext func() *pipeline.Context, opts pipeline.Options) error {
		return f(newContext(), ctx, opts)
	}
}

// runPipelineStep runs step for every source dir. Pipeline contexts are never
// shared between source dirs. Missing source dirs are skipped with a warning.
func runPipelineStep(ctx context.Context, srcDirs []string, what string, step pipelineStep) error {
	if len(srcDirs) == 0 {
		srcDirs = []string{"."}
	}

	workDir, err := utils.GetTmpBaseDir(ctx)
	if err != nil {
		return err
	}
	tmpBaseDir, err := os.MkdirTemp(workDir, "run-")
	if err != nil {
		return fmt.Errorf("creating temporary directory failed: %w", err)
	}
	defer os.RemoveAll(tmpBaseDir)
	ctx = utils.WithTmpBaseDir(ctx, tmpBaseDir)

	executor := process.NewRealExecutor()
	client := kubectl.NewKubectl(executor, args.Kubeconfig, args.KubeContext)
	newContext := func() *pipeline.Context {
		return pipeline.NewContext(providers.Options{
			Executor:    executor,
			GopassRepos: providers.ResolveGopassRepos(args.GopassRepos),
		}, client, render.Options{
			AwsProfile: args.AwsProfile,
		})
	}

	var errs *multierror.Error
	warnings := 0
	for _, srcDir := range srcDirs {
		if !utils.IsDirectory(srcDir) {
			log.Warningf("\"%s\" is not a directory, skip", srcDir)
			warnings++
			continue
		}
		opts, err := buildPipelineOptions(srcDir)
		if err != nil {
			return err
		}

		log.Infof("%s \"%s\" in \"%s\" ...", what, opts.SourceDir, opts.BuildDir)

		err = step(ctx, newContext, opts)
		if err != nil {
			log.Errorf("%s failed in source directory \"%s\"", what, opts.SourceDir)
			errs = multierror.Append(errs, err)
		}
	}

	if errs.ErrorOrNil() != nil {
		return errs
	}
	if warnings != 0 {
		log.Warningf("%s finished with %d warnings", what, warnings)
	}
	return nil
}
