package main

import (
	"context"

	"github.com/awesome-it/adeploy/cmd/adeploy/args"
	"github.com/awesome-it/adeploy/pkg/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchOpts pipeline.WatchOptions

func runCmdWatch(cmd *cobra.Command, srcDirs []string) error {
	return runPipelineStep(cmd.Context(), srcDirs, "Watching", func(ctx context.Context, newContext func() *pipeline.Context, opts pipeline.Options) error {
		return pipeline.Watch(ctx, opts, watchOpts, newContext)
	})
}

func init() {
	var cmd = &cobra.Command{
		Use:   "watch [src-dir]",
		Short: "Renders the deployments again whenever the source dir changes",
		Long: "Renders all deployments and watches the source directory for changes. On every change, " +
			"all deployments are rendered again and optionally tested and deployed. Stop with Ctrl+C.",
		Args: cobra.MaximumNArgs(1),
		RunE: runCmdWatch,
	}
	args.AddProjectArgs(cmd)
	args.AddInclusionArgs(cmd)
	args.AddSecretsArgs(cmd)
	args.AddClusterArgs(cmd)
	args.AddDeployArgs(cmd, args.EnabledDeployArguments{
		RecreateSecrets: true,
		ForceCluster:    true,
	})
	cmd.Flags().BoolVar(&watchOpts.Test, "test", false, "Test all deployments after each change.")
	cmd.Flags().BoolVar(&watchOpts.Deploy, "deploy", false, "Deploy all deployments after each successful test. Requires --test.")
	cmd.Flags().BoolVar(&watchOpts.DeployOnStart, "deploy-on-start", false, "Test and deploy once after the initial rendering.")
	cmd.Flags().DurationVar(&watchOpts.Delay, "delay", pipeline.DefaultWatchDelay, "Time to wait for further changes before rendering again.")

	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(cmd)
}
