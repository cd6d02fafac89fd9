package main

import (
	"github.com/awesome-it/adeploy/cmd/adeploy/args"
	"github.com/awesome-it/adeploy/pkg/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runCmdTest(cmd *cobra.Command, srcDirs []string) error {
	return runPipelineStep(cmd.Context(), srcDirs, "Testing", contextStep((*pipeline.Context).Test))
}

func init() {
	var cmd = &cobra.Command{
		Use:   "test [src-dir...]",
		Short: "Tests the rendered manifests and secrets against the cluster",
		Long: "Validates the secrets and manifests from the build directory with client and server side " +
			"dry-runs. Existing secrets are left untouched and no secret values are resolved.",
		RunE: runCmdTest,
	}
	args.AddProjectArgs(cmd)
	args.AddInclusionArgs(cmd)
	args.AddSecretsArgs(cmd)
	args.AddClusterArgs(cmd)

	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(cmd)
}
