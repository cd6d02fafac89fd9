package main

import (
	"github.com/awesome-it/adeploy/cmd/adeploy/args"
	"github.com/awesome-it/adeploy/pkg/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runCmdDeploy(cmd *cobra.Command, srcDirs []string) error {
	return runPipelineStep(cmd.Context(), srcDirs, "Deploying", contextStep((*pipeline.Context).Deploy))
}

func init() {
	var cmd = &cobra.Command{
		Use:   "deploy [src-dir...]",
		Short: "Deploys the rendered manifests and secrets to the cluster",
		Long: "Creates missing secrets, removes orphaned secrets of the deployment and applies the rendered " +
			"manifests from the build directory.\n\n" +
			"Existing secrets are only re-created with --recreate-secrets. A deployment that was last " +
			"deployed to another cluster is refused unless --force-cluster is given.",
		RunE: runCmdDeploy,
	}
	args.AddProjectArgs(cmd)
	args.AddInclusionArgs(cmd)
	args.AddSecretsArgs(cmd)
	args.AddClusterArgs(cmd)
	args.AddDeployArgs(cmd, args.EnabledDeployArguments{
		RecreateSecrets: true,
		ForceCluster:    true,
		DryRun:          true,
	})

	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(cmd)
}
