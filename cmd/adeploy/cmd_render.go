package main

import (
	"github.com/awesome-it/adeploy/cmd/adeploy/args"
	"github.com/awesome-it/adeploy/pkg/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runCmdRender(cmd *cobra.Command, srcDirs []string) error {
	return runPipelineStep(cmd.Context(), srcDirs, "Rendering", contextStep((*pipeline.Context).Render))
}

func init() {
	var cmd = &cobra.Command{
		Use:   "render [src-dir...]",
		Short: "Renders all manifests and secrets of the given deployments",
		Long: "Renders the manifest templates for every namespace and release found in the namespaces directory " +
			"and stores the rendered manifests and the secret definitions in the build directory. " +
			"Secret values are not resolved while rendering.",
		RunE: runCmdRender,
	}
	args.AddProjectArgs(cmd)
	args.AddInclusionArgs(cmd)
	args.AddSecretsArgs(cmd)

	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(cmd)
}
