package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/awesome-it/adeploy/cmd/adeploy/args"
	"github.com/awesome-it/adeploy/pkg/pipeline"
	"github.com/awesome-it/adeploy/pkg/yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configOut string

// writeConfig writes configs as a single JSON object to configOut or to w if
// configOut is empty.
func writeConfig(w io.Writer, configs map[string]interface{}) error {
	s, err := yaml.WriteJsonString(configs)
	if err != nil {
		return err
	}
	if configOut == "" {
		_, err = fmt.Fprintln(w, s)
		return err
	}
	err = os.WriteFile(configOut, []byte(s), 0o600)
	if err != nil {
		return err
	}
	log.Infof("Configurations stored to \"%s\"", configOut)
	return nil
}

func runCmdConfig(cmd *cobra.Command, srcDirs []string) error {
	configs := map[string]interface{}{}
	err := runPipelineStep(cmd.Context(), srcDirs, "Loading configs", contextStep(func(pc *pipeline.Context, ctx context.Context, opts pipeline.Options) error {
		c, err := pc.Config(ctx, opts)
		if err != nil {
			return err
		}
		// same as in a single source dir, the last release wins
		maps.Copy(configs, c)
		return nil
	}))
	if err != nil {
		return err
	}
	return writeConfig(cmd.OutOrStdout(), configs)
}

func init() {
	var cmd = &cobra.Command{
		Use:   "config [src-dir...]",
		Short: "Prints the resolved configuration of all deployments",
		Long: "Loads the defaults and the release configs of all deployments and prints them as a JSON object " +
			"keyed by release. Nothing is rendered and no secret values are resolved.",
		RunE: runCmdConfig,
	}
	args.AddProjectArgs(cmd)
	args.AddInclusionArgs(cmd)
	cmd.Flags().StringVarP(&configOut, "config-out", "o", "", "Write the configuration to this file instead of stdout.")

	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(cmd)
}
