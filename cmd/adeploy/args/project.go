package args

import (
	"github.com/spf13/cobra"
)

var (
	BuildDir      string
	DefaultsFile  string
	NamespacesDir string
	TemplatesDir  string
	Name          string
)

func AddProjectArgs(cmd *cobra.Command) {
	cmd.Flags().StringVar(&BuildDir, "build-dir", "./build", "Build directory for output")
	cmd.Flags().StringVar(&DefaultsFile, "defaults", "defaults.yml", "YAML file or directory containing <name>.yml with default variables. Relative to source dirs.")
	cmd.Flags().StringVar(&NamespacesDir, "namespaces", "namespaces", "Directory containing namespaces and variables for deployments. Relative to source dirs.")
	cmd.Flags().StringVar(&TemplatesDir, "templates", "templates", "Directory containing the manifest templates. Relative to source dirs.")
	cmd.Flags().StringVarP(&Name, "name", "n", "", "Specify a deployment name. This will overwrite the deployment name derived from the source dir")
}
