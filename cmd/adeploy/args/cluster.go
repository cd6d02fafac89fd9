package args

import (
	"github.com/spf13/cobra"
)

var (
	Kubeconfig     string
	KubeContext    string
	RecreateSecret bool
	ForceCluster   bool
	DryRun         bool
)

func AddClusterArgs(cmd *cobra.Command) {
	cmd.Flags().StringVar(&Kubeconfig, "kubeconfig", "", "Path to the kubeconfig file. Defaults to the kubectl defaults.")
	cmd.Flags().StringVar(&KubeContext, "context", "", "The kubeconfig context to use.")
}

type EnabledDeployArguments struct {
	RecreateSecrets bool
	ForceCluster    bool
	DryRun          bool
}

func AddDeployArgs(cmd *cobra.Command, enabledArgs EnabledDeployArguments) {
	if enabledArgs.RecreateSecrets {
		cmd.Flags().BoolVar(&RecreateSecret, "recreate-secrets", false, "Force to re-create secrets. This might invoke a password store to retrieve secrets.")
	}
	if enabledArgs.ForceCluster {
		cmd.Flags().BoolVar(&ForceCluster, "force-cluster", false, "Deploy even if the deployment was last deployed to another cluster.")
	}
	if enabledArgs.DryRun {
		cmd.Flags().BoolVar(&DryRun, "dry-run", false, "Only report orphaned secrets instead of deleting them.")
	}
}
