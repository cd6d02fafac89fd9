package args

import (
	"github.com/spf13/cobra"
)

var (
	GopassRepos []string
	AwsProfile  string
)

func AddSecretsArgs(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&GopassRepos, "gopass-repo", nil, "Gopass repository prefix to search for secrets after the store root. Argument can be specified multiple times. Defaults to the comma separated list in ADEPLOY_GOPASS_REPOS.")
	cmd.Flags().StringVar(&AwsProfile, "aws-profile", "", "AWS profile used for AWS Secrets Manager lookups.")

	// ADEPLOY_GOPASS_REPOS is a comma separated list and handled by the gopass provider
	_ = cmd.Flags().SetAnnotation("gopass-repo", "skipenv", []string{"true"})
}
