package args

import (
	"fmt"

	"github.com/awesome-it/adeploy/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	FilterNamespaces []string
	FilterReleases   []string
)

func AddInclusionArgs(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&FilterNamespaces, "filter-namespace", nil, "Only include the given namespace. Glob patterns are supported. Argument can be specified multiple times.")
	cmd.Flags().StringArrayVar(&FilterReleases, "filter-release", nil, "Only include the given release, e.g. \"prod\" or \"testing\". Glob patterns are supported. Argument can be specified multiple times.")
}

func ParseFiltersFromArgs() (*utils.GlobFilter, *utils.GlobFilter, error) {
	nsFilter, err := utils.NewGlobFilter(FilterNamespaces)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --filter-namespace: %w", err)
	}
	releaseFilter, err := utils.NewGlobFilter(FilterReleases)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --filter-release: %w", err)
	}
	return nsFilter, releaseFilter, nil
}
