package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set via -ldflags "-X main.version=..."
var version = "0.0.0"

func init() {
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "Print adeploy version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
	rootCmd.AddCommand(cmd)
}
