package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "ADEPLOY"

var (
	logLevel   string
	debug      bool
	logFile    string
	skipColors bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "adeploy",
	Short: "Render, test and deploy Kubernetes manifests and secrets",
	Long: `Renders manifest templates for every namespace and release of a deployment,
provisions the referenced secrets from password stores and deploys everything
to the current cluster.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := copyViperValuesToCobraCmd(cmd)
		if err != nil {
			return err
		}
		return setupLogs()
	},
}

func setupLogs() error {
	if debug {
		logLevel = "debug"
	}
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.SetOutput(f)
		skipColors = true
	} else {
		log.SetOutput(colorable.NewColorableStderr())
		skipColors = skipColors || !isatty.IsTerminal(os.Stderr.Fd())
	}
	log.SetFormatter(&log.TextFormatter{
		DisableColors:    skipColors,
		ForceColors:      !skipColors,
		DisableTimestamp: true,
	})
	return nil
}

func copyViperValuesToCobraCmd(cmd *cobra.Command) error {
	for cmd != nil {
		err := copyViperValuesToCobraFlags(cmd.Flags())
		if err != nil {
			return err
		}
		err = copyViperValuesToCobraFlags(cmd.PersistentFlags())
		if err != nil {
			return err
		}
		cmd = cmd.Parent()
	}
	return nil
}

// copyViperValuesToCobraFlags sets all flags that were not given on the command
// line from ADEPLOY_<FLAG_NAME>. Slice values are comma separated.
func copyViperValuesToCobraFlags(flags *pflag.FlagSet) error {
	var errs *multierror.Error
	flags.VisitAll(func(flag *pflag.Flag) {
		if a := flag.Annotations["skipenv"]; len(a) != 0 && a[0] == "true" {
			return
		}
		if flag.Changed || !viper.IsSet(flag.Name) {
			return
		}
		v := viper.GetString(flag.Name)

		if sliceValue, ok := flag.Value.(pflag.SliceValue); ok {
			var a []string
			for _, x := range strings.Split(v, ",") {
				if x = strings.TrimSpace(x); x != "" {
					a = append(a, x)
				}
			}
			err := sliceValue.Replace(a)
			if err != nil {
				errs = multierror.Append(errs, err)
			}
			return
		}
		err := flag.Value.Set(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("invalid value for %s from environment: %w", flag.Name, err))
		}
	})
	return errs.ErrorOrNil()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output, same as --log-level=debug")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write the log to the given file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&skipColors, "skip-colors", false, "Disable colored log output")

	err := viper.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		panic(err)
	}
}
