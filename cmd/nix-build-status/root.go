package main

import (
	"context"
	"fmt"
	"os"

	"github.com/DominicWuest/nix-bisect/internal/logging"
	"github.com/DominicWuest/nix-bisect/internal/nix"
	"github.com/DominicWuest/nix-bisect/pkg/buildstatus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbosity int
var quiet bool

var configPath string
var file string
var maxRebuilds int
var failureLine string

var onSuccess, onFailure, onDependencyFailure, onFailureWithoutLine, onResourceLimit string

// exit terminates the process with the exit code of a bisect action
var exit = os.Exit

// newBuildSystem returns the build system targets are queried with
var newBuildSystem = func(log *logrus.Logger) buildstatus.BuildSystem {
	return nix.NewStore(logrus.NewEntry(log), os.Stderr)
}

var rootCmd = &cobra.Command{
	Use:   "nix-build-status drvish",
	Short: "Build a package with nix, suitable for git-bisect",
	Long: `Determine the status of a nix build as lazily as possible and exit with a code git bisect run understands.

The target is either a derivation file or an attribute, which is evaluated in the context of the nix file given by --file.
Dependencies are checked before the target is built, a broken dependency results in a dependency failure without the target being built.

Each outcome is mapped to one of the bisect actions good, bad, skip or abort, which exit with 0, 1, 125 and 128 respectively.
Invalid arguments always abort the bisection.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if quiet {
			verbosity = -1
		}
		log := logging.New(verbosity)

		config, err := buildConfig(cmd)
		if err != nil {
			log.Errorf("Invalid configuration - %v", err)
			abort()
			return
		}

		status, err := buildstatus.Classify(context.Background(), newBuildSystem(log), args[0], config, log)
		if err != nil {
			log.Errorf("Failed to query status of %s - %v", args[0], err)
			abort()
			return
		}

		fmt.Fprintln(cmd.OutOrStdout(), status.Classification)
		log.Infof("Status of %s is %s after %d builds", status.Derivation, status.Classification, status.BuildsAttempted)

		if err := config.Actions.Dispatch(status.Classification, buildstatus.ExitCodeBisection{Exit: exit}); err != nil {
			log.Errorf("Failed to dispatch action - %v", err)
			abort()
		}
	},
}

// buildConfig reads the config file, if one was given, and overrides it with the flags set on the command line
func buildConfig(cmd *cobra.Command) (buildstatus.Config, error) {
	config := buildstatus.DefaultConfig()
	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return config, err
		}
		defer f.Close()
		if config, err = buildstatus.GetConfigFromYaml(f); err != nil {
			return config, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("file") || configPath == "" {
		config.File = file
	}
	if flags.Changed("max-rebuilds") {
		if maxRebuilds < 0 {
			return config, fmt.Errorf("max rebuilds must not be negative, got %d", maxRebuilds)
		}
		config.MaxRebuilds = &maxRebuilds
	}
	if flags.Changed("failure-line") {
		config.FailureLine = &failureLine
	}

	for _, action := range []struct {
		flag   string
		value  string
		action *buildstatus.Action
	}{
		{"on-success", onSuccess, &config.Actions.OnSuccess},
		{"on-failure", onFailure, &config.Actions.OnFailure},
		{"on-dependency-failure", onDependencyFailure, &config.Actions.OnDependencyFailure},
		{"on-failure-without-line", onFailureWithoutLine, &config.Actions.OnFailureWithoutLine},
		{"on-resource-limit", onResourceLimit, &config.Actions.OnResourceLimit},
	} {
		if !flags.Changed(action.flag) && configPath != "" {
			continue
		}
		parsed, err := buildstatus.ParseAction(action.value)
		if err != nil {
			return config, fmt.Errorf("--%s: %v", action.flag, err)
		}
		*action.action = parsed
	}

	return config, nil
}

// abort aborts the bisection driving this process
func abort() {
	buildstatus.ExitCodeBisection{Exit: exit}.Abort()
}

// Execute runs the command. Any argument error, as well as a request for help, aborts the bisection.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, rootCmd.UsageString())
		abort()
		return
	}
	if help := rootCmd.Flags().Lookup("help"); help != nil && help.Changed {
		abort()
	}
}

func init() {
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase the verbosity of the log, may be repeated")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Don't log anything")

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Yaml file holding the configuration. Flags take precedence over its values")
	rootCmd.Flags().StringVarP(&file, "file", "f", ".", "Nix file that contains the attribute")
	rootCmd.Flags().IntVar(&maxRebuilds, "max-rebuilds", 0, "Number of builds to allow. Unlimited if not set")
	rootCmd.Flags().StringVar(&failureLine, "failure-line", "", "Line required in the build logs to count as a failure")

	rootCmd.Flags().StringVar(&onSuccess, "on-success", "good", "Bisect action if the expression can be successfully built")
	rootCmd.Flags().StringVar(&onFailure, "on-failure", "bad", "Bisect action if the expression fails to build and the failure line is present")
	rootCmd.Flags().StringVar(&onDependencyFailure, "on-dependency-failure", "skip", "Bisect action if a dependency of the expression fails to build")
	rootCmd.Flags().StringVar(&onFailureWithoutLine, "on-failure-without-line", "skip", "Bisect action if the expression fails to build but the failure line is missing")
	rootCmd.Flags().StringVar(&onResourceLimit, "on-resource-limit", "skip", "Bisect action if a resource limit like rebuild count is exceeded")

	rootCmd.MarkFlagFilename("config", "yml", "yaml")
	rootCmd.MarkFlagFilename("file", "nix")
}
