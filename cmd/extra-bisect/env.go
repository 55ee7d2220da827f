package main

import (
	"context"
	"os"

	"github.com/DominicWuest/nix-bisect/pkg/bisect"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env [cmd] [args...]",
	Short: "Run a command in the environment of the current revision",
	Long: `Run a command in the environment of the current revision, without voting.
The patchset of the revision currently checked out is applied by the environment tool before the command is run.
If no command is given, an interactive bash is started.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		runner, _ := mustRunner(ctx)

		if len(args) == 0 {
			args = []string{"bash"}
		}

		patchset, err := runner.ReadPatchset(ctx)
		if err != nil {
			log.Fatalf("Failed to read patchset - %v", err)
		}
		argv, err := runner.EnvCommand(patchset, args)
		if err != nil {
			log.Fatalf("Failed to build environment command - %v", err)
		}

		log.Infof("Running %s", shellquote.Join(argv...))
		code, err := bisect.ExecProbe{}.Run(ctx, argv)
		if err != nil {
			log.Fatalf("Failed to run %s - %v", args[0], err)
		}
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(envCmd)

	// Everything after the command belongs to the command
	envCmd.Flags().SetInterspersed(false)
}
