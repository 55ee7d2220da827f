package main

import (
	"context"

	"github.com/DominicWuest/nix-bisect/pkg/bisect"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run cmd [args...]",
	Short: "Bisect automatically by running a command on every revision",
	Long: `Bisect automatically by running a command on every revision, inside of the environment of the revision.
The exit code of the command controls the bisection:
  0          marks the revision as good
  125        skips the revision
  128        skips the revision, naming the skip "runner-skip"
  1 to 127   marks the revision as bad
Any other exit code, for example of a command killed by a signal, stops the bisection without voting.
Running the command again resumes the bisection.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		runner, _ := mustRunner(ctx)

		loop := bisect.Loop{
			Runner:  runner,
			Command: args,
			Log:     logrus.NewEntry(log),
		}
		if err := loop.Run(ctx); err != nil {
			log.Fatalf("Bisection run failed - %v", err)
		}
		log.Infof("Bisection run recorded %d votes", len(loop.Votes))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Everything after the command belongs to the command
	runCmd.Flags().SetInterspersed(false)
}
