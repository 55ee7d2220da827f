package main

import (
	"context"

	"github.com/DominicWuest/nix-bisect/pkg/bisect"
	"github.com/spf13/cobra"
)

var skipName string

var goodCmd = &cobra.Command{
	Use:   "good [rev]",
	Short: "Mark a revision as good and check out the next one",
	Long: `Mark a revision as good and check out the next one.
If no revision is given, the revision currently checked out is marked.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		vote(bisect.Good, revArg(args))
	},
}

var badCmd = &cobra.Command{
	Use:   "bad [rev]",
	Short: "Mark a revision as bad and check out the next one",
	Long: `Mark a revision as bad and check out the next one.
If no revision is given, the revision currently checked out is marked.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		vote(bisect.Bad, revArg(args))
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip [rev]",
	Short: "Mark a revision as belonging to a skip range and check out the next one",
	Long: `Mark a revision as belonging to a skip range and check out the next one.
If no revision is given, the revision currently checked out is skipped.

Skip ranges are named, purely for display. Naming skips keeps revisions which cannot be tested for unrelated reasons apart.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		runner, _ := mustRunner(ctx)

		patchset, err := runner.ReadPatchset(ctx)
		if err != nil {
			log.Fatalf("Failed to read patchset - %v", err)
		}
		if err := runner.NamedSkip(ctx, skipName, patchset, revArg(args)); err != nil {
			log.Fatalf("Failed to skip %s - %v", revArg(args), err)
		}
		advance(ctx, runner)
	},
}

// revArg returns the revision given in args, or HEAD if none was given
func revArg(args []string) string {
	if len(args) == 0 {
		return "HEAD"
	}
	return args[0]
}

func vote(verdict bisect.Verdict, rev string) {
	ctx := context.Background()
	runner, _ := mustRunner(ctx)

	if err := runner.Record(ctx, bisect.Vote{Revision: rev, Verdict: verdict}, bisect.Patchset{}); err != nil {
		log.Fatalf("Failed to mark %s as %s - %v", rev, verdict, err)
	}
	advance(ctx, runner)
}

func init() {
	rootCmd.AddCommand(goodCmd)
	rootCmd.AddCommand(badCmd)
	rootCmd.AddCommand(skipCmd)

	skipCmd.Flags().StringVar(&skipName, "name", bisect.DefaultSkipName, "Name of the skip range, purely for display")
}
