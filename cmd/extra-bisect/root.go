package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/DominicWuest/nix-bisect/internal/git"
	"github.com/DominicWuest/nix-bisect/internal/logging"
	"github.com/DominicWuest/nix-bisect/pkg/bisect"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// noSubcommandExitCode is returned if no subcommand was given
const noSubcommandExitCode = 128

var verbosity int
var quiet bool

// exit terminates the process
var exit = os.Exit

// log is the logger of the invoked command, set up before any command runs
var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "extra-bisect",
	Short: "git-bisect with extra features",
	Long: `git-bisect with extra features.

Votes are forwarded to git bisect, after which the next revision to test is checked out.
Skips can be named, to keep revisions which are untestable for unrelated reasons apart.
Every revision can have a patchset, i.e. commits to cherry-pick and environment variables to set, which is applied by bisect-env whenever a command is run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			verbosity = -1
		}
		log = logging.New(verbosity)
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		exit(noSubcommandExitCode)
	},
}

// newRunner returns a runner for the repository in the working directory
func newRunner(ctx context.Context) (*bisect.Runner, *bisect.Store, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	entry := logrus.NewEntry(log)
	repo := git.NewRepo(dir, entry)
	gitDir, err := repo.GitDir(ctx)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("%s is not a git repository", dir), err)
	}
	store := bisect.OpenStore(gitDir)
	return bisect.NewRunner(repo, store, entry), store, nil
}

// mustRunner returns a runner for the repository in the working directory, exiting if that fails
func mustRunner(ctx context.Context) (*bisect.Runner, *bisect.Store) {
	runner, store, err := newRunner(ctx)
	if err != nil {
		log.Fatalf("Failed to open bisection - %v", err)
	}
	return runner, store
}

// advance checks out the next revision to test
func advance(ctx context.Context, runner *bisect.Runner) {
	advanced, err := runner.Advance(ctx)
	if err != nil {
		log.Fatalf("Failed to advance bisection - %v", err)
	}
	if !advanced {
		log.Warn("Bisection is done, no revisions left to test")
	}
}

// Execute runs the matching subcommand. Errors without a matching subcommand exit with the same code as giving none.
func Execute() {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}
	logrus.Errorf("%v", err)
	if cmd == rootCmd {
		exit(noSubcommandExitCode)
		return
	}
	exit(1)
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase the verbosity of the log, may be repeated")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Don't log anything")
}
