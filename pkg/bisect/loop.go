package bisect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/dchest/uniuri"
	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
)

// A ProbeExecutor runs probe commands to completion
type ProbeExecutor interface {
	// Run runs argv and returns its exit code. A probe that did not exit normally, e.g. because it was killed, results in a negative exit code
	Run(ctx context.Context, argv []string) (int, error)
}

// ExecProbe runs probes as child processes attached to the standard streams of this process
type ExecProbe struct{}

func (ExecProbe) Run(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("no probe command given")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return 0, errors.Join(fmt.Errorf("failed to run %s", argv[0]), err)
	}
	return 0, nil
}

// A State is a state of the run loop
type State int

const (
	Testing    State = iota // The probe is run against the current revision
	Recording               // The exit code of the probe is recorded as a vote
	Advancing               // The next revision is checked out
	Terminated              // The loop is done
)

func (s State) String() string {
	switch s {
	case Testing:
		return "testing"
	case Recording:
		return "recording"
	case Advancing:
		return "advancing"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// A Loop runs a probe command against revisions until the bisection is exhausted
type Loop struct {
	Runner  *Runner       // The runner votes get recorded with
	Probe   ProbeExecutor // Runs the probe command. Defaults to [ExecProbe]
	Command []string      // The probe command and its arguments

	Log *logrus.Entry // The log to which information gets printed to

	// Votes holds every vote recorded by the loop, in order
	Votes []Vote
}

// Run runs the loop until it terminates.
// The loop terminates once no revision is left to test, or if the probe exits with a code that is not a vote.
// In the latter case no vote is recorded, so the bisection can be resumed by running the loop again.
func (l *Loop) Run(ctx context.Context) error {
	if len(l.Command) == 0 {
		return fmt.Errorf("no probe command given")
	}
	if l.Probe == nil {
		l.Probe = ExecProbe{}
	}
	log := l.Log
	if log == nil {
		log = l.Runner.log
	}
	log = log.WithField("run-id", uniuri.New())

	var rev string
	var patchset Patchset
	var exitCode int

	state := Testing
	for state != Terminated {
		log.Tracef("Run loop is %s", state)
		switch state {
		case Testing:
			var err error
			if rev, err = l.Runner.Current(ctx); err != nil {
				return err
			}
			if patchset, err = l.Runner.ReadPatchset(ctx); err != nil {
				return err
			}
			argv, err := l.Runner.EnvCommand(patchset, l.Command)
			if err != nil {
				return err
			}

			log.Infof("Running %s", shellquote.Join(argv...))
			exitCode, err = l.Probe.Run(ctx, argv)
			if err != nil {
				return err
			}
			state = Recording

		case Recording:
			vote, ok := InterpretExitCode(exitCode)
			if !ok {
				log.Warnf("Probe exited with %d, which is not a vote. Stopping without recording a vote", exitCode)
				state = Terminated
				break
			}
			vote.Revision = rev
			if err := l.Runner.Record(ctx, vote, patchset); err != nil {
				return err
			}
			l.Votes = append(l.Votes, vote)
			state = Advancing

		case Advancing:
			advanced, err := l.Runner.Advance(ctx)
			if err != nil {
				return err
			}
			if advanced {
				state = Testing
			} else {
				state = Terminated
			}
		}
	}
	return nil
}
