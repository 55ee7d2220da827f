// Package nix implements the build system of status queries on top of the nix command line tools.
package nix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// A CommandError is returned when a nix command fails
type CommandError struct {
	Args     []string
	Stderr   string
	ExitCode int // The exit code of the command, or -1 if it did not exit normally
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// runFunc runs a command and returns its standard output
type runFunc func(ctx context.Context, args ...string) (string, error)

// A Store answers build queries by calling nix-instantiate and nix-store
type Store struct {
	log *logrus.Entry
	run runFunc
}

// NewStore creates a new store. Output of builds is forwarded to buildOutput, if it is not nil.
func NewStore(log *logrus.Entry, buildOutput io.Writer) *Store {
	return &Store{
		log: log,
		run: func(ctx context.Context, args ...string) (string, error) {
			cmd := exec.CommandContext(ctx, args[0], args[1:]...)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			if buildOutput != nil {
				cmd.Stderr = io.MultiWriter(&stderr, buildOutput)
			}
			log.Tracef("Running %s", strings.Join(args, " "))
			if err := cmd.Run(); err != nil {
				exitCode := -1
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					exitCode = exitErr.ExitCode()
				}
				return stdout.String(), &CommandError{Args: args, Stderr: stderr.String(), ExitCode: exitCode, Err: err}
			}
			return stdout.String(), nil
		},
	}
}

// Instantiate evaluates the attribute expr of file and returns the resulting derivation
func (s *Store) Instantiate(ctx context.Context, expr, file string) (string, error) {
	out, err := s.run(ctx, "nix-instantiate", file, "-A", expr)
	if err != nil {
		return "", err
	}
	drvs := lines(out)
	if len(drvs) != 1 {
		return "", fmt.Errorf("expected %s to evaluate to a single derivation, got %d", expr, len(drvs))
	}
	s.log.Debugf("Instantiated %s to %s", expr, drvs[0])
	return drvs[0], nil
}

// Dependencies returns the input derivations of drv in the order nix-store lists them
func (s *Store) Dependencies(ctx context.Context, drv string) ([]string, error) {
	out, err := s.run(ctx, "nix-store", "--query", "--references", drv)
	if err != nil {
		return nil, err
	}
	deps := []string{}
	for _, ref := range lines(out) {
		// References also contain sources, only derivations can be built
		if strings.HasSuffix(ref, ".drv") {
			deps = append(deps, ref)
		}
	}
	return deps, nil
}

// IsBuilt reports whether every output of drv is valid in the store
func (s *Store) IsBuilt(ctx context.Context, drv string) (bool, error) {
	out, err := s.run(ctx, "nix-store", "--query", "--outputs", drv)
	if err != nil {
		return false, err
	}
	outputs := lines(out)
	if len(outputs) == 0 {
		return false, fmt.Errorf("derivation %s has no outputs", drv)
	}

	out, err = s.run(ctx, append([]string{"nix-store", "--check-validity", "--print-invalid"}, outputs...)...)
	if err != nil {
		return false, err
	}
	return len(lines(out)) == 0, nil
}

// Build realises drv. A build exiting with a non-zero exit code counts as a failed build, not as an error.
func (s *Store) Build(ctx context.Context, drv string) (bool, error) {
	_, err := s.run(ctx, "nix-store", "--realise", drv)
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		s.log.Debugf("nix-store --realise %s exited with %d", drv, cmdErr.ExitCode)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Log returns the build log of drv
func (s *Store) Log(ctx context.Context, drv string) ([]byte, error) {
	out, err := s.run(ctx, "nix-store", "--read-log", drv)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// lines splits out into its non-empty lines
func lines(out string) []string {
	res := []string{}
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			res = append(res, line)
		}
	}
	return res
}
