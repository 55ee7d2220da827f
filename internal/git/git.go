// Package git implements the bisection primitive on top of git bisect.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/DominicWuest/nix-bisect/pkg/bisect"
	"github.com/sirupsen/logrus"
)

// onlySkippedLeft is printed by git bisect if every remaining candidate was skipped
const onlySkippedLeft = "only 'skip'ped commits left"

// A CommandError is returned when a git command fails
type CommandError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// A Repo is a git repository in which a bisection is in progress
type Repo struct {
	Dir string // The working tree of the repository

	log *logrus.Entry
}

// NewRepo returns the repository at dir
func NewRepo(dir string, log *logrus.Entry) *Repo {
	return &Repo{Dir: dir, log: log}
}

func (r *Repo) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.Dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	r.log.Tracef("Running git %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return stdout.String(), &CommandError{Args: args, Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// Mark records verdict for rev using git bisect
func (r *Repo) Mark(ctx context.Context, verdict bisect.Verdict, rev string) error {
	switch verdict {
	case bisect.Good, bisect.Bad, bisect.Skip:
	default:
		return fmt.Errorf("%s is not a verdict git bisect understands", verdict)
	}
	out, err := r.runGit(ctx, "bisect", verdict.String(), rev)
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Stdout+cmdErr.Stderr, onlySkippedLeft) {
		// The vote was recorded, git merely failed to pick the next revision
		r.log.Debugf("git bisect %s %s left only skipped revisions", verdict, rev)
		return nil
	}
	if err != nil {
		return err
	}
	r.log.Debugf("git bisect %s %s: %s", verdict, rev, strings.TrimSpace(out))
	return nil
}

// Next returns the revision which should be tested next.
// If no untested revision is left, the returned bool is false.
func (r *Repo) Next(ctx context.Context) (string, bool, error) {
	bad, err := r.ResolveRev(ctx, "refs/bisect/bad")
	if err != nil {
		return "", false, fmt.Errorf("no bad revision known, is a bisection in progress? - %v", err)
	}
	goods, err := r.refs(ctx, "refs/bisect/good-*")
	if err != nil {
		return "", false, err
	}
	skips, err := r.refs(ctx, "refs/bisect/skip-*")
	if err != nil {
		return "", false, err
	}
	skipped := make(map[string]bool)
	for _, skip := range skips {
		skipped[skip] = true
	}

	args := []string{"rev-list", "--bisect-all", bad}
	if len(goods) > 0 {
		args = append(append(args, "--not"), goods...)
	}
	out, err := r.runGit(ctx, args...)
	if err != nil {
		return "", false, err
	}

	// Candidates are ordered by how well they split the remaining revisions
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		candidate := fields[0]
		if candidate == bad || skipped[candidate] {
			continue
		}
		return candidate, true, nil
	}
	return "", false, nil
}

// Checkout switches the working tree to rev
func (r *Repo) Checkout(ctx context.Context, rev string) error {
	r.log.Infof("Checking out %s", rev)
	_, err := r.runGit(ctx, "checkout", "--quiet", rev)
	return err
}

// ResolveRev returns the commit hash rev refers to
func (r *Repo) ResolveRev(ctx context.Context, rev string) (string, error) {
	out, err := r.runGit(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// GitDir returns the absolute path of the repository's git directory
func (r *Repo) GitDir(ctx context.Context) (string, error) {
	out, err := r.runGit(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// refs returns the commit hashes of all refs matching pattern
func (r *Repo) refs(ctx context.Context, pattern string) ([]string, error) {
	out, err := r.runGit(ctx, "for-each-ref", "--format=%(objectname)", pattern)
	if err != nil {
		return nil, err
	}
	res := []string{}
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			res = append(res, line)
		}
	}
	return res, nil
}
