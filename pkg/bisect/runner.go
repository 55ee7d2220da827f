package bisect

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// A Primitive is the bisection a [Runner] drives. It owns the search itself, the runner only votes and asks for candidates.
type Primitive interface {
	// Mark records verdict for rev
	Mark(ctx context.Context, verdict Verdict, rev string) error
	// Next returns the next revision to test. If the search is exhausted, the returned bool is false
	Next(ctx context.Context) (string, bool, error)
	// Checkout switches the working tree to rev
	Checkout(ctx context.Context, rev string) error
	// ResolveRev returns the commit hash rev refers to
	ResolveRev(ctx context.Context, rev string) (string, error)
}

// A Runner records votes against revisions and advances the bisection
type Runner struct {
	primitive Primitive
	store     *Store

	log *logrus.Entry
}

// NewRunner creates a runner driving primitive, keeping its patchsets and named skips in store.
// A nil log mutes the runner.
func NewRunner(primitive Primitive, store *Store, log *logrus.Entry) *Runner {
	if log == nil {
		muted := logrus.New()
		muted.SetOutput(io.Discard)
		log = logrus.NewEntry(muted)
	}
	return &Runner{
		primitive: primitive,
		store:     store,

		log: log,
	}
}

// MarkGood marks rev as good
func (r *Runner) MarkGood(ctx context.Context, rev string) error {
	return r.mark(ctx, Good, rev)
}

// MarkBad marks rev as bad
func (r *Runner) MarkBad(ctx context.Context, rev string) error {
	return r.mark(ctx, Bad, rev)
}

// MarkSkip skips rev without naming the skip
func (r *Runner) MarkSkip(ctx context.Context, rev string) error {
	return r.mark(ctx, Skip, rev)
}

// NamedSkip skips rev, which was tested with patchset, and records the skip under name.
// Naming skips keeps the unresolvable ranges of independent causes apart.
func (r *Runner) NamedSkip(ctx context.Context, name string, patchset Patchset, rev string) error {
	if name == "" {
		name = DefaultSkipName
	}
	hash, err := r.primitive.ResolveRev(ctx, rev)
	if err != nil {
		return errors.Join(fmt.Errorf("failed to resolve revision %s", rev), err)
	}
	if err := r.primitive.Mark(ctx, Skip, hash); err != nil {
		return errors.Join(fmt.Errorf("failed to skip %s", hash), err)
	}
	r.log.Infof("Skipped %s as part of skip range %q", hash, name)
	return r.store.RecordSkip(SkipRange{
		Name:     name,
		Revision: hash,
		Patchset: patchset.Digest().String(),
	})
}

// Record records vote, naming the skip if the vote carries a name.
// The patchset is only used for named skips.
func (r *Runner) Record(ctx context.Context, vote Vote, patchset Patchset) error {
	if vote.Verdict == Skip && vote.Name != "" {
		return r.NamedSkip(ctx, vote.Name, patchset, vote.Revision)
	}
	return r.mark(ctx, vote.Verdict, vote.Revision)
}

func (r *Runner) mark(ctx context.Context, verdict Verdict, rev string) error {
	hash, err := r.primitive.ResolveRev(ctx, rev)
	if err != nil {
		return errors.Join(fmt.Errorf("failed to resolve revision %s", rev), err)
	}
	if err := r.primitive.Mark(ctx, verdict, hash); err != nil {
		return errors.Join(fmt.Errorf("failed to mark %s as %s", hash, verdict), err)
	}
	r.log.Infof("Marked %s as %s", hash, verdict)
	return nil
}

// GetNext returns the next revision to test. If the bisection is exhausted, the returned bool is false.
func (r *Runner) GetNext(ctx context.Context) (string, bool, error) {
	rev, ok, err := r.primitive.Next(ctx)
	if err != nil {
		return "", false, errors.Join(fmt.Errorf("failed to get next revision"), err)
	}
	return rev, ok, nil
}

// Advance checks out the next revision to test.
// If the bisection is exhausted, nothing is checked out and the returned bool is false.
func (r *Runner) Advance(ctx context.Context) (bool, error) {
	rev, ok, err := r.GetNext(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		r.log.Info("No revisions left to test")
		return false, nil
	}
	if err := r.primitive.Checkout(ctx, rev); err != nil {
		return false, errors.Join(fmt.Errorf("failed to check out %s", rev), err)
	}
	return true, nil
}

// Current returns the commit hash of the revision currently checked out
func (r *Runner) Current(ctx context.Context) (string, error) {
	head, err := r.primitive.ResolveRev(ctx, "HEAD")
	if err != nil {
		return "", errors.Join(fmt.Errorf("failed to resolve current revision"), err)
	}
	return head, nil
}

// ReadPatchset returns the patchset active for the revision currently checked out
func (r *Runner) ReadPatchset(ctx context.Context) (Patchset, error) {
	head, err := r.Current(ctx)
	if err != nil {
		return Patchset{}, err
	}
	patchset, err := r.store.ActivePatchset(head)
	if err != nil {
		return Patchset{}, err
	}
	r.log.Debugf("Patchset %s active for %s (%s)", patchset.Name, head, patchset.Digest())
	return patchset, nil
}

// EnvArgs returns the arguments making the environment tool apply patchset
func (r *Runner) EnvArgs(patchset Patchset) []string {
	return patchset.EnvArgs()
}

// EnvCommand returns the command line running argv inside of the environment of patchset
func (r *Runner) EnvCommand(patchset Patchset, argv []string) ([]string, error) {
	tool, err := r.store.EnvTool()
	if err != nil {
		return nil, err
	}
	cmd := append([]string{tool}, r.EnvArgs(patchset)...)
	return append(cmd, argv...), nil
}
