package buildstatus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// ErrNoDependencyFailure is returned by [Derivation.SampleDependencyFailure] if no failing dependency is known.
var ErrNoDependencyFailure = errors.New("no failing dependency known")

// A BuildSystem is the build tool derivations are evaluated against
type BuildSystem interface {
	// Instantiate resolves an expression in the context of a definition file to a derivation
	Instantiate(ctx context.Context, expr, file string) (string, error)
	// Dependencies returns the input derivations of drv. The order is fixed for an unchanged drv
	Dependencies(ctx context.Context, drv string) ([]string, error)
	// IsBuilt reports whether all outputs of drv are already valid, meaning no build is needed
	IsBuilt(ctx context.Context, drv string) (bool, error)
	// Build builds drv. A derivation failing to build is reported by false, not by an error
	Build(ctx context.Context, drv string) (bool, error)
	// Log returns the log of the last build of drv
	Log(ctx context.Context, drv string) ([]byte, error)
}

// A node is the result of evaluating a single derivation of the graph
type node struct {
	drv       string
	buildable bool
	culprit   string // The derivation whose own build failed and made this one unbuildable. Empty if buildable
}

// A frame is a derivation on the traversal stack whose dependencies are still being evaluated
type frame struct {
	drv  string
	deps []string
	next int // Index into deps of the next dependency to evaluate
}

// A Derivation is a buildable unit whose dependency closure is evaluated lazily.
// A Derivation is bound to a single status query and its rebuild budget, results are memoized for its lifetime.
type Derivation struct {
	Path string // The path of the derivation file

	system BuildSystem
	budget *RebuildBudget
	log    *logrus.Entry

	index map[string]int // Position of every evaluated derivation in nodes
	nodes []node         // Evaluated derivations, in the order their evaluation finished

	depsChecked bool
	depsOK      bool
	failure     string // The first failing dependency, set if depsOK is false
}

// NewDerivation creates the derivation at path. All builds it attempts are booked against budget.
// A nil budget won't limit the amount of builds, a nil log mutes the derivation.
func NewDerivation(path string, system BuildSystem, budget *RebuildBudget, log *logrus.Entry) *Derivation {
	if budget == nil {
		budget = NewRebuildBudget(nil)
	}
	if log == nil {
		muted := logrus.New()
		muted.SetOutput(io.Discard)
		log = logrus.NewEntry(muted)
	}
	return &Derivation{
		Path: path,

		system: system,
		budget: budget,
		log:    log.WithField("drv", path),

		index: make(map[string]int),
	}
}

// CanBuildDeps reports whether every dependency in the closure of the derivation can be built.
// The derivation itself is never built. Dependencies are evaluated depth-first in the order the build system lists them,
// and evaluation stops at the first dependency which fails to build.
func (d *Derivation) CanBuildDeps(ctx context.Context) (bool, error) {
	if d.depsChecked {
		return d.depsOK, nil
	}

	deps, err := d.system.Dependencies(ctx, d.Path)
	if err != nil {
		return false, errors.Join(fmt.Errorf("failed to get dependencies of %s", d.Path), err)
	}

	for _, dep := range deps {
		n, err := d.evaluate(ctx, dep)
		if err != nil {
			return false, err
		}
		if !n.buildable {
			d.log.Debugf("Dependency %s is broken, caused by %s", dep, n.culprit)
			d.depsChecked, d.depsOK, d.failure = true, false, n.culprit
			return false, nil
		}
	}

	d.depsChecked, d.depsOK = true, true
	return true, nil
}

// SampleDependencyFailure returns a dependency which is known to fail to build.
// It is only valid after [Derivation.CanBuildDeps] returned false and otherwise fails with [ErrNoDependencyFailure].
// The returned dependency is the first one whose own build failed during the traversal, so it is stable across calls.
func (d *Derivation) SampleDependencyFailure() (string, error) {
	if !d.depsChecked || d.depsOK {
		return "", ErrNoDependencyFailure
	}
	return d.failure, nil
}

// IsBuilt reports whether all outputs of the derivation are already valid, without building anything
func (d *Derivation) IsBuilt(ctx context.Context) (bool, error) {
	if n, ok := d.lookup(d.Path); ok && n.buildable {
		return true, nil
	}
	built, err := d.system.IsBuilt(ctx, d.Path)
	if err != nil {
		return false, errors.Join(fmt.Errorf("failed to check validity of %s", d.Path), err)
	}
	if built {
		d.record(d.Path, true, "")
	}
	return built, nil
}

// CanBuild reports whether the derivation itself builds.
// It assumes the dependencies were verified to be buildable using [Derivation.CanBuildDeps].
func (d *Derivation) CanBuild(ctx context.Context) (bool, error) {
	if n, ok := d.lookup(d.Path); ok {
		return n.buildable, nil
	}

	built, err := d.IsBuilt(ctx)
	if err != nil || built {
		return built, err
	}

	ok, err := d.attempt(ctx, d.Path)
	if err != nil {
		return false, err
	}
	culprit := ""
	if !ok {
		culprit = d.Path
	}
	d.record(d.Path, ok, culprit)
	return ok, nil
}

// LogContains reports whether the build log of the derivation contains the literal marker
func (d *Derivation) LogContains(ctx context.Context, marker string) (bool, error) {
	buildLog, err := d.system.Log(ctx, d.Path)
	if err != nil {
		return false, errors.Join(fmt.Errorf("failed to read build log of %s", d.Path), err)
	}
	return bytes.Contains(buildLog, []byte(marker)), nil
}

// evaluate determines whether drv can be built, building its closure as needed.
// The traversal uses an explicit stack; every derivation is evaluated at most once.
func (d *Derivation) evaluate(ctx context.Context, drv string) (node, error) {
	if n, ok := d.lookup(drv); ok {
		return n, nil
	}

	visiting := make(map[string]bool)
	stack := []frame{}

	// push queues drv for evaluation, unless its outputs are already present
	push := func(drv string) error {
		built, err := d.system.IsBuilt(ctx, drv)
		if err != nil {
			return errors.Join(fmt.Errorf("failed to check validity of %s", drv), err)
		}
		if built {
			d.record(drv, true, "")
			return nil
		}
		deps, err := d.system.Dependencies(ctx, drv)
		if err != nil {
			return errors.Join(fmt.Errorf("failed to get dependencies of %s", drv), err)
		}
		visiting[drv] = true
		stack = append(stack, frame{drv: drv, deps: deps})
		return nil
	}

	if err := push(drv); err != nil {
		return node{}, err
	}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.next == len(top.deps) {
			// All dependencies build, so attempt the derivation itself
			ok, err := d.attempt(ctx, top.drv)
			if err != nil {
				return node{}, err
			}
			culprit := ""
			if !ok {
				culprit = top.drv
			}
			d.record(top.drv, ok, culprit)
			delete(visiting, top.drv)
			stack = stack[:len(stack)-1]
			continue
		}

		dep := top.deps[top.next]
		if n, ok := d.lookup(dep); ok {
			if !n.buildable {
				// A broken dependency breaks every derivation depending on it
				d.record(top.drv, false, n.culprit)
				delete(visiting, top.drv)
				stack = stack[:len(stack)-1]
				continue
			}
			top.next++
			continue
		}
		if visiting[dep] {
			return node{}, fmt.Errorf("dependency cycle detected at %s", dep)
		}
		if err := push(dep); err != nil {
			return node{}, err
		}
	}

	n, _ := d.lookup(drv)
	return n, nil
}

// attempt builds drv after booking the build against the budget
func (d *Derivation) attempt(ctx context.Context, drv string) (bool, error) {
	if err := d.budget.consume(drv); err != nil {
		d.log.Infof("Not building %s, rebuild budget exhausted", drv)
		return false, err
	}
	d.log.Infof("Building %s (%d builds so far)", drv, d.budget.Used())
	ok, err := d.system.Build(ctx, drv)
	if err != nil {
		return false, errors.Join(fmt.Errorf("failed to run build of %s", drv), err)
	}
	if !ok {
		d.log.Infof("Build of %s failed", drv)
	}
	return ok, nil
}

func (d *Derivation) lookup(drv string) (node, bool) {
	if i, ok := d.index[drv]; ok {
		return d.nodes[i], true
	}
	return node{}, false
}

func (d *Derivation) record(drv string, buildable bool, culprit string) {
	d.index[drv] = len(d.nodes)
	d.nodes = append(d.nodes, node{drv: drv, buildable: buildable, culprit: culprit})
}
