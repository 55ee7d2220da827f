package buildstatus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DerivationSuffix is the file name suffix of derivation files
const DerivationSuffix = ".drv"

// A Classification is the outcome of a single status query
type Classification int

const (
	Success            Classification = iota // The target builds
	Failure                                  // The target fails to build, and its log contains the failure line if one was required
	FailureWithoutLine                       // The target fails to build, but its log lacks the required failure line
	DependencyFailure                        // A dependency of the target fails to build
	ResourceLimit                            // The rebuild budget was exhausted before a classification was reached
)

// Classifications lists every classification
var Classifications = []Classification{Success, Failure, FailureWithoutLine, DependencyFailure, ResourceLimit}

func (c Classification) String() string {
	switch c {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case FailureWithoutLine:
		return "failure_without_line"
	case DependencyFailure:
		return "dependency_failure"
	case ResourceLimit:
		return "resource_limit"
	}
	return fmt.Sprintf("Classification(%d)", int(c))
}

// A Status is the result of classifying a target
type Status struct {
	Derivation     string         // The derivation the target resolved to
	Classification Classification // The classification of the derivation

	FailedDependency string // A dependency which fails to build. Only set for a DependencyFailure
	BuildsAttempted  int    // The amount of builds attempted while classifying
}

// ResolveTarget turns a target identifier into a derivation.
// An existing file whose name ends in [DerivationSuffix] is used verbatim, every other target is instantiated in the context of file.
func ResolveTarget(ctx context.Context, system BuildSystem, target, file string) (string, error) {
	if info, err := os.Stat(target); err == nil && !info.IsDir() && strings.HasSuffix(filepath.Base(target), DerivationSuffix) {
		return target, nil
	}
	drv, err := system.Instantiate(ctx, target, file)
	if err != nil {
		return "", errors.Join(fmt.Errorf("failed to instantiate %s in the context of %s", target, file), err)
	}
	return drv, nil
}

// Classify determines the status of target as lazily as possible.
// Exhausting the rebuild budget results in a [ResourceLimit] classification, regardless of what was determined up to that point.
// Errors of the build system are returned as is and are not classified.
func Classify(ctx context.Context, system BuildSystem, target string, config Config, log *logrus.Logger) (Status, error) {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	drvPath, err := ResolveTarget(ctx, system, target, config.File)
	if err != nil {
		return Status{}, err
	}
	log.Infof("Querying status of %s.", drvPath)

	budget := NewRebuildBudget(config.MaxRebuilds)
	drv := NewDerivation(drvPath, system, budget, logrus.NewEntry(log))

	status := Status{Derivation: drvPath}
	status.Classification, status.FailedDependency, err = classify(ctx, drv, config.FailureLine)
	status.BuildsAttempted = budget.Used()
	if errors.Is(err, ErrRebuildLimit) {
		log.Warnf("Rebuild limit reached while querying %s - %v", drvPath, err)
		status.Classification, status.FailedDependency = ResourceLimit, ""
		return status, nil
	}
	if err != nil {
		return Status{}, err
	}

	if status.Classification == DependencyFailure {
		log.Warnf("Dependency %s failed to build.", status.FailedDependency)
	}
	return status, nil
}

func classify(ctx context.Context, drv *Derivation, failureLine *string) (Classification, string, error) {
	// A valid target needs neither its dependencies nor a build
	built, err := drv.IsBuilt(ctx)
	if err != nil {
		return 0, "", err
	}
	if built {
		return Success, "", nil
	}

	depsOK, err := drv.CanBuildDeps(ctx)
	if err != nil {
		return 0, "", err
	}
	if !depsOK {
		failed, err := drv.SampleDependencyFailure()
		if err != nil {
			return 0, "", err
		}
		return DependencyFailure, failed, nil
	}

	ok, err := drv.CanBuild(ctx)
	if err != nil {
		return 0, "", err
	}
	if ok {
		return Success, "", nil
	}

	if failureLine == nil {
		return Failure, "", nil
	}
	found, err := drv.LogContains(ctx, *failureLine)
	if err != nil {
		return 0, "", err
	}
	if found {
		return Failure, "", nil
	}
	return FailureWithoutLine, "", nil
}
