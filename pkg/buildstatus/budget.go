package buildstatus

import (
	"errors"
	"fmt"
)

// ErrRebuildLimit is returned whenever a build would have to be attempted after the rebuild budget was used up.
// It aborts the whole evaluation of a status query, not only the check that triggered it.
var ErrRebuildLimit = errors.New("rebuild limit exceeded")

// A RebuildBudget bounds the amount of builds one status query may attempt.
// The zero value is an unlimited budget.
type RebuildBudget struct {
	limited bool
	max     int
	used    int
}

// NewRebuildBudget returns a budget allowing max builds. A nil max results in an unlimited budget.
func NewRebuildBudget(max *int) *RebuildBudget {
	if max == nil {
		return &RebuildBudget{}
	}
	return &RebuildBudget{limited: true, max: *max}
}

// consume books one build attempt. It fails with ErrRebuildLimit if the budget is already exhausted,
// in which case the build must not be attempted.
func (b *RebuildBudget) consume(drv string) error {
	if b.limited && b.used >= b.max {
		return fmt.Errorf("building %s would exceed the limit of %d builds: %w", drv, b.max, ErrRebuildLimit)
	}
	b.used++
	return nil
}

// Used returns how many builds were attempted so far
func (b *RebuildBudget) Used() int {
	return b.used
}

// Remaining returns how many more builds may be attempted, or -1 if the budget is unlimited
func (b *RebuildBudget) Remaining() int {
	if !b.limited {
		return -1
	}
	return b.max - b.used
}
