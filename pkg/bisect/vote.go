package bisect

import "fmt"

// A Verdict is the judgement passed on a single revision
type Verdict int

const (
	Good Verdict = iota // The revision does not exhibit the issue
	Bad                 // The revision exhibits the issue
	Skip                // The revision can't be judged
)

func (v Verdict) String() string {
	switch v {
	case Good:
		return "good"
	case Bad:
		return "bad"
	case Skip:
		return "skip"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// A Vote is a verdict recorded for a revision
type Vote struct {
	Revision string
	Verdict  Verdict
	Name     string // The name of the skip range, only set for named skips
}

// RunnerSkipName is the name of skips recorded when a probe exits with 128
const RunnerSkipName = "runner-skip"

// DefaultSkipName is the name of skips recorded without a name being specified
const DefaultSkipName = "default"

// InterpretExitCode turns the exit code of a probe into a vote, following the git bisect run protocol.
// The Revision of the returned vote is not set. If the exit code does not correspond to any vote, the returned bool is false.
func InterpretExitCode(code int) (Vote, bool) {
	switch {
	case code == 0:
		return Vote{Verdict: Good}, true
	case code == 125:
		return Vote{Verdict: Skip}, true
	case code == 128:
		return Vote{Verdict: Skip, Name: RunnerSkipName}, true
	case code >= 1 && code <= 127:
		return Vote{Verdict: Bad}, true
	}
	return Vote{}, false
}
