package buildstatus

import (
	"fmt"
	"os"
	"strings"
)

// An Action is what is done with the bisection once a target was classified
type Action int

const (
	Good  Action = iota // Mark the revision as good
	Bad                 // Mark the revision as bad
	Skip                // Skip the revision
	Abort               // Abort the bisection
)

// Actions lists every action
var Actions = []Action{Good, Bad, Skip, Abort}

// ParseAction returns the action named s
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if strings.ToLower(s) == a.String() {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid action, choose from good, bad, skip or abort", s)
}

func (a Action) String() string {
	switch a {
	case Good:
		return "good"
	case Bad:
		return "bad"
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ExitCode returns the exit code which communicates the action to a bisection driving this process, following the git bisect run protocol
func (a Action) ExitCode() int {
	switch a {
	case Good:
		return 0
	case Bad:
		return 1
	case Skip:
		return 125
	}
	return 128
}

// An ActionTable selects the action for every classification
type ActionTable struct {
	OnSuccess            Action
	OnFailure            Action
	OnDependencyFailure  Action
	OnFailureWithoutLine Action
	OnResourceLimit      Action
}

// DefaultActionTable marks successes as good, failures as bad and skips everything else
var DefaultActionTable = ActionTable{
	OnSuccess:            Good,
	OnFailure:            Bad,
	OnDependencyFailure:  Skip,
	OnFailureWithoutLine: Skip,
	OnResourceLimit:      Skip,
}

// Lookup returns the action configured for c
func (t ActionTable) Lookup(c Classification) (Action, error) {
	switch c {
	case Success:
		return t.OnSuccess, nil
	case Failure:
		return t.OnFailure, nil
	case DependencyFailure:
		return t.OnDependencyFailure, nil
	case FailureWithoutLine:
		return t.OnFailureWithoutLine, nil
	case ResourceLimit:
		return t.OnResourceLimit, nil
	}
	return 0, fmt.Errorf("no action configured for %s", c)
}

// A Bisection is the bisection primitive actions get delegated to
type Bisection interface {
	Good() error
	Bad() error
	Skip() error
	Abort() error
}

// Dispatch fires the action configured for c. Exactly one method of bisection gets called.
func (t ActionTable) Dispatch(c Classification, bisection Bisection) error {
	action, err := t.Lookup(c)
	if err != nil {
		return err
	}
	return Fire(action, bisection)
}

// Fire calls the method of bisection corresponding to action
func Fire(action Action, bisection Bisection) error {
	switch action {
	case Good:
		return bisection.Good()
	case Bad:
		return bisection.Bad()
	case Skip:
		return bisection.Skip()
	case Abort:
		return bisection.Abort()
	}
	return fmt.Errorf("%s is not a valid action", action)
}

// An ExitCodeBisection drives the bisection running this process, such as git bisect run, by exiting with the code of the action
type ExitCodeBisection struct {
	Exit func(code int) // Called with the exit code. Defaults to os.Exit
}

func (e ExitCodeBisection) quit(a Action) error {
	exit := e.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(a.ExitCode())
	return nil
}

func (e ExitCodeBisection) Good() error  { return e.quit(Good) }
func (e ExitCodeBisection) Bad() error   { return e.quit(Bad) }
func (e ExitCodeBisection) Skip() error  { return e.quit(Skip) }
func (e ExitCodeBisection) Abort() error { return e.quit(Abort) }
