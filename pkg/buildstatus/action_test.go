package buildstatus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingBisection records the actions fired against it
type recordingBisection struct {
	fired []Action
}

func (r *recordingBisection) Good() error  { r.fired = append(r.fired, Good); return nil }
func (r *recordingBisection) Bad() error   { r.fired = append(r.fired, Bad); return nil }
func (r *recordingBisection) Skip() error  { r.fired = append(r.fired, Skip); return nil }
func (r *recordingBisection) Abort() error { r.fired = append(r.fired, Abort); return nil }

func TestParseAction(t *testing.T) {
	values := []struct {
		name     string
		expected Action
	}{
		{"good", Good},
		{"bad", Bad},
		{"skip", Skip},
		{"abort", Abort},
		{"SKIP", Skip},
	}
	for _, v := range values {
		action, err := ParseAction(v.name)
		assert.Nilf(t, err, "ParseAction failed for %s", v.name)
		assert.Equal(t, v.expected, action, "Wrong action parsed")
	}

	_, err := ParseAction("maybe")
	assert.NotNil(t, err, "Invalid action was parsed")
}

func TestActionExitCode(t *testing.T) {
	assert.Equal(t, 0, Good.ExitCode())
	assert.Equal(t, 1, Bad.ExitCode())
	assert.Equal(t, 125, Skip.ExitCode())
	assert.Equal(t, 128, Abort.ExitCode())
}

func TestDispatch(t *testing.T) {
	table := ActionTable{
		OnSuccess:            Good,
		OnFailure:            Bad,
		OnDependencyFailure:  Abort,
		OnFailureWithoutLine: Skip,
		OnResourceLimit:      Abort,
	}
	expected := map[Classification]Action{
		Success:            Good,
		Failure:            Bad,
		DependencyFailure:  Abort,
		FailureWithoutLine: Skip,
		ResourceLimit:      Abort,
	}

	for _, c := range Classifications {
		bisection := &recordingBisection{}
		assert.Nilf(t, table.Dispatch(c, bisection), "Dispatch of %s failed", c)
		assert.Equalf(t, []Action{expected[c]}, bisection.fired, "Wrong actions fired for %s", c)
	}

	bisection := &recordingBisection{}
	assert.NotNil(t, table.Dispatch(Classification(42), bisection), "Unknown classification was dispatched")
	assert.Empty(t, bisection.fired, "Action fired for unknown classification")
}

func TestExitCodeBisection(t *testing.T) {
	var codes []int
	bisection := ExitCodeBisection{Exit: func(code int) { codes = append(codes, code) }}

	for _, a := range Actions {
		assert.Nil(t, Fire(a, bisection), "Fire returned an error")
	}
	assert.Equal(t, []int{0, 1, 125, 128}, codes, "Wrong exit codes")
}
