package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevArg(t *testing.T) {
	assert.Equal(t, "HEAD", revArg(nil))
	assert.Equal(t, "v1.0", revArg([]string{"v1.0"}))
}

func TestSubcommands(t *testing.T) {
	for _, name := range []string{"good", "bad", "skip", "env", "run", "patch", "show", "clear-skips"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		})
	}

	cmd, _, err := rootCmd.Find([]string{"clean"})
	require.NoError(t, err)
	assert.Equal(t, "clear-skips", cmd.Name())
}

func TestProbeFlagsAreNotInterspersed(t *testing.T) {
	for _, name := range []string{"env", "run"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		require.NoError(t, cmd.Flags().Parse([]string{"make", "-j4", "--keep-going"}))
		assert.Equal(t, []string{"make", "-j4", "--keep-going"}, cmd.Flags().Args(), name)
	}
}

// execute runs the command with args and returns the exit codes it terminated with
func execute(t *testing.T, args ...string) []int {
	t.Helper()
	codes := []int{}
	oldExit := exit
	t.Cleanup(func() {
		exit = oldExit
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
	})
	exit = func(code int) { codes = append(codes, code) }

	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--quiet"}, args...))
	Execute()
	return codes
}

func TestExecuteExitCodes(t *testing.T) {
	values := []struct {
		name     string
		args     []string
		expected []int
	}{
		{"no subcommand", []string{}, []int{noSubcommandExitCode}},
		{"unknown subcommand", []string{"bogus"}, []int{noSubcommandExitCode}},
		{"failing subcommand", []string{"patch"}, []int{1}},
		{"invalid subcommand arguments", []string{"show", "extra"}, []int{1}},
	}

	for _, v := range values {
		t.Run(v.name, func(t *testing.T) {
			assert.Equal(t, v.expected, execute(t, v.args...), "Wrong exit codes")
		})
	}
}
