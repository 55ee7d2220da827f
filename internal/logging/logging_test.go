package logging

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	values := []struct {
		verbosity int
		expected  logrus.Level
	}{
		{-1, logrus.WarnLevel},
		{0, logrus.WarnLevel},
		{1, logrus.InfoLevel},
		{2, logrus.DebugLevel},
		{3, logrus.TraceLevel},
		{10, logrus.TraceLevel},
	}

	for _, v := range values {
		assert.Equalf(t, v.expected, Level(v.verbosity), "Wrong level for verbosity %d", v.verbosity)
	}
}

func TestNewMutesNegativeVerbosity(t *testing.T) {
	assert.Equal(t, io.Discard, New(-1).Out, "Logger with negative verbosity is not muted")
	assert.NotEqual(t, io.Discard, New(0).Out, "Logger with default verbosity is muted")
}
