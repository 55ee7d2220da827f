// Package logging sets up the loggers of the command line tools.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// New returns a logger writing to the standard error with the detail given by verbosity.
// A negative verbosity mutes the logger, 0 only logs warnings and every increment adds a level, up to tracing at 3.
func New(verbosity int) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	log.SetLevel(Level(verbosity))
	if verbosity < 0 {
		log.SetOutput(io.Discard)
	}
	return log
}

// Level returns the log level corresponding to verbosity
func Level(verbosity int) logrus.Level {
	if verbosity <= 0 {
		return logrus.WarnLevel
	} else if verbosity == 1 {
		return logrus.InfoLevel
	} else if verbosity == 2 {
		return logrus.DebugLevel
	}
	return logrus.TraceLevel
}
