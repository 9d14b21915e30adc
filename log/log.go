// Package log provides logrus loggers configured from environment.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LevelEnv sets the level of loggers, e.g. MUSIFORGE_LOG=debug.
const LevelEnv = "MUSIFORGE_LOG"

// Logger is a global interface for musiforge loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

// level is parsed once, unknown values fall back to info.
var level = parseLevel(os.Getenv(LevelEnv))

func parseLevel(s string) logrus.Level {
	l, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}

// GetLogger returns a new logger with the level from environment.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return l
}

// WithFlow returns the logger entry that marks every message with flow
// name.
func WithFlow(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("flow", name)
}

// Silent returns logger that discards everything below panic level.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}
