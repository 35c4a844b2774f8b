package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields aliases logrus.Fields so callers don't import logrus directly.
type Fields = logrus.Fields

// Entry is a component-scoped logger.
type Entry = logrus.Entry

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	l.AddHook(&callerHook{})
	return l
}

// Setup applies the configured level and optional rotating file output.
// Called once at bootstrap; before that the root logger writes INFO to stdout.
func Setup(level, file string) {
	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		root.SetLevel(lvl)
	}
	if file != "" {
		rotated := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		root.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}

// Get returns a logger tagged with a component name, e.g. "roxom_ws".
func Get(component string) *Entry {
	return root.WithField("component", component)
}

// WithFields attaches structured fields to the root logger.
func WithFields(fields Fields) *Entry {
	return root.WithFields(fields)
}
