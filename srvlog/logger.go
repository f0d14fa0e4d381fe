package srvlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a *logrus.Logger writing JSON lines to out (os.Stderr if
// nil), at the given level ("debug", "info", "warn", "error", ...;
// falls back to info on an unparsable level string). JSON output
// mirrors the teacher's default logger formatter choice, which this
// service's admin/daemon layers rely on being machine-parseable.
func New(level string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}

// With returns an entry seeded with fields, ready for .Info/.Warn/.Error.
func With(log *logrus.Logger, fields Fields) *logrus.Entry {
	return log.WithFields(fields.Logrus())
}
