// Package logger wraps a process-wide logrus logger. Diagnostics go to
// stderr so reports on stdout stay machine readable.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// Init sets the log level. Unknown levels fall back to warn.
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	log.SetLevel(lvl)
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) { log.SetOutput(w) }

// WithField returns an entry carrying a structured field.
func WithField(key string, value any) *logrus.Entry { return log.WithField(key, value) }

func Debug(args ...any)                 { log.Debug(args...) }
func Debugf(format string, args ...any) { log.Debugf(format, args...) }
func Info(args ...any)                  { log.Info(args...) }
func Infof(format string, args ...any)  { log.Infof(format, args...) }
func Warn(args ...any)                  { log.Warn(args...) }
func Warnf(format string, args ...any)  { log.Warnf(format, args...) }
func Error(args ...any)                 { log.Error(args...) }
func Errorf(format string, args ...any) { log.Errorf(format, args...) }
