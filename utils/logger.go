package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

func init() {
	// Packages log before main wires anything up; tests rely on this too.
	InitLogger("info")
}

// InitLogger sets up the stdout info logger and the stderr error logger.
// The error logger also carries warnings: dropped records, bad config
// values and failed client writes.
func InitLogger(level string) {
	InfoLogger = newLogger(os.Stdout, level)
	ErrorLogger = newLogger(os.Stderr, "warn")
}

// SilenceLoggers discards all output, used by tests.
func SilenceLoggers() {
	InfoLogger = newLogger(io.Discard, "info")
	ErrorLogger = newLogger(io.Discard, "warn")
}

func newLogger(out io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// SyncLog and ActionLog tag entries with the component that wrote them.
func SyncLog() *logrus.Entry {
	return InfoLogger.WithField("component", "sync")
}

func ActionLog() *logrus.Entry {
	return InfoLogger.WithField("component", "dispatch")
}
