// Package rlog provides the engine's logging conventions: a subject-first
// call site (matching the teacher's fs.Debugf(o, "...", args...) shape)
// backed by logrus, with trace lines indented by recursion depth.
package rlog

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&depthFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetOutput redirects log output, used by tests to capture trace lines.
func SetOutput(w io.Writer) { std.SetOutput(w) }

// SetVerbose raises the log level to debug, matching the CLI's -v flag.
func SetVerbose(verbose bool) {
	if verbose {
		std.SetLevel(logrus.DebugLevel)
	} else {
		std.SetLevel(logrus.InfoLevel)
	}
}

func entry(depth int, subject any) *logrus.Entry {
	return std.WithField("depth", depth).WithField("subject", fmt.Sprint(subject))
}

// Debugf logs a classification-skip or routine trace line (§7 kind 1).
func Debugf(depth int, subject any, format string, args ...any) {
	entry(depth, subject).Debugf(format, args...)
}

// Infof logs a normal progress line.
func Infof(depth int, subject any, format string, args ...any) {
	entry(depth, subject).Infof(format, args...)
}

// Logf is an alias for Infof, matching the teacher's fs.Logf naming for
// user-facing (always shown) progress lines.
func Logf(depth int, subject any, format string, args ...any) {
	entry(depth, subject).Logf(logrus.InfoLevel, format, args...)
}

// Errorf logs a non-fatal, per-node failure (§7 kind 2 and 3).
func Errorf(depth int, subject any, format string, args ...any) {
	entry(depth, subject).Errorf(format, args...)
}

// depthFormatter left-pads each message with tabs proportional to the
// node's recursion depth, the way extractor.py indents with "\t" * depth.
type depthFormatter struct{}

func (depthFormatter) Format(e *logrus.Entry) ([]byte, error) {
	depth, _ := e.Data["depth"].(int)
	subject, _ := e.Data["subject"].(string)
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "\t"
	}
	line := fmt.Sprintf("%s%s %s: %s\n", indent, levelTag(e.Level), subject, e.Message)
	return []byte(line), nil
}

func levelTag(l logrus.Level) string {
	switch l {
	case logrus.DebugLevel:
		return ">>"
	case logrus.ErrorLevel:
		return "!!"
	default:
		return ">>>>"
	}
}
