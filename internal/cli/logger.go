package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// consoleLogger writes leveled, colored output to stderr. With quiet
// set, only warnings and errors are printed. Debug output needs the
// CENTY_DEBUG environment variable.
type consoleLogger struct {
	quiet bool
	debug bool
}

func newConsoleLogger(quiet bool) *consoleLogger {
	return &consoleLogger{
		quiet: quiet,
		debug: os.Getenv("CENTY_DEBUG") != "",
	}
}

func (l *consoleLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.quiet || !l.debug {
		return
	}
	fmt.Fprintln(os.Stderr, dim("debug: "+msg+formatKVs(keysAndValues)))
}

func (l *consoleLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s%s\n", green("•"), msg, dim(formatKVs(keysAndValues)))
}

func (l *consoleLogger) Warn(msg string, keysAndValues ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s%s\n", yellow("!"), msg, dim(formatKVs(keysAndValues)))
}

func (l *consoleLogger) Error(msg string, keysAndValues ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s%s\n", red("✗"), msg, dim(formatKVs(keysAndValues)))
}

func formatKVs(keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 != 0 {
		fmt.Fprintf(&b, " %v", keysAndValues[len(keysAndValues)-1])
	}
	return b.String()
}
