// Package output controls what the command line tools print, based on the verbosity flags
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents different levels of logging output
type LogLevel int

const (
	LogQuiet   LogLevel = iota // Only errors and essential output
	LogNormal                  // Standard output
	LogVerbose                 // Detailed output
	LogDebug                   // All debug information
)

var levelNames = map[LogLevel]string{
	LogQuiet:   "quiet",
	LogNormal:  "normal",
	LogVerbose: "verbose",
	LogDebug:   "debug",
}

func (l LogLevel) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLevel accepts the names printed by String
func ParseLevel(s string) (LogLevel, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	if want == "" {
		return LogNormal, nil
	}
	for l, name := range levelNames {
		if name == want {
			return l, nil
		}
	}
	return LogNormal, fmt.Errorf("unknown log level %q", s)
}

// ErrConflictingFlags is returned when both quiet and verbose output are requested
var ErrConflictingFlags = errors.New("cannot use both --verbose and --quiet")

// FromFlags resolves the verbosity flags. Debug wins over verbose.
func FromFlags(verbose, quiet, debug bool) (LogLevel, error) {
	switch {
	case quiet && (verbose || debug):
		return LogQuiet, ErrConflictingFlags
	case debug:
		return LogDebug, nil
	case verbose:
		return LogVerbose, nil
	case quiet:
		return LogQuiet, nil
	}
	return LogNormal, nil
}

// Zerolog maps the verbosity onto the logger level
func (l LogLevel) Zerolog() zerolog.Level {
	switch l {
	case LogQuiet:
		return zerolog.ErrorLevel
	case LogVerbose:
		return zerolog.DebugLevel
	case LogDebug:
		return zerolog.TraceLevel
	}
	return zerolog.InfoLevel
}

// New returns a console logger on w that only prints what level allows
func New(level LogLevel, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	return zerolog.New(cw).Level(level.Zerolog()).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}

// Printer writes results to stdout unless quiet
type Printer struct {
	level LogLevel
	w     io.Writer
}

func NewPrinter(level LogLevel, w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{level: level, w: w}
}

// Resultf prints final results (always shows unless in quiet mode)
func (p *Printer) Resultf(format string, args ...any) {
	if p.level > LogQuiet {
		fmt.Fprintf(p.w, format, args...)
	}
}

// Verbosef prints detail only in verbose or debug mode
func (p *Printer) Verbosef(format string, args ...any) {
	if p.level >= LogVerbose {
		fmt.Fprintf(p.w, format, args...)
	}
}

func (p *Printer) Level() LogLevel { return p.level }
