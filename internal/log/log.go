// Package log supports leveled logging for the bjson command and its
// supporting packages. Messages go through the standard library logger.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
)

// Level is the minimum severity that is written.
type Level int

const (
	// LevelDebug enables every message, including per-file progress.
	LevelDebug Level = iota
	// LevelInfo is the default level.
	LevelInfo
	// LevelWarning reports malformed entries that were skipped.
	LevelWarning
	// LevelError reports failures only.
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel parses a level name, case-insensitively. The empty string
// means LevelInfo.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return 0, fmt.Errorf("log: unknown level %q", s)
}

var (
	mu       sync.Mutex
	minLevel = LevelInfo
	logger   = stdlog.New(os.Stderr, "", stdlog.LstdFlags)
)

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetOutput redirects log output. Tests use it to capture messages.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// Debugf logs a formatted string at the Debug level.
func Debugf(format string, args ...any) { logf(LevelDebug, format, args) }

// Infof logs a formatted string at the Info level.
func Infof(format string, args ...any) { logf(LevelInfo, format, args) }

// Warningf logs a formatted string at the Warning level.
func Warningf(format string, args ...any) { logf(LevelWarning, format, args) }

// Errorf logs a formatted string at the Error level.
func Errorf(format string, args ...any) { logf(LevelError, format, args) }

// Fatalf is equivalent to Errorf followed by exiting the program.
func Fatalf(format string, args ...any) {
	Errorf(format, args...)
	os.Exit(1)
}

func logf(l Level, format string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	if l < minLevel {
		return
	}
	logger.Printf("%s: %s", l, fmt.Sprintf(format, args...))
}
