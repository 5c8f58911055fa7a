package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

type level int

const (
	debugLevel level = iota
	infoLevel
	warnLevel
	errorLevel
)

var (
	DebugLogger *log.Logger
	InfoLogger  *log.Logger
	WarnLogger  *log.Logger
	ErrorLogger *log.Logger

	mu       sync.RWMutex
	minLevel = infoLevel

	// exit is swapped out in tests.
	exit = os.Exit
)

var (
	debugTag   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("[DEBUG]")
	infoTag    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("[INFO]")
	warnTag    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render("[WARN]")
	errorTag   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("[ERROR]")
	requestTag = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

func init() {
	SetOutput(os.Stdout)
}

// SetOutput redirects every level logger to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	DebugLogger = log.New(w, debugTag+" ", log.Ldate|log.Ltime)
	InfoLogger = log.New(w, infoTag+" ", log.Ldate|log.Ltime)
	WarnLogger = log.New(w, warnTag+" ", log.Ldate|log.Ltime)
	ErrorLogger = log.New(w, errorTag+" ", log.Ldate|log.Ltime)
}

// Configure sets the minimum level that is written.
//
// Supported levels: debug, info, warn, error.
func Configure(lvl string) error {
	parsed, err := parseLevel(lvl)
	if err != nil {
		return err
	}
	mu.Lock()
	minLevel = parsed
	mu.Unlock()
	return nil
}

// ValidateLevel reports whether Configure would accept lvl.
func ValidateLevel(lvl string) error {
	_, err := parseLevel(lvl)
	return err
}

func parseLevel(lvl string) (level, error) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "", LevelInfo:
		return infoLevel, nil
	case LevelDebug:
		return debugLevel, nil
	case LevelWarn:
		return warnLevel, nil
	case LevelError:
		return errorLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", lvl)
	}
}

func logf(lvl level, l func() *log.Logger, format string, v ...interface{}) {
	mu.RLock()
	enabled := lvl >= minLevel
	target := l()
	mu.RUnlock()
	if enabled {
		target.Printf(format, v...)
	}
}

// Debug logs diagnostic messages
func Debug(format string, v ...interface{}) {
	logf(debugLevel, func() *log.Logger { return DebugLogger }, format, v...)
}

// Info logs information messages
func Info(format string, v ...interface{}) {
	logf(infoLevel, func() *log.Logger { return InfoLogger }, format, v...)
}

// Warn logs warning messages
func Warn(format string, v ...interface{}) {
	logf(warnLevel, func() *log.Logger { return WarnLogger }, format, v...)
}

// Error logs error messages
func Error(format string, v ...interface{}) {
	logf(errorLevel, func() *log.Logger { return ErrorLogger }, format, v...)
}

// Fatal logs error message and exits
func Fatal(format string, v ...interface{}) {
	mu.RLock()
	target := ErrorLogger
	mu.RUnlock()
	target.Printf(format, v...)
	exit(1)
}

// RequestLog logs HTTP request information
func RequestLog(method, path, ip string, status int, duration time.Duration) {
	logf(infoLevel, func() *log.Logger { return InfoLogger },
		"%s from %s -> %d took %v", requestTag.Render("["+method+"] "+path), ip, status, duration)
}
