// Package logx provides structured logging with env-driven debug filtering.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Logger struct {
	component string
	logger    *log.Logger
}

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// DebugConfig controls debug logging behavior.
type DebugConfig struct {
	Enabled bool
	Domains map[string]bool // Which domains to enable debug for (nil = all)
}

//nolint:gochecknoglobals // Package-level debug state, guarded by debugMutex
var (
	debugConfig = &DebugConfig{}
	debugMutex  sync.RWMutex

	// Sink for all log lines. Defaults to stderr; InitializeLogFile may
	// redirect it to a file (optionally teeing to the console).
	sinkMutex sync.RWMutex
	sink      io.Writer = os.Stderr
)

func init() { //nolint:gochecknoinits // Required for env var initialization
	initDebugFromEnv()
}

// initDebugFromEnv initializes debug configuration from environment variables.
//
//	DEBUG=1                          # Enable debug for all domains
//	DEBUG=1 DEBUG_DOMAINS=gen,verify # Enable debug for specific domains
func initDebugFromEnv() {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debug := os.Getenv("DEBUG"); debug == "1" || strings.EqualFold(debug, "true") {
		debugConfig.Enabled = true
	}

	if domains := os.Getenv("DEBUG_DOMAINS"); domains != "" {
		debugConfig.Domains = make(map[string]bool)
		for _, domain := range strings.Split(domains, ",") {
			debugConfig.Domains[strings.TrimSpace(domain)] = true
		}
	}
}

func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(&sinkWriter{}, "", 0),
	}
}

// sinkWriter forwards writes to the current sink so loggers created before
// InitializeLogFile still end up in the log file.
type sinkWriter struct{}

func (w *sinkWriter) Write(p []byte) (int, error) {
	sinkMutex.RLock()
	defer sinkMutex.RUnlock()
	return sink.Write(p)
}

// SetDebug enables or disables debug logging at runtime.
func SetDebug(enabled bool) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugConfig.Enabled = enabled
}

// IsDebugEnabled returns whether debug logging is enabled.
func IsDebugEnabled() bool {
	debugMutex.RLock()
	defer debugMutex.RUnlock()
	return debugConfig.Enabled
}

// IsDebugEnabledForDomain returns whether debug logging is enabled for a domain.
func IsDebugEnabledForDomain(domain string) bool {
	debugMutex.RLock()
	defer debugMutex.RUnlock()

	if !debugConfig.Enabled {
		return false
	}
	if debugConfig.Domains == nil {
		return true
	}
	return debugConfig.Domains[domain]
}

func (l *Logger) log(level Level, format string, args ...any) {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s: %s", timestamp, l.component, level, message)
}

func (l *Logger) Debug(format string, args ...any) {
	if !IsDebugEnabledForDomain(l.component) {
		return
	}
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		component: component,
		logger:    l.logger,
	}
}

// Global logging functions for convenience.
var defaultLogger = NewLogger("system") //nolint:gochecknoglobals

func Debugf(format string, args ...any) {
	defaultLogger.Debug(format, args...)
}

func Infof(format string, args ...any) {
	defaultLogger.Info(format, args...)
}

func Warnf(format string, args ...any) {
	defaultLogger.Warn(format, args...)
}

// Errorf logs and returns the formatted error.
// Use this when you need both logging and error returning:
//
//	err := logx.Errorf("setup failed: %w", err).
func Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	defaultLogger.Error("%s", err.Error())
	return err
}

// Wrap logs msg + ": " + err.Error() and returns fmt.Errorf("%s: %w", msg, err).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	wrappedErr := fmt.Errorf("%s: %w", msg, err)
	defaultLogger.Error("%s", wrappedErr.Error())
	return wrappedErr
}
