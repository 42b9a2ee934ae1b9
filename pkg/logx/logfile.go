package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//nolint:gochecknoglobals // Current log file handle, guarded by sinkMutex
var logFile *os.File

// InitializeLogFile redirects all logging to a timestamped file under dir,
// keeping at most keep older files. When tee is true, lines are mirrored to
// stderr as well. Must be called before any logging that should be captured.
func InitializeLogFile(dir string, keep int, tee bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	if err := rotateLogFiles(dir, keep); err != nil {
		return fmt.Errorf("failed to rotate log files: %w", err)
	}

	name := fmt.Sprintf("toeicq-%s.log", time.Now().UTC().Format("20060102-150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	sinkMutex.Lock()
	defer sinkMutex.Unlock()

	logFile = f
	if tee {
		sink = io.MultiWriter(os.Stderr, f)
	} else {
		sink = f
	}
	return nil
}

// CloseLogFile restores stderr logging and closes the current log file.
func CloseLogFile() error {
	sinkMutex.Lock()
	defer sinkMutex.Unlock()

	sink = os.Stderr
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// rotateLogFiles removes the oldest log files so that at most keep remain
// before a new one is created.
func rotateLogFiles(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), "toeicq-") && strings.HasSuffix(entry.Name(), ".log") {
			names = append(names, entry.Name())
		}
	}

	if keep < 1 {
		keep = 1
	}
	if len(names) < keep {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(names)
	for _, name := range names[:len(names)-keep+1] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to remove old log file %s: %w", name, err)
		}
	}
	return nil
}
