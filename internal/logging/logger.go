package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Logger defines the interface for logging messages.
type Logger interface {
	// Log formats and writes a log message.
	Log(format string, args ...interface{})
	// IsEnabled returns true if the logger is active (e.g., debug mode is on).
	IsEnabled() bool
	// Close flushes pending messages and releases the log file.
	Close() error
}

// DefaultDir is where log files go when no path is configured.
func DefaultDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "applypatch", "logs")
}

// DefaultPath names a timestamped log file inside DefaultDir.
func DefaultPath(now time.Time) string {
	return filepath.Join(DefaultDir(), fmt.Sprintf("applypatch-%s.log", now.Format("20060102-150405")))
}

// Open returns a NilLogger when enabled is false. Otherwise it opens a
// FileLogger at path, or at DefaultPath when path is empty, in which case
// latest.log in the same directory is pointed at the new file. The resolved
// path is returned alongside the logger.
func Open(enabled bool, path string) (Logger, string, error) {
	if !enabled {
		return NewNilLogger(), "", nil
	}

	useDefault := path == ""
	if useDefault {
		path = DefaultPath(time.Now())
	}

	logger, err := NewFileLogger(path)
	if err != nil {
		return nil, "", err
	}
	if useDefault {
		if err := linkLatest(path); err != nil {
			logger.Log("Warning: failed to update latest.log: %v", err)
		}
	}
	return logger, path, nil
}

// linkLatest points latest.log next to logPath at it.
func linkLatest(logPath string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	linkPath := filepath.Join(filepath.Dir(logPath), "latest.log")
	_ = os.Remove(linkPath)
	return os.Symlink(filepath.Base(logPath), linkPath)
}
