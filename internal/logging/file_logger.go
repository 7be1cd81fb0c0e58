package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// FileLogger implements the Logger interface, writing logs asynchronously to a file.
type FileLogger struct {
	logChan chan string
	file    *os.File
	waiter  sync.WaitGroup

	mu      sync.Mutex // guards closed and dropped
	closed  bool
	dropped int
}

// NewFileLogger creates a new logger that appends to filePath, creating its
// directory if needed.
func NewFileLogger(filePath string) (*FileLogger, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	logger := &FileLogger{
		logChan: make(chan string, 100),
		file:    f,
	}

	logger.waiter.Add(1)
	go logger.writer()

	return logger, nil
}

func (l *FileLogger) writer() {
	defer l.waiter.Done()
	for msg := range l.logChan {
		_, _ = l.file.WriteString(msg)
	}
}

// Log timestamps the message and queues it. Messages are dropped while the
// buffer is full and after Close.
func (l *FileLogger) Log(format string, args ...interface{}) {
	msg := fmt.Sprintf("[%s] %s\n", time.Now().Format(timestampFormat), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.logChan <- msg:
	default:
		l.dropped++
	}
}

// IsEnabled returns true for FileLogger.
func (l *FileLogger) IsEnabled() bool {
	return true
}

// Dropped reports how many messages were lost to a full buffer.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close drains queued messages and closes the file. Closing twice is a no-op.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.logChan)
	l.mu.Unlock()

	l.waiter.Wait()

	err := l.file.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

var _ Logger = (*FileLogger)(nil)
