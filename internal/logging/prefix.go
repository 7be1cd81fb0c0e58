package logging

import "fmt"

// prefixLogger tags every message of an underlying logger.
type prefixLogger struct {
	Logger
	prefix string
}

// WithPrefix returns a Logger that writes "[prefix] message" to logger.
// Closing it closes logger.
func WithPrefix(logger Logger, prefix string) Logger {
	if prefix == "" {
		return logger
	}
	return &prefixLogger{Logger: logger, prefix: "[" + prefix + "] "}
}

func (p *prefixLogger) Log(format string, args ...interface{}) {
	p.Logger.Log("%s%s", p.prefix, fmt.Sprintf(format, args...))
}
