// Package eventlog appends timestamped failure events to the captcha log file.
package eventlog

import (
	"fmt"
	"os"
	"time"
)

// TimestampLayout renders as "YYYY MM DD HH:MM:SS", 24-hour and zero-padded.
const TimestampLayout = "2006 01 02 15:04:05"

// FailedAttempt is the event written for every failed challenge. The
// spelling matches logs written by earlier deployments.
const FailedAttempt = "Unsuccesful attempt"

// Log appends lines to a file that is opened per event.
type Log struct {
	path string
	now  func() time.Time
}

// New creates a Log writing to path. The file is created on first append.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one line made of the local timestamp and message.
// On failure the event is dropped and the error returned.
func (l *Log) Append(message string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	line := fmt.Sprintf("%s %s\n", l.now().Local().Format(TimestampLayout), message)
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to write log file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
