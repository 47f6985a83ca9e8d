package muxhandlers

import (
	"context"
	"sync"

	"github.com/vitalvas/oaspec/logging"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (e logEntry) field(key string) any {
	for i := 0; i+1 < len(e.args); i += 2 {
		if e.args[i] == key {
			return e.args[i+1]
		}
	}
	return nil
}

type recordingLogger struct {
	mu   sync.Mutex
	logs []logEntry
}

var _ logging.Logger = (*recordingLogger)(nil)

func (l *recordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) entries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logEntry(nil), l.logs...)
}

func (l *recordingLogger) Trace(msg string, args ...any) { l.record("trace", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func (l *recordingLogger) WithContext(context.Context) logging.Logger {
	return l
}
