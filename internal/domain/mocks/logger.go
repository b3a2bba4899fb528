package mocks

// LogEntry is one captured log call.
type LogEntry struct {
	Level   string
	Msg     string
	Keyvals []any
}

// Logger captures log calls for assertions.
type Logger struct {
	Entries []LogEntry
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.add("debug", msg, keyvals) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.add("info", msg, keyvals) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.add("warn", msg, keyvals) }
func (l *Logger) Error(msg string, keyvals ...any) { l.add("error", msg, keyvals) }

// Count returns how many entries were logged at level.
func (l *Logger) Count(level string) int {
	n := 0
	for _, e := range l.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (l *Logger) add(level, msg string, keyvals []any) {
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Keyvals: keyvals})
}
