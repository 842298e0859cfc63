package log

// MultiLogger fans one event stream out to several loggers, typically
// a FileLogger trace plus a SlogAdapter for the console.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that forwards every event to all of
// loggers, in order.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log forwards the event to each configured logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
