package log

// Logger receives protocol events from the channel, the dispatcher and
// the engine. Pass nil (or NoopLogger) wherever a logger is optional.
type Logger interface {
	// Log records one event. Implementations must be safe for
	// concurrent use and must return quickly: Log runs on the receive
	// goroutine, so a slow logger stalls frame delivery.
	Log(event Event)
}

// NoopLogger discards every event. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
