package can

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oscc-protocol/oscc-go/pkg/log"
)

// Channel states.
type ChannelState int32

const (
	// StateClosed indicates no binding.
	StateClosed ChannelState = iota

	// StateOpening indicates a binding in progress.
	StateOpening

	// StateOpen indicates an active binding.
	StateOpen

	// StateClosing indicates teardown in progress.
	StateClosing
)

// String returns the channel state name.
func (s ChannelState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpening:
		return "OPENING"
	case StateOpen:
		return "OPEN"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Channel errors.
var (
	ErrNotOpen     = errors.New("channel not open")
	ErrAlreadyOpen = errors.New("channel already open")
	ErrChannelBusy = errors.New("channel already bound in this process")
	ErrTransmit    = errors.New("transmit failed")
)

// bindings tracks which channel IDs are bound, enforcing at most one
// open Channel per physical channel per process.
var bindings = struct {
	mu   sync.Mutex
	open map[int]*Channel
}{open: make(map[int]*Channel)}

func claimBinding(id int, c *Channel) error {
	bindings.mu.Lock()
	defer bindings.mu.Unlock()
	if _, bound := bindings.open[id]; bound {
		return fmt.Errorf("%w: channel %d", ErrChannelBusy, id)
	}
	bindings.open[id] = c
	return nil
}

func releaseBinding(id int, c *Channel) {
	bindings.mu.Lock()
	defer bindings.mu.Unlock()
	if bindings.open[id] == c {
		delete(bindings.open, id)
	}
}

// Channel owns one binding to a CAN bus. A Channel is single-use:
// create with NewChannel, Open once, Close once.
type Channel struct {
	id     int
	driver Driver

	state   atomic.Int32
	writeMu sync.Mutex

	// Logging support (optional)
	logger  log.Logger
	session string
}

// NewChannel creates a channel binding for the given channel ID
// (not yet open).
func NewChannel(id int, driver Driver) *Channel {
	c := &Channel{id: id, driver: driver}
	c.state.Store(int32(StateClosed))
	return c
}

// SetLogger configures protocol logging for this channel.
// Pass nil to disable logging. Must be called before Open.
func (c *Channel) SetLogger(logger log.Logger, sessionID string) {
	c.logger = logger
	c.session = sessionID
}

// ID returns the CAN channel ID.
func (c *Channel) ID() int {
	return c.id
}

// State returns the current channel state.
func (c *Channel) State() ChannelState {
	return ChannelState(c.state.Load())
}

// Open acquires the underlying CAN interface. It fails with
// ErrAlreadyOpen if this channel was already opened, ErrChannelBusy if
// another Channel holds the same channel ID, or a wrapped driver error
// if the hardware is unavailable.
func (c *Channel) Open() error {
	if !c.state.CompareAndSwap(int32(StateClosed), int32(StateOpening)) {
		return ErrAlreadyOpen
	}

	if err := claimBinding(c.id, c); err != nil {
		c.state.Store(int32(StateClosed))
		return err
	}

	if err := c.driver.Open(c.id); err != nil {
		releaseBinding(c.id, c)
		c.state.Store(int32(StateClosed))
		return fmt.Errorf("failed to open channel %d: %w", c.id, err)
	}

	c.state.Store(int32(StateOpen))
	c.logStateChange(StateClosed, StateOpen, "")
	return nil
}

// Close releases the binding and unblocks a pending receive. Closing a
// channel that is not open fails with ErrNotOpen and changes nothing:
// a premature Close must not keep a later Open from being torn down
// cleanly. Concurrent Close calls race on the state transition; exactly
// one wins and the rest see ErrNotOpen.
func (c *Channel) Close() error {
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		return ErrNotOpen
	}
	c.logStateChange(StateOpen, StateClosing, "")

	closeErr := c.driver.Close()

	c.state.Store(int32(StateClosed))
	releaseBinding(c.id, c)
	c.logStateChange(StateClosing, StateClosed, "")
	return closeErr
}

// Send transmits a frame. Thread-safe: publish paths may race.
// Driver failures (bus down, transmit buffer full) wrap ErrTransmit.
func (c *Channel) Send(f Frame) error {
	if c.State() != StateOpen {
		return ErrNotOpen
	}
	if err := f.Validate(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.driver.Send(f); err != nil {
		c.logError(err, "send")
		return fmt.Errorf("%w: %v", ErrTransmit, err)
	}

	c.logFrame(f, log.DirectionOut)
	return nil
}

// ReceiveLoop drains inbound frames into sink until the channel is
// closed or ctx is canceled. It returns nil on clean shutdown and a
// wrapped driver error if the hardware signals disconnect while the
// channel is still open. The loop never panics across the goroutine
// boundary; sink runs on the caller's goroutine.
func (c *Channel) ReceiveLoop(ctx context.Context, sink func(Frame)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		f, err := c.driver.Receive()
		if err != nil {
			if errors.Is(err, ErrDriverClosed) || c.State() != StateOpen || ctx.Err() != nil {
				return nil // Expected during close
			}
			c.logError(err, "receive")
			return fmt.Errorf("receive failed: %w", err)
		}

		c.logFrame(f, log.DirectionIn)
		sink(f)
	}
}

// logFrame emits a frame event if a logger is configured.
func (c *Channel) logFrame(f Frame, direction log.Direction) {
	if c.logger == nil {
		return
	}
	data := make([]byte, f.Len)
	copy(data, f.Payload())
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: c.session,
		Channel:   c.id,
		Direction: direction,
		Layer:     log.LayerChannel,
		Category:  log.CategoryFrame,
		Frame: &log.FrameEvent{
			ID:   f.ID,
			Len:  f.Len,
			Data: data,
		},
	})
}

// logStateChange emits a state change event if a logger is configured.
func (c *Channel) logStateChange(oldState, newState ChannelState, reason string) {
	if c.logger == nil {
		return
	}
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: c.session,
		Channel:   c.id,
		Layer:     log.LayerChannel,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.EntityChannel,
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}

// logError emits an error event if a logger is configured.
func (c *Channel) logError(err error, context string) {
	if c.logger == nil {
		return
	}
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: c.session,
		Channel:   c.id,
		Layer:     log.LayerChannel,
		Category:  log.CategoryError,
		Error: &log.ErrorEvent{
			Message: err.Error(),
			Context: context,
		},
	})
}
