package oscc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oscc-protocol/oscc-go/pkg/can"
	"github.com/oscc-protocol/oscc-go/pkg/dispatch"
	"github.com/oscc-protocol/oscc-go/pkg/log"
	"github.com/oscc-protocol/oscc-go/pkg/wire"
)

// Engine errors.
var (
	// ErrNotOpen indicates an operation on an engine with no open channel.
	ErrNotOpen = errors.New("engine not open")

	// ErrAlreadyOpen indicates a second Open without a Close.
	ErrAlreadyOpen = errors.New("engine already open")

	// ErrNotEnabled indicates a publish attempt while the safety gate
	// is disarmed. No frame is sent.
	ErrNotEnabled = errors.New("engine not enabled")
)

// Engine is the OSCC protocol engine. Create one per CAN channel with
// New; the zero value is not usable.
type Engine struct {
	cfg        Config
	logger     log.Logger
	newDriver  func() (can.Driver, error)
	dispatcher *dispatch.Dispatcher

	mu       sync.Mutex
	enabled  bool
	ch       *can.Channel
	cancel   context.CancelFunc
	loopDone chan struct{}
	session  string
}

// New creates an engine for the configured channel. The channel is not
// opened; subscriptions may be registered before Open.
func New(cfg Config) *Engine {
	newDriver := cfg.NewDriver
	if newDriver == nil {
		newDriver = can.NewDriver
	}
	return &Engine{
		cfg:        cfg,
		logger:     cfg.Logger,
		newDriver:  newDriver,
		dispatcher: dispatch.New(cfg.Logger),
	}
}

// Open acquires the CAN channel and starts the receive goroutine that
// feeds subscribers. It fails with ErrAlreadyOpen if already open, or
// with the channel/driver error if the bus cannot be bound.
func (e *Engine) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ch != nil {
		return ErrAlreadyOpen
	}

	driver, err := e.newDriver()
	if err != nil {
		return err
	}

	session := uuid.New().String()
	ch := can.NewChannel(e.cfg.Channel, driver)
	ch.SetLogger(e.logger, session)

	if err := ch.Open(); err != nil {
		return err
	}

	e.dispatcher.SetSession(session, e.cfg.Channel)

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Receive errors are already logged by the channel; the loop
		// simply ends and Close tears the binding down.
		_ = ch.ReceiveLoop(loopCtx, e.dispatcher.HandleFrame)
	}()

	e.ch = ch
	e.cancel = cancel
	e.loopDone = done
	e.session = session
	return nil
}

// Close stops the receive goroutine, clears the subscription table and
// releases the channel. When it returns, no further subscriber
// callback will run. With DisableOnClose set, a disable broadcast is
// attempted first if the gate is still armed.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.ch == nil {
		e.mu.Unlock()
		return ErrNotOpen
	}

	if e.cfg.DisableOnClose && e.enabled {
		// Best effort; the channel is going away either way.
		_ = e.broadcastDisable()
	}
	if e.enabled {
		e.setGate(false)
	}

	ch := e.ch
	cancel := e.cancel
	loopDone := e.loopDone
	e.ch = nil
	e.cancel = nil
	e.loopDone = nil
	e.session = ""
	// Wait for the receive goroutine without holding the lock: a
	// subscriber callback in flight may itself call back into the
	// engine.
	e.mu.Unlock()

	cancel()
	closeErr := ch.Close()
	<-loopDone

	e.dispatcher.Clear()
	return closeErr
}

// Enable broadcasts enable commands to all actuation modules and arms
// the safety gate. The broadcast aborts on the first send failure and
// the gate stays disarmed: a partial enable is the dangerous state.
func (e *Engine) Enable() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ch == nil {
		return ErrNotOpen
	}
	if e.enabled {
		return nil
	}

	for _, m := range wire.Modules() {
		if err := e.ch.Send(wire.EncodeEnable(m)); err != nil {
			return fmt.Errorf("enable %s: %w", m, err)
		}
	}

	e.setGate(true)
	return nil
}

// Disable disarms the safety gate and broadcasts disable commands to
// all actuation modules. Fail-safe: the local gate is disarmed before
// any frame is sent and stays disarmed whatever the bus does; every
// module send is attempted and the first send error is returned.
func (e *Engine) Disable() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.enabled {
		e.setGate(false)
	}

	if e.ch == nil {
		return ErrNotOpen
	}
	return e.broadcastDisable()
}

// broadcastDisable sends disable to every module, attempting all sends
// regardless of failures. Caller holds e.mu.
func (e *Engine) broadcastDisable() error {
	var firstErr error
	for _, m := range wire.Modules() {
		if err := e.ch.Send(wire.EncodeDisable(m)); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("disable %s: %w", m, err)
		}
	}
	return firstErr
}

// IsOpen reports whether the engine holds an open channel.
func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch != nil
}

// IsEnabled reports whether the safety gate is armed.
func (e *Engine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Session returns the UUID of the current open session, or "" when
// closed. Log events carry it.
func (e *Engine) Session() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// PublishBrakePosition requests a brake pedal position in [0, 1].
func (e *Engine) PublishBrakePosition(position float64) error {
	return e.publish(wire.Command{Kind: wire.CommandBrakePosition, Value: position})
}

// PublishBrakePressure requests a brake pressure in [0, 1].
func (e *Engine) PublishBrakePressure(pressure float64) error {
	return e.publish(wire.Command{Kind: wire.CommandBrakePressure, Value: pressure})
}

// PublishThrottlePosition requests a throttle pedal position in [0, 1].
func (e *Engine) PublishThrottlePosition(position float64) error {
	return e.publish(wire.Command{Kind: wire.CommandThrottlePosition, Value: position})
}

// PublishSteeringAngle requests a steering wheel angle in [-1, 1].
func (e *Engine) PublishSteeringAngle(angle float64) error {
	return e.publish(wire.Command{Kind: wire.CommandSteeringAngle, Value: angle})
}

// PublishSteeringTorque requests a steering wheel torque in [-1, 1].
func (e *Engine) PublishSteeringTorque(torque float64) error {
	return e.publish(wire.Command{Kind: wire.CommandSteeringTorque, Value: torque})
}

// publish is the common outbound path: safety gate, then codec, then
// channel send. The first failing stage wins and nothing is sent after
// a failure.
func (e *Engine) publish(c wire.Command) error {
	e.mu.Lock()
	ch := e.ch
	enabled := e.enabled
	e.mu.Unlock()

	if ch == nil {
		return ErrNotOpen
	}
	if !enabled {
		return ErrNotEnabled
	}

	f, err := wire.EncodeCommand(c)
	if err != nil {
		return err
	}
	return ch.Send(f)
}

// SubscribeToBrakeReports registers the brake report callback.
// Callbacks run on the receive goroutine and must not block.
func (e *Engine) SubscribeToBrakeReports(fn dispatch.BrakeHandler) error {
	return e.dispatcher.SubscribeBrake(fn)
}

// SubscribeToThrottleReports registers the throttle report callback.
// Callbacks run on the receive goroutine and must not block.
func (e *Engine) SubscribeToThrottleReports(fn dispatch.ThrottleHandler) error {
	return e.dispatcher.SubscribeThrottle(fn)
}

// SubscribeToSteeringReports registers the steering report callback.
// Callbacks run on the receive goroutine and must not block.
func (e *Engine) SubscribeToSteeringReports(fn dispatch.SteeringHandler) error {
	return e.dispatcher.SubscribeSteering(fn)
}

// SubscribeToFaultReports registers the callback for fault reports
// from any module. Callbacks run on the receive goroutine and must not
// block.
func (e *Engine) SubscribeToFaultReports(fn dispatch.FaultHandler) error {
	return e.dispatcher.SubscribeFault(fn)
}

// SubscribeToOBDMessages registers the raw pass-through callback for
// vehicle traffic outside the OSCC protocol. Callbacks run on the
// receive goroutine and must not block.
func (e *Engine) SubscribeToOBDMessages(fn dispatch.OBDHandler) error {
	return e.dispatcher.SubscribeOBD(fn)
}

// setGate flips the safety gate and logs the transition. Caller holds
// e.mu.
func (e *Engine) setGate(enabled bool) {
	old := gateStateName(e.enabled)
	e.enabled = enabled

	if e.logger == nil {
		return
	}
	e.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: e.session,
		Channel:   e.cfg.Channel,
		Layer:     log.LayerEngine,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.EntityGate,
			OldState: old,
			NewState: gateStateName(enabled),
		},
	})
}

func gateStateName(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}
