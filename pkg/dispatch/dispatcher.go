package dispatch

import (
	"errors"
	"sync"
	"time"

	"github.com/oscc-protocol/oscc-go/pkg/can"
	"github.com/oscc-protocol/oscc-go/pkg/log"
	"github.com/oscc-protocol/oscc-go/pkg/wire"
)

// ErrNilHandler indicates an attempt to subscribe with a nil callback.
var ErrNilHandler = errors.New("nil handler")

// Handler signatures, one per report kind.
type (
	// BrakeHandler receives decoded brake reports.
	BrakeHandler func(wire.BrakeReport)

	// ThrottleHandler receives decoded throttle reports.
	ThrottleHandler func(wire.ThrottleReport)

	// SteeringHandler receives decoded steering reports.
	SteeringHandler func(wire.SteeringReport)

	// FaultHandler receives fault reports from any module.
	FaultHandler func(wire.FaultReport)

	// OBDHandler receives raw non-OSCC frames (vehicle OBD traffic).
	OBDHandler func(id uint32, data []byte)
)

// Dispatcher routes inbound frames to registered subscribers.
// Subscribe and Clear may race with HandleFrame; the handler table is
// guarded by a read-write mutex.
type Dispatcher struct {
	mu       sync.RWMutex
	brake    BrakeHandler
	throttle ThrottleHandler
	steering SteeringHandler
	fault    FaultHandler
	obd      OBDHandler

	logger  log.Logger
	session string
	channel int
}

// New creates a dispatcher with an empty handler table.
// logger receives malformed-frame diagnostics; pass nil to discard them.
func New(logger log.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// SetSession tags diagnostic events with the engine session and
// channel. Called by the engine on open.
func (d *Dispatcher) SetSession(sessionID string, channel int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session = sessionID
	d.channel = channel
}

// SubscribeBrake registers the brake report callback, replacing any
// prior one. Subscribing is legal at any time, before or after open.
func (d *Dispatcher) SubscribeBrake(fn BrakeHandler) error {
	if fn == nil {
		return ErrNilHandler
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brake = fn
	return nil
}

// SubscribeThrottle registers the throttle report callback, replacing
// any prior one.
func (d *Dispatcher) SubscribeThrottle(fn ThrottleHandler) error {
	if fn == nil {
		return ErrNilHandler
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.throttle = fn
	return nil
}

// SubscribeSteering registers the steering report callback, replacing
// any prior one.
func (d *Dispatcher) SubscribeSteering(fn SteeringHandler) error {
	if fn == nil {
		return ErrNilHandler
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.steering = fn
	return nil
}

// SubscribeFault registers the fault report callback, replacing any
// prior one. Faults from all modules route to this single callback;
// the subscriber discriminates by FaultReport.Origin.
func (d *Dispatcher) SubscribeFault(fn FaultHandler) error {
	if fn == nil {
		return ErrNilHandler
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fault = fn
	return nil
}

// SubscribeOBD registers the raw pass-through callback for non-OSCC
// bus traffic, replacing any prior one.
func (d *Dispatcher) SubscribeOBD(fn OBDHandler) error {
	if fn == nil {
		return ErrNilHandler
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.obd = fn
	return nil
}

// Clear empties the handler table (on engine close).
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brake = nil
	d.throttle = nil
	d.steering = nil
	d.fault = nil
	d.obd = nil
}

// HandleFrame demultiplexes one inbound frame. It never fails: frames
// that cannot be delivered are dropped according to the package drop
// policy. Callbacks run on the caller's goroutine.
func (d *Dispatcher) HandleFrame(f can.Frame) {
	kind, ok := wire.ReportKindForID(f.ID)
	if !ok {
		if wire.IsOSCCID(f.ID) {
			// Echoed command or enable/disable traffic; not a report.
			return
		}
		d.mu.RLock()
		obd := d.obd
		d.mu.RUnlock()
		if obd != nil {
			data := make([]byte, f.Len)
			copy(data, f.Payload())
			obd(f.ID, data)
		}
		return
	}

	switch kind {
	case wire.ReportBrake:
		r, err := wire.DecodeBrakeReport(f)
		if err != nil {
			d.diagnose(err, f)
			return
		}
		d.mu.RLock()
		fn := d.brake
		d.mu.RUnlock()
		if fn != nil {
			fn(r)
		}

	case wire.ReportThrottle:
		r, err := wire.DecodeThrottleReport(f)
		if err != nil {
			d.diagnose(err, f)
			return
		}
		d.mu.RLock()
		fn := d.throttle
		d.mu.RUnlock()
		if fn != nil {
			fn(r)
		}

	case wire.ReportSteering:
		r, err := wire.DecodeSteeringReport(f)
		if err != nil {
			d.diagnose(err, f)
			return
		}
		d.mu.RLock()
		fn := d.steering
		d.mu.RUnlock()
		if fn != nil {
			fn(r)
		}

	case wire.ReportFault:
		r, err := wire.DecodeFaultReport(f)
		if err != nil {
			d.diagnose(err, f)
			return
		}
		d.mu.RLock()
		fn := d.fault
		d.mu.RUnlock()
		if fn != nil {
			fn(r)
		}
	}
}

// diagnose reports a decode failure. Magic mismatches are silent: a
// foreign frame sharing an OSCC identifier is noise, not a defect.
func (d *Dispatcher) diagnose(err error, f can.Frame) {
	if errors.Is(err, wire.ErrMagicMismatch) {
		return
	}
	if d.logger == nil {
		return
	}

	d.mu.RLock()
	session := d.session
	channel := d.channel
	d.mu.RUnlock()

	data := make([]byte, f.Len)
	copy(data, f.Payload())

	d.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: session,
		Channel:   channel,
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Category:  log.CategoryError,
		Frame: &log.FrameEvent{
			ID:   f.ID,
			Len:  f.Len,
			Data: data,
		},
		Error: &log.ErrorEvent{
			Message: err.Error(),
			Context: "decode",
		},
	})
}
