package log

import "time"

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies one open-to-close engine session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Channel is the CAN channel ID.
	Channel int `cbor:"3,keyasint"`

	// Direction indicates frame flow.
	Direction Direction `cbor:"4,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"5,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"6,keyasint"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"7,keyasint,omitempty"` // Channel layer
	StateChange *StateChangeEvent `cbor:"8,keyasint,omitempty"` // Channel/gate state
	Error       *ErrorEvent       `cbor:"9,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates an inbound frame.
	DirectionIn Direction = 0
	// DirectionOut indicates an outbound frame.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerChannel is the CAN channel binding (raw frames).
	LayerChannel Layer = 0
	// LayerWire is the codec layer (decode diagnostics).
	LayerWire Layer = 1
	// LayerEngine is the engine facade (gate and lifecycle).
	LayerEngine Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerChannel:
		return "CHANNEL"
	case LayerWire:
		return "WIRE"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a raw CAN frame.
	CategoryFrame Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one CAN frame.
type FrameEvent struct {
	// ID is the CAN identifier.
	ID uint32 `cbor:"1,keyasint"`

	// Len is the payload length.
	Len uint8 `cbor:"2,keyasint"`

	// Data is the payload.
	Data []byte `cbor:"3,keyasint"`
}

// Entity identifies what changed state.
type Entity uint8

const (
	// EntityChannel is the CAN channel binding.
	EntityChannel Entity = 0
	// EntityGate is the enable/disable safety gate.
	EntityGate Entity = 1
)

// String returns the entity name.
func (e Entity) String() string {
	switch e {
	case EntityChannel:
		return "CHANNEL"
	case EntityGate:
		return "GATE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a state transition.
type StateChangeEvent struct {
	// Entity is what changed state.
	Entity Entity `cbor:"1,keyasint"`

	// OldState is the state before the transition.
	OldState string `cbor:"2,keyasint"`

	// NewState is the state after the transition.
	NewState string `cbor:"3,keyasint"`

	// Reason optionally explains the transition.
	Reason string `cbor:"4,keyasint,omitempty"`
}

// ErrorEvent captures an error.
type ErrorEvent struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`

	// Context optionally names the operation that failed.
	Context string `cbor:"2,keyasint,omitempty"`
}
