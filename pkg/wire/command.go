package wire

import (
	"fmt"
	"math"

	"github.com/oscc-protocol/oscc-go/pkg/can"
)

// CommandKind identifies an actuation command.
type CommandKind uint8

const (
	// CommandBrakePosition requests a brake pedal position in [0, 1].
	CommandBrakePosition CommandKind = iota

	// CommandBrakePressure requests a brake pressure in [0, 1].
	CommandBrakePressure

	// CommandThrottlePosition requests a throttle pedal position in [0, 1].
	CommandThrottlePosition

	// CommandSteeringAngle requests a steering wheel angle in [-1, 1].
	CommandSteeringAngle

	// CommandSteeringTorque requests a steering wheel torque in [-1, 1].
	CommandSteeringTorque
)

// String returns the command kind name.
func (k CommandKind) String() string {
	switch k {
	case CommandBrakePosition:
		return "BRAKE_POSITION"
	case CommandBrakePressure:
		return "BRAKE_PRESSURE"
	case CommandThrottlePosition:
		return "THROTTLE_POSITION"
	case CommandSteeringAngle:
		return "STEERING_ANGLE"
	case CommandSteeringTorque:
		return "STEERING_TORQUE"
	default:
		return "UNKNOWN"
	}
}

// Domain returns the closed interval of valid magnitudes for the
// command kind.
func (k CommandKind) Domain() (min, max float64) {
	switch k {
	case CommandSteeringAngle, CommandSteeringTorque:
		return -1, 1
	default:
		return 0, 1
	}
}

// Module returns the actuator module the command targets.
func (k CommandKind) Module() Module {
	switch k {
	case CommandBrakePosition, CommandBrakePressure:
		return ModuleBrake
	case CommandThrottlePosition:
		return ModuleThrottle
	default:
		return ModuleSteering
	}
}

// CANID returns the command identifier of the target module.
func (k CommandKind) CANID() uint32 {
	switch k.Module() {
	case ModuleBrake:
		return BrakeCommandID
	case ModuleSteering:
		return SteeringCommandID
	default:
		return ThrottleCommandID
	}
}

// bipolar reports whether the command's domain is [-1, 1].
func (k CommandKind) bipolar() bool {
	return k == CommandSteeringAngle || k == CommandSteeringTorque
}

// Command is an actuation request with a normalized magnitude.
type Command struct {
	Kind  CommandKind
	Value float64
}

// Validate returns ErrOutOfRange if the magnitude lies outside the
// command's domain. NaN is always out of range.
func (c Command) Validate() error {
	min, max := c.Kind.Domain()
	if math.IsNaN(c.Value) || c.Value < min || c.Value > max {
		return fmt.Errorf("%w: %s %v not in [%v, %v]", ErrOutOfRange, c.Kind, c.Value, min, max)
	}
	return nil
}

// Command payload byte offsets. Bytes 0-1 hold the magic marker, bytes
// 2-3 the fixed-point magnitude (little-endian), byte 4 the command
// kind so that the two brake commands (and the two steering commands)
// sharing one identifier stay distinguishable.
const (
	cmdValueOffset = 2
	cmdKindOffset  = 4
)

// EncodeCommand validates the command magnitude and produces the CAN
// frame for the target module. Out-of-range magnitudes fail with
// ErrOutOfRange; nothing is encoded.
func EncodeCommand(c Command) (can.Frame, error) {
	if err := c.Validate(); err != nil {
		return can.Frame{}, err
	}

	var f can.Frame
	f.ID = c.Kind.CANID()
	f.Len = can.MaxDataLen
	stampMagic(&f.Data)

	var raw uint16
	if c.Kind.bipolar() {
		raw = uint16(packBipolar(c.Value))
	} else {
		raw = packUnipolar(c.Value)
	}
	f.Data[cmdValueOffset] = byte(raw)
	f.Data[cmdValueOffset+1] = byte(raw >> 8)
	f.Data[cmdKindOffset] = byte(c.Kind)

	return f, nil
}

// DecodeCommand unpacks a command frame produced by EncodeCommand.
// Used by module simulators and tests; the supervisor itself only
// decodes reports.
func DecodeCommand(f can.Frame) (Command, error) {
	if f.ID != BrakeCommandID && f.ID != SteeringCommandID && f.ID != ThrottleCommandID {
		return Command{}, fmt.Errorf("%w: 0x%03X is not a command identifier", ErrUnexpectedID, f.ID)
	}
	if err := checkOSCCFrame(f, f.ID); err != nil {
		return Command{}, err
	}

	kind := CommandKind(f.Data[cmdKindOffset])
	if kind > CommandSteeringTorque {
		return Command{}, fmt.Errorf("%w: command kind %d", ErrMalformedFrame, kind)
	}
	if kind.CANID() != f.ID {
		return Command{}, fmt.Errorf("%w: kind %s on identifier 0x%03X", ErrMalformedFrame, kind, f.ID)
	}

	raw := uint16(f.Data[cmdValueOffset]) | uint16(f.Data[cmdValueOffset+1])<<8
	c := Command{Kind: kind}
	if kind.bipolar() {
		c.Value = unpackBipolar(int16(raw))
	} else {
		c.Value = unpackUnipolar(raw)
	}
	return c, nil
}

// EncodeEnable produces the enable command frame for a module. Enable
// and disable frames carry only the magic marker.
func EncodeEnable(m Module) can.Frame {
	return magicOnlyFrame(m.EnableID())
}

// EncodeDisable produces the disable command frame for a module.
func EncodeDisable(m Module) can.Frame {
	return magicOnlyFrame(m.DisableID())
}

func magicOnlyFrame(id uint32) can.Frame {
	var f can.Frame
	f.ID = id
	f.Len = can.MaxDataLen
	stampMagic(&f.Data)
	return f
}
