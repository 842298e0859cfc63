package wire

// Magic is the 16-bit marker stamped into every OSCC command and
// report. It is stored low byte first in payload bytes 0-1.
const (
	Magic uint16 = 0x05CC

	// MagicByte0 is the low magic byte (payload byte 0).
	MagicByte0 byte = 0xCC

	// MagicByte1 is the high magic byte (payload byte 1).
	MagicByte1 byte = 0x05
)

// CAN identifiers of the OSCC protocol. This table is the single
// authoritative routing key for inbound demultiplexing; the blocks
// must never overlap.
const (
	BrakeEnableID  uint32 = 0x070
	BrakeDisableID uint32 = 0x071
	BrakeCommandID uint32 = 0x072
	BrakeReportID  uint32 = 0x073

	SteeringEnableID  uint32 = 0x080
	SteeringDisableID uint32 = 0x081
	SteeringCommandID uint32 = 0x082
	SteeringReportID  uint32 = 0x083

	ThrottleEnableID  uint32 = 0x090
	ThrottleDisableID uint32 = 0x091
	ThrottleCommandID uint32 = 0x092
	ThrottleReportID  uint32 = 0x093

	// FaultReportID is shared by all modules. The payload carries the
	// originating module.
	FaultReportID uint32 = 0x0AF
)

// Module identifies an OSCC actuator module.
type Module uint8

const (
	ModuleBrake Module = iota
	ModuleSteering
	ModuleThrottle
)

// Modules lists all actuator modules in broadcast order.
// Brake first: if a partial enable is ever observed on the bus, the
// brake is the module we most want armed.
func Modules() []Module {
	return []Module{ModuleBrake, ModuleSteering, ModuleThrottle}
}

// String returns the module name.
func (m Module) String() string {
	switch m {
	case ModuleBrake:
		return "BRAKE"
	case ModuleSteering:
		return "STEERING"
	case ModuleThrottle:
		return "THROTTLE"
	default:
		return "UNKNOWN"
	}
}

// EnableID returns the module's enable command identifier.
func (m Module) EnableID() uint32 {
	switch m {
	case ModuleBrake:
		return BrakeEnableID
	case ModuleSteering:
		return SteeringEnableID
	default:
		return ThrottleEnableID
	}
}

// DisableID returns the module's disable command identifier.
func (m Module) DisableID() uint32 {
	switch m {
	case ModuleBrake:
		return BrakeDisableID
	case ModuleSteering:
		return SteeringDisableID
	default:
		return ThrottleDisableID
	}
}

// IsOSCCID reports whether id belongs to the OSCC protocol. Frames on
// any other identifier are vehicle traffic (OBD and friends), not
// OSCC frames.
func IsOSCCID(id uint32) bool {
	switch id {
	case BrakeEnableID, BrakeDisableID, BrakeCommandID, BrakeReportID,
		SteeringEnableID, SteeringDisableID, SteeringCommandID, SteeringReportID,
		ThrottleEnableID, ThrottleDisableID, ThrottleCommandID, ThrottleReportID,
		FaultReportID:
		return true
	}
	return false
}
