package wire

import (
	"fmt"

	"github.com/oscc-protocol/oscc-go/pkg/can"
)

// ReportKind identifies a decoded report type.
type ReportKind uint8

const (
	ReportBrake ReportKind = iota
	ReportThrottle
	ReportSteering
	ReportFault
)

// String returns the report kind name.
func (k ReportKind) String() string {
	switch k {
	case ReportBrake:
		return "BRAKE"
	case ReportThrottle:
		return "THROTTLE"
	case ReportSteering:
		return "STEERING"
	case ReportFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

// ReportKindForID returns the report kind routed to the given CAN
// identifier. ok is false for identifiers that do not carry reports.
func ReportKindForID(id uint32) (kind ReportKind, ok bool) {
	switch id {
	case BrakeReportID:
		return ReportBrake, true
	case ThrottleReportID:
		return ReportThrottle, true
	case SteeringReportID:
		return ReportSteering, true
	case FaultReportID:
		return ReportFault, true
	}
	return 0, false
}

// Module report payload byte offsets. Bytes 0-1 hold the magic marker,
// bytes 2-3 the fixed-point magnitude (little-endian), byte 4 the
// enabled flag, byte 5 the operator override flag, bytes 6-7 the
// diagnostic trouble code bitfield.
const (
	repValueOffset    = 2
	repEnabledOffset  = 4
	repOverrideOffset = 5
	repDTCOffset      = 6
)

// Fault report payload byte offsets. Byte 2 names the originating
// module, bytes 3-4 the diagnostic trouble code bitfield.
const (
	faultOriginOffset = 2
	faultDTCOffset    = 3
)

// BrakeReport is the decoded status of the brake module.
type BrakeReport struct {
	// Position is the reported pedal position in [0, 1].
	Position float64

	// Enabled reports whether the module is accepting commands.
	Enabled bool

	// OperatorOverride reports whether the driver has taken over.
	OperatorOverride bool

	// DTCs is the module's diagnostic trouble code bitfield.
	DTCs uint16
}

// ThrottleReport is the decoded status of the throttle module.
type ThrottleReport struct {
	// Position is the reported pedal position in [0, 1].
	Position float64

	Enabled          bool
	OperatorOverride bool
	DTCs             uint16
}

// SteeringReport is the decoded status of the steering module.
type SteeringReport struct {
	// Angle is the reported steering wheel angle in [-1, 1].
	Angle float64

	Enabled          bool
	OperatorOverride bool
	DTCs             uint16
}

// FaultReport is a fault raised by any module. All modules share one
// fault identifier; subscribers discriminate by Origin and DTCs.
type FaultReport struct {
	// Origin is the module that raised the fault.
	Origin Module

	// DTCs is the diagnostic trouble code bitfield.
	DTCs uint16
}

// DecodeBrakeReport unpacks a brake report frame.
func DecodeBrakeReport(f can.Frame) (BrakeReport, error) {
	if err := checkOSCCFrame(f, BrakeReportID); err != nil {
		return BrakeReport{}, err
	}
	return BrakeReport{
		Position:         unpackUnipolar(payloadValue(f)),
		Enabled:          f.Data[repEnabledOffset] != 0,
		OperatorOverride: f.Data[repOverrideOffset] != 0,
		DTCs:             payloadDTCs(f, repDTCOffset),
	}, nil
}

// DecodeThrottleReport unpacks a throttle report frame.
func DecodeThrottleReport(f can.Frame) (ThrottleReport, error) {
	if err := checkOSCCFrame(f, ThrottleReportID); err != nil {
		return ThrottleReport{}, err
	}
	return ThrottleReport{
		Position:         unpackUnipolar(payloadValue(f)),
		Enabled:          f.Data[repEnabledOffset] != 0,
		OperatorOverride: f.Data[repOverrideOffset] != 0,
		DTCs:             payloadDTCs(f, repDTCOffset),
	}, nil
}

// DecodeSteeringReport unpacks a steering report frame.
func DecodeSteeringReport(f can.Frame) (SteeringReport, error) {
	if err := checkOSCCFrame(f, SteeringReportID); err != nil {
		return SteeringReport{}, err
	}
	return SteeringReport{
		Angle:            unpackBipolar(int16(payloadValue(f))),
		Enabled:          f.Data[repEnabledOffset] != 0,
		OperatorOverride: f.Data[repOverrideOffset] != 0,
		DTCs:             payloadDTCs(f, repDTCOffset),
	}, nil
}

// DecodeFaultReport unpacks a fault report frame.
func DecodeFaultReport(f can.Frame) (FaultReport, error) {
	if err := checkOSCCFrame(f, FaultReportID); err != nil {
		return FaultReport{}, err
	}
	origin := Module(f.Data[faultOriginOffset])
	if origin > ModuleThrottle {
		return FaultReport{}, fmt.Errorf("%w: fault origin %d", ErrMalformedFrame, origin)
	}
	return FaultReport{
		Origin: origin,
		DTCs:   payloadDTCs(f, faultDTCOffset),
	}, nil
}

// EncodeBrakeReport produces a brake report frame. Report encoders
// exist for module simulators and tests; supervisors only decode.
func EncodeBrakeReport(r BrakeReport) (can.Frame, error) {
	return encodeModuleReport(BrakeReportID, packedUnipolar(r.Position), r.Enabled, r.OperatorOverride, r.DTCs, validUnipolar(r.Position))
}

// EncodeThrottleReport produces a throttle report frame.
func EncodeThrottleReport(r ThrottleReport) (can.Frame, error) {
	return encodeModuleReport(ThrottleReportID, packedUnipolar(r.Position), r.Enabled, r.OperatorOverride, r.DTCs, validUnipolar(r.Position))
}

// EncodeSteeringReport produces a steering report frame.
func EncodeSteeringReport(r SteeringReport) (can.Frame, error) {
	return encodeModuleReport(SteeringReportID, uint16(packedBipolar(r.Angle)), r.Enabled, r.OperatorOverride, r.DTCs, validBipolar(r.Angle))
}

// EncodeFaultReport produces a fault report frame.
func EncodeFaultReport(r FaultReport) (can.Frame, error) {
	if r.Origin > ModuleThrottle {
		return can.Frame{}, fmt.Errorf("%w: fault origin %d", ErrOutOfRange, r.Origin)
	}
	f := magicOnlyFrame(FaultReportID)
	f.Data[faultOriginOffset] = byte(r.Origin)
	f.Data[faultDTCOffset] = byte(r.DTCs)
	f.Data[faultDTCOffset+1] = byte(r.DTCs >> 8)
	return f, nil
}

func encodeModuleReport(id uint32, raw uint16, enabled, override bool, dtcs uint16, inRange bool) (can.Frame, error) {
	if !inRange {
		return can.Frame{}, ErrOutOfRange
	}
	f := magicOnlyFrame(id)
	f.Data[repValueOffset] = byte(raw)
	f.Data[repValueOffset+1] = byte(raw >> 8)
	if enabled {
		f.Data[repEnabledOffset] = 1
	}
	if override {
		f.Data[repOverrideOffset] = 1
	}
	f.Data[repDTCOffset] = byte(dtcs)
	f.Data[repDTCOffset+1] = byte(dtcs >> 8)
	return f, nil
}

func payloadValue(f can.Frame) uint16 {
	return uint16(f.Data[repValueOffset]) | uint16(f.Data[repValueOffset+1])<<8
}

func payloadDTCs(f can.Frame, offset int) uint16 {
	return uint16(f.Data[offset]) | uint16(f.Data[offset+1])<<8
}

func validUnipolar(v float64) bool { return v >= 0 && v <= 1 }
func validBipolar(v float64) bool  { return v >= -1 && v <= 1 }

func packedUnipolar(v float64) uint16 {
	if !validUnipolar(v) {
		return 0
	}
	return packUnipolar(v)
}

func packedBipolar(v float64) int16 {
	if !validBipolar(v) {
		return 0
	}
	return packBipolar(v)
}
