package wire

import (
	"errors"
	"math"
	"testing"

	"github.com/oscc-protocol/oscc-go/pkg/can"
)

func TestEncodeCommandValidation(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"brake position zero", Command{CommandBrakePosition, 0}, false},
		{"brake position full", Command{CommandBrakePosition, 1}, false},
		{"brake position negative", Command{CommandBrakePosition, -0.1}, true},
		{"brake position above one", Command{CommandBrakePosition, 1.1}, true},
		{"brake pressure half", Command{CommandBrakePressure, 0.5}, false},
		{"throttle position full", Command{CommandThrottlePosition, 1}, false},
		{"throttle position NaN", Command{CommandThrottlePosition, math.NaN()}, true},
		{"steering angle left limit", Command{CommandSteeringAngle, -1}, false},
		{"steering angle right limit", Command{CommandSteeringAngle, 1}, false},
		{"steering angle out of range", Command{CommandSteeringAngle, 1.5}, true},
		{"steering torque below limit", Command{CommandSteeringTorque, -1.0001}, true},
		{"steering torque zero", Command{CommandSteeringTorque, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := EncodeCommand(tt.cmd)
			if tt.wantErr {
				if !errors.Is(err, ErrOutOfRange) {
					t.Fatalf("EncodeCommand(%v) error = %v, want ErrOutOfRange", tt.cmd, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeCommand(%v) failed: %v", tt.cmd, err)
			}
			if f.ID != tt.cmd.Kind.CANID() {
				t.Errorf("frame ID = 0x%03X, want 0x%03X", f.ID, tt.cmd.Kind.CANID())
			}
			if f.Len != can.MaxDataLen {
				t.Errorf("frame Len = %d, want %d", f.Len, can.MaxDataLen)
			}
			if f.Data[0] != MagicByte0 || f.Data[1] != MagicByte1 {
				t.Errorf("magic bytes = %02X %02X, want %02X %02X",
					f.Data[0], f.Data[1], MagicByte0, MagicByte1)
			}
		})
	}
}

func TestCommandRoundTrip(t *testing.T) {
	tests := []struct {
		kind      CommandKind
		value     float64
		tolerance float64
	}{
		{CommandBrakePosition, 0, 1.0 / 65535},
		{CommandBrakePosition, 0.5, 1.0 / 65535},
		{CommandBrakePressure, 0.333, 1.0 / 65535},
		{CommandThrottlePosition, 1, 1.0 / 65535},
		{CommandSteeringAngle, -1, 1.0 / 32767},
		{CommandSteeringAngle, 0.25, 1.0 / 32767},
		{CommandSteeringTorque, -0.75, 1.0 / 32767},
		{CommandSteeringTorque, 1, 1.0 / 32767},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			f, err := EncodeCommand(Command{Kind: tt.kind, Value: tt.value})
			if err != nil {
				t.Fatalf("EncodeCommand failed: %v", err)
			}
			got, err := DecodeCommand(f)
			if err != nil {
				t.Fatalf("DecodeCommand failed: %v", err)
			}
			if got.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", got.Kind, tt.kind)
			}
			if math.Abs(got.Value-tt.value) > tt.tolerance {
				t.Errorf("value = %v, want %v within %v", got.Value, tt.value, tt.tolerance)
			}
		})
	}
}

func TestReportRoundTrip(t *testing.T) {
	brake := BrakeReport{Position: 0.5, Enabled: true, OperatorOverride: false, DTCs: 0x0102}
	f, err := EncodeBrakeReport(brake)
	if err != nil {
		t.Fatalf("EncodeBrakeReport failed: %v", err)
	}
	gotBrake, err := DecodeBrakeReport(f)
	if err != nil {
		t.Fatalf("DecodeBrakeReport failed: %v", err)
	}
	if math.Abs(gotBrake.Position-brake.Position) > 1.0/65535 {
		t.Errorf("position = %v, want %v", gotBrake.Position, brake.Position)
	}
	if !gotBrake.Enabled || gotBrake.OperatorOverride || gotBrake.DTCs != 0x0102 {
		t.Errorf("decoded brake report = %+v, want %+v", gotBrake, brake)
	}

	steering := SteeringReport{Angle: -0.5, Enabled: true, OperatorOverride: true, DTCs: 0xBEEF}
	sf, err := EncodeSteeringReport(steering)
	if err != nil {
		t.Fatalf("EncodeSteeringReport failed: %v", err)
	}
	gotSteering, err := DecodeSteeringReport(sf)
	if err != nil {
		t.Fatalf("DecodeSteeringReport failed: %v", err)
	}
	if math.Abs(gotSteering.Angle-steering.Angle) > 1.0/32767 {
		t.Errorf("angle = %v, want %v", gotSteering.Angle, steering.Angle)
	}
	if !gotSteering.OperatorOverride || gotSteering.DTCs != 0xBEEF {
		t.Errorf("decoded steering report = %+v, want %+v", gotSteering, steering)
	}

	fault := FaultReport{Origin: ModuleSteering, DTCs: 0x0004}
	ff, err := EncodeFaultReport(fault)
	if err != nil {
		t.Fatalf("EncodeFaultReport failed: %v", err)
	}
	gotFault, err := DecodeFaultReport(ff)
	if err != nil {
		t.Fatalf("DecodeFaultReport failed: %v", err)
	}
	if gotFault != fault {
		t.Errorf("decoded fault report = %+v, want %+v", gotFault, fault)
	}
}

func TestDecodeForeignMagic(t *testing.T) {
	f, err := EncodeThrottleReport(ThrottleReport{Position: 0.7, Enabled: true})
	if err != nil {
		t.Fatalf("EncodeThrottleReport failed: %v", err)
	}
	f.Data[0] = 0x42 // foreign node sharing the identifier

	_, err = DecodeThrottleReport(f)
	if !errors.Is(err, ErrMagicMismatch) {
		t.Fatalf("expected ErrMagicMismatch, got %v", err)
	}
}

func TestDecodeMalformedLength(t *testing.T) {
	f, err := EncodeBrakeReport(BrakeReport{Position: 0.1})
	if err != nil {
		t.Fatalf("EncodeBrakeReport failed: %v", err)
	}
	f.Len = 4

	_, err = DecodeBrakeReport(f)
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestDecodeWrongIdentifier(t *testing.T) {
	f, err := EncodeBrakeReport(BrakeReport{Position: 0.1})
	if err != nil {
		t.Fatalf("EncodeBrakeReport failed: %v", err)
	}

	if _, err := DecodeSteeringReport(f); !errors.Is(err, ErrUnexpectedID) {
		t.Fatalf("expected ErrUnexpectedID, got %v", err)
	}
}

func TestDecodeFaultReportBadOrigin(t *testing.T) {
	f, err := EncodeFaultReport(FaultReport{Origin: ModuleThrottle, DTCs: 1})
	if err != nil {
		t.Fatalf("EncodeFaultReport failed: %v", err)
	}
	f.Data[faultOriginOffset] = 9

	if _, err := DecodeFaultReport(f); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestIdentifierTableHasNoOverlaps(t *testing.T) {
	ids := []uint32{
		BrakeEnableID, BrakeDisableID, BrakeCommandID, BrakeReportID,
		SteeringEnableID, SteeringDisableID, SteeringCommandID, SteeringReportID,
		ThrottleEnableID, ThrottleDisableID, ThrottleCommandID, ThrottleReportID,
		FaultReportID,
	}

	seen := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Errorf("identifier 0x%03X assigned twice", id)
		}
		seen[id] = true
		if !IsOSCCID(id) {
			t.Errorf("IsOSCCID(0x%03X) = false, want true", id)
		}
	}

	if IsOSCCID(0x7DF) {
		t.Error("IsOSCCID(0x7DF) = true for OBD functional request, want false")
	}
}

func TestReportKindForID(t *testing.T) {
	tests := []struct {
		id   uint32
		kind ReportKind
		ok   bool
	}{
		{BrakeReportID, ReportBrake, true},
		{ThrottleReportID, ReportThrottle, true},
		{SteeringReportID, ReportSteering, true},
		{FaultReportID, ReportFault, true},
		{BrakeCommandID, 0, false},
		{0x7E8, 0, false},
	}

	for _, tt := range tests {
		kind, ok := ReportKindForID(tt.id)
		if ok != tt.ok || (ok && kind != tt.kind) {
			t.Errorf("ReportKindForID(0x%03X) = %v, %v; want %v, %v", tt.id, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestEnableDisableFrames(t *testing.T) {
	for _, m := range Modules() {
		enable := EncodeEnable(m)
		if enable.ID != m.EnableID() {
			t.Errorf("%s enable ID = 0x%03X, want 0x%03X", m, enable.ID, m.EnableID())
		}
		disable := EncodeDisable(m)
		if disable.ID != m.DisableID() {
			t.Errorf("%s disable ID = 0x%03X, want 0x%03X", m, disable.ID, m.DisableID())
		}
		for _, f := range []can.Frame{enable, disable} {
			if f.Len != can.MaxDataLen || f.Data[0] != MagicByte0 || f.Data[1] != MagicByte1 {
				t.Errorf("%s frame 0x%03X missing magic payload", m, f.ID)
			}
		}
	}
}
