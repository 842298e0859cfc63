package wire

import (
	"errors"
	"fmt"
	"math"

	"github.com/oscc-protocol/oscc-go/pkg/can"
)

// Codec errors.
var (
	// ErrOutOfRange indicates a command magnitude outside its domain.
	// The command is never transmitted.
	ErrOutOfRange = errors.New("magnitude out of range")

	// ErrMagicMismatch indicates a frame on an OSCC identifier whose
	// magic marker does not match. The frame originates from another
	// bus participant and should be ignored, not treated as fatal.
	ErrMagicMismatch = errors.New("magic marker mismatch")

	// ErrMalformedFrame indicates a frame on an OSCC identifier with an
	// invalid length.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnexpectedID indicates a frame handed to a decoder for a
	// different identifier.
	ErrUnexpectedID = errors.New("unexpected CAN identifier")
)

// Fixed-point scale factors for normalized magnitudes.
const (
	unipolarScale = math.MaxUint16 // [0, 1] -> uint16
	bipolarScale  = math.MaxInt16  // [-1, 1] -> int16
)

// packUnipolar converts a magnitude in [0, 1] to its fixed-point
// representation. The caller must have validated the domain.
func packUnipolar(v float64) uint16 {
	return uint16(math.Round(v * unipolarScale))
}

// unpackUnipolar is the inverse of packUnipolar.
func unpackUnipolar(u uint16) float64 {
	return float64(u) / unipolarScale
}

// packBipolar converts a magnitude in [-1, 1] to its fixed-point
// representation. The caller must have validated the domain.
func packBipolar(v float64) int16 {
	return int16(math.Round(v * bipolarScale))
}

// unpackBipolar is the inverse of packBipolar.
func unpackBipolar(i int16) float64 {
	return float64(i) / bipolarScale
}

// stampMagic writes the magic marker into payload bytes 0-1.
func stampMagic(data *[can.MaxDataLen]byte) {
	data[0] = MagicByte0
	data[1] = MagicByte1
}

// checkOSCCFrame validates length, identifier and magic marker of an
// inbound frame before any field is unpacked.
func checkOSCCFrame(f can.Frame, wantID uint32) error {
	if f.ID != wantID {
		return fmt.Errorf("%w: got 0x%03X, want 0x%03X", ErrUnexpectedID, f.ID, wantID)
	}
	if f.Len != can.MaxDataLen {
		return fmt.Errorf("%w: length %d, want %d", ErrMalformedFrame, f.Len, can.MaxDataLen)
	}
	if f.Data[0] != MagicByte0 || f.Data[1] != MagicByte1 {
		return fmt.Errorf("%w: 0x%02X%02X", ErrMagicMismatch, f.Data[1], f.Data[0])
	}
	return nil
}
