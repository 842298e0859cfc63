package can

import (
	"errors"
	"fmt"
)

// Classical CAN limits. OSCC uses standard 11-bit identifiers and
// 8-byte payloads exclusively.
const (
	// MaxDataLen is the classical CAN payload size.
	MaxDataLen = 8

	// MaxStdID is the largest standard (11-bit) identifier.
	MaxStdID = 0x7FF
)

// Frame validation errors.
var (
	ErrInvalidID  = errors.New("invalid CAN identifier")
	ErrInvalidLen = errors.New("invalid CAN data length")
)

// Frame is a classical CAN data frame.
type Frame struct {
	// ID is the standard 11-bit identifier.
	ID uint32

	// Len is the number of valid bytes in Data (0-8).
	Len uint8

	// Data is the payload; bytes past Len are zero.
	Data [MaxDataLen]byte
}

// NewFrame builds a frame from an identifier and payload bytes.
func NewFrame(id uint32, data []byte) (Frame, error) {
	f := Frame{ID: id, Len: uint8(len(data))}
	if len(data) > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrInvalidLen, len(data))
	}
	copy(f.Data[:], data)
	return f, f.Validate()
}

// Validate returns an error if the frame cannot appear on the bus.
func (f Frame) Validate() error {
	if f.ID > MaxStdID {
		return fmt.Errorf("%w: 0x%X", ErrInvalidID, f.ID)
	}
	if f.Len > MaxDataLen {
		return fmt.Errorf("%w: %d", ErrInvalidLen, f.Len)
	}
	return nil
}

// Payload returns the valid portion of the frame data.
func (f Frame) Payload() []byte {
	return f.Data[:f.Len]
}
