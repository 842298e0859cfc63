package can

import "errors"

// Driver errors.
var (
	// ErrDriverClosed is returned by Receive after the driver has been
	// closed. The channel treats it as a clean shutdown signal.
	ErrDriverClosed = errors.New("driver closed")

	// ErrUnsupportedPlatform indicates no CAN driver exists for this
	// operating system.
	ErrUnsupportedPlatform = errors.New("no CAN driver for this platform")
)

// Driver abstracts the CAN transceiver. Implementations must make
// Send safe for concurrent callers and must unblock a pending Receive
// with ErrDriverClosed when Close is called.
type Driver interface {
	// Open binds the driver to the given channel.
	Open(channel int) error

	// Send transmits a frame. It may block briefly while the hardware
	// transmit buffer is full.
	Send(f Frame) error

	// Receive blocks until the next frame arrives or the driver is
	// closed.
	Receive() (Frame, error)

	// Close releases the binding and unblocks Receive.
	Close() error
}
