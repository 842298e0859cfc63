//go:build !linux

package can

// NewDriver returns the platform CAN driver. Only SocketCAN on Linux
// is supported; other platforms must supply their own Driver.
func NewDriver() (Driver, error) {
	return nil, ErrUnsupportedPlatform
}
