//go:build linux

package can

import (
	"fmt"
	"sync"

	bcan "github.com/brutella/can"
)

// rxBufferSize is the depth of the SocketCAN receive buffer. When the
// consumer falls this far behind the bus, oldest-first frames are
// dropped (bus overrun).
const rxBufferSize = 1024

// SocketCAN binds a channel to a Linux SocketCAN interface via
// brutella/can. Channel N maps to interface "canN".
type SocketCAN struct {
	mu        sync.Mutex
	bus       *bcan.Bus
	frames    chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

// NewDriver returns the platform CAN driver.
func NewDriver() (Driver, error) {
	return &SocketCAN{}, nil
}

// Open binds to interface "can<channel>" and starts the bus reader.
func (d *SocketCAN) Open(channel int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	bus, err := bcan.NewBusForInterfaceWithName(fmt.Sprintf("can%d", channel))
	if err != nil {
		return err
	}

	d.bus = bus
	d.frames = make(chan Frame, rxBufferSize)
	d.done = make(chan struct{})

	// brutella/can delivers received frames through the Handle method.
	bus.Subscribe(d)
	go bus.ConnectAndPublish()

	return nil
}

// Handle converts a brutella/can frame and queues it for Receive.
func (d *SocketCAN) Handle(frm bcan.Frame) {
	f := Frame{ID: frm.ID, Len: frm.Length}
	copy(f.Data[:], frm.Data[:])

	select {
	case d.frames <- f:
	default:
		// Consumer is behind; drop the frame rather than stall the bus
		// reader.
	}
}

// Send publishes a frame on the SocketCAN interface.
func (d *SocketCAN) Send(f Frame) error {
	d.mu.Lock()
	bus := d.bus
	d.mu.Unlock()

	if bus == nil {
		return ErrDriverClosed
	}
	return bus.Publish(bcan.Frame{
		ID:     f.ID,
		Length: f.Len,
		Data:   f.Data,
	})
}

// Receive blocks until the next frame arrives or the driver is closed.
func (d *SocketCAN) Receive() (Frame, error) {
	select {
	case f := <-d.frames:
		return f, nil
	case <-d.done:
		return Frame{}, ErrDriverClosed
	}
}

// Close disconnects from the interface and unblocks Receive.
func (d *SocketCAN) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.done)
		d.mu.Lock()
		if d.bus != nil {
			err = d.bus.Disconnect()
		}
		d.mu.Unlock()
	})
	return err
}

// Compile-time interface satisfaction check.
var _ Driver = (*SocketCAN)(nil)
