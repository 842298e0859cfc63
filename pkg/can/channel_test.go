package can

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeDriver is an in-memory Driver with scripted receive frames and
// injectable failures.
type fakeDriver struct {
	mu      sync.Mutex
	opened  []int
	sent    []Frame
	openErr error
	sendErr error
	recvErr error

	rx        chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		rx:   make(chan Frame, 16),
		done: make(chan struct{}),
	}
}

func (d *fakeDriver) Open(channel int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return d.openErr
	}
	d.opened = append(d.opened, channel)
	return nil
}

func (d *fakeDriver) Send(f Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sendErr != nil {
		return d.sendErr
	}
	d.sent = append(d.sent, f)
	return nil
}

func (d *fakeDriver) Receive() (Frame, error) {
	d.mu.Lock()
	recvErr := d.recvErr
	d.mu.Unlock()
	if recvErr != nil {
		return Frame{}, recvErr
	}

	select {
	case f := <-d.rx:
		return f, nil
	case <-d.done:
		return Frame{}, ErrDriverClosed
	}
}

func (d *fakeDriver) Close() error {
	d.closeOnce.Do(func() { close(d.done) })
	return nil
}

func (d *fakeDriver) sentFrames() []Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Frame(nil), d.sent...)
}

func TestChannelOpenClose(t *testing.T) {
	ch := NewChannel(3, newFakeDriver())

	if ch.State() != StateClosed {
		t.Fatalf("state = %v, want CLOSED", ch.State())
	}
	if err := ch.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if ch.State() != StateOpen {
		t.Fatalf("state = %v, want OPEN", ch.State())
	}

	if err := ch.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if ch.State() != StateClosed {
		t.Fatalf("state = %v, want CLOSED", ch.State())
	}
}

func TestChannelOpenTwice(t *testing.T) {
	ch := NewChannel(4, newFakeDriver())
	if err := ch.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ch.Close()

	if err := ch.Open(); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("second Open = %v, want ErrAlreadyOpen", err)
	}
}

func TestChannelCloseNotOpen(t *testing.T) {
	ch := NewChannel(5, newFakeDriver())
	if err := ch.Close(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Close on closed channel = %v, want ErrNotOpen", err)
	}
}

func TestChannelCloseBeforeOpenDoesNotPoison(t *testing.T) {
	ch := NewChannel(13, newFakeDriver())

	if err := ch.Close(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("premature Close = %v, want ErrNotOpen", err)
	}

	// The misuse must leave the channel fully usable.
	if err := ch.Open(); err != nil {
		t.Fatalf("Open after premature Close failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close after premature Close = %v, want nil", err)
	}
	if ch.State() != StateClosed {
		t.Fatalf("state = %v, want CLOSED", ch.State())
	}

	// And the binding must be released, not leaked.
	next := NewChannel(13, newFakeDriver())
	if err := next.Open(); err != nil {
		t.Fatalf("rebind after close failed: %v", err)
	}
	next.Close()
}

func TestChannelSingleBindingPerID(t *testing.T) {
	first := NewChannel(6, newFakeDriver())
	if err := first.Open(); err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	second := NewChannel(6, newFakeDriver())
	if err := second.Open(); !errors.Is(err, ErrChannelBusy) {
		t.Fatalf("second binding = %v, want ErrChannelBusy", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The ID is free again once the binding is released.
	third := NewChannel(6, newFakeDriver())
	if err := third.Open(); err != nil {
		t.Fatalf("rebind after close failed: %v", err)
	}
	third.Close()
}

func TestChannelOpenDriverFailure(t *testing.T) {
	driver := newFakeDriver()
	driver.openErr = errors.New("no such interface")

	ch := NewChannel(7, driver)
	if err := ch.Open(); err == nil {
		t.Fatal("Open succeeded with failing driver")
	}
	if ch.State() != StateClosed {
		t.Fatalf("state after failed open = %v, want CLOSED", ch.State())
	}

	// The failed open must not leave the ID claimed.
	retry := NewChannel(7, newFakeDriver())
	if err := retry.Open(); err != nil {
		t.Fatalf("rebind after failed open: %v", err)
	}
	retry.Close()
}

func TestChannelSend(t *testing.T) {
	driver := newFakeDriver()
	ch := NewChannel(8, driver)

	f, err := NewFrame(0x123, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}

	if err := ch.Send(f); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Send before open = %v, want ErrNotOpen", err)
	}

	if err := ch.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ch.Close()

	if err := ch.Send(f); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if sent := driver.sentFrames(); len(sent) != 1 || sent[0].ID != 0x123 {
		t.Fatalf("driver saw %v, want one frame 0x123", sent)
	}

	// Invalid frames never reach the driver.
	bad := Frame{ID: 0x1000, Len: 2}
	if err := ch.Send(bad); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("Send invalid frame = %v, want ErrInvalidID", err)
	}
	if sent := driver.sentFrames(); len(sent) != 1 {
		t.Fatalf("driver saw %d frames after invalid send, want 1", len(sent))
	}
}

func TestChannelSendTransmitError(t *testing.T) {
	driver := newFakeDriver()
	ch := NewChannel(9, driver)
	if err := ch.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ch.Close()

	driver.mu.Lock()
	driver.sendErr = errors.New("tx buffer full")
	driver.mu.Unlock()

	f, _ := NewFrame(0x010, nil)
	if err := ch.Send(f); !errors.Is(err, ErrTransmit) {
		t.Fatalf("Send = %v, want ErrTransmit", err)
	}
}

func TestReceiveLoopDeliversInOrder(t *testing.T) {
	driver := newFakeDriver()
	ch := NewChannel(10, driver)
	if err := ch.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	for i := byte(1); i <= 3; i++ {
		driver.rx <- Frame{ID: uint32(i), Len: 1, Data: [MaxDataLen]byte{i}}
	}

	var got []uint32
	loopDone := make(chan error, 1)
	firstThree := make(chan struct{})
	go func() {
		loopDone <- ch.ReceiveLoop(context.Background(), func(f Frame) {
			got = append(got, f.ID)
			if len(got) == 3 {
				close(firstThree)
			}
		})
	}()

	select {
	case <-firstThree:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frames")
	}

	if err := ch.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case err := <-loopDone:
		if err != nil {
			t.Fatalf("ReceiveLoop = %v, want nil on close", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReceiveLoop did not stop after Close")
	}

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("frames delivered = %v, want [1 2 3]", got)
	}
}

func TestReceiveLoopStopsOnCancel(t *testing.T) {
	driver := newFakeDriver()
	ch := NewChannel(11, driver)
	if err := ch.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- ch.ReceiveLoop(ctx, func(Frame) {})
	}()

	cancel()
	driver.rx <- Frame{ID: 1, Len: 0} // unblock Receive

	select {
	case err := <-loopDone:
		if err != nil {
			t.Fatalf("ReceiveLoop = %v, want nil on cancel", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReceiveLoop did not stop after cancel")
	}
}

func TestReceiveLoopSurfacesDriverFailure(t *testing.T) {
	driver := newFakeDriver()
	ch := NewChannel(12, driver)
	if err := ch.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ch.Close()

	driver.mu.Lock()
	driver.recvErr = errors.New("bus off")
	driver.mu.Unlock()

	err := ch.ReceiveLoop(context.Background(), func(Frame) {
		t.Error("sink invoked for failed receive")
	})
	if err == nil {
		t.Fatal("ReceiveLoop returned nil for driver failure while open")
	}
}

func TestFrameValidate(t *testing.T) {
	if _, err := NewFrame(0x100, make([]byte, 9)); !errors.Is(err, ErrInvalidLen) {
		t.Errorf("NewFrame with 9 bytes = %v, want ErrInvalidLen", err)
	}
	if _, err := NewFrame(0x800, nil); !errors.Is(err, ErrInvalidID) {
		t.Errorf("NewFrame with 12-bit ID = %v, want ErrInvalidID", err)
	}

	f, err := NewFrame(0x0AF, []byte{0xCC, 0x05})
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}
	if f.Len != 2 || len(f.Payload()) != 2 {
		t.Errorf("payload length = %d/%d, want 2", f.Len, len(f.Payload()))
	}
}
