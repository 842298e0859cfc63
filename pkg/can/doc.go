// Package can provides the CAN channel binding for the OSCC engine.
//
// A Channel owns one binding to a physical CAN bus, identified by an
// integer channel ID. It layers lifecycle management (open, close,
// single-binding enforcement), thread-safe transmission and a
// cancelable receive loop over a Driver, the minimal interface a CAN
// transceiver has to implement.
//
// On Linux the SocketCAN driver binds channel N to interface "canN".
// Tests inject fake drivers.
//
// At most one Channel may be open per channel ID in a process; two
// bindings to the same bus would let a stale supervisor keep
// actuating behind the active one's back.
package can
