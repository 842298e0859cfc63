// Package dispatch routes inbound CAN frames to report subscribers.
//
// The dispatcher demultiplexes frames by CAN identifier, decodes OSCC
// reports through the wire codec, and invokes the callback registered
// for each report kind. At most one callback is registered per kind;
// re-subscribing replaces the prior callback.
//
// # Drop Policy
//
// A shared bus carries plenty of traffic that is not ours:
//
//   - Identifiers outside the OSCC table go to the raw OBD subscriber
//     if one is registered, otherwise they are dropped.
//   - OSCC identifiers that do not carry reports (echoed commands,
//     enable/disable frames) are dropped.
//   - Report frames whose magic marker mismatches are dropped silently:
//     a foreign node coincidentally shares the identifier.
//   - Report frames with a malformed payload are reported through the
//     diagnostic logger and dropped; one bad frame never stops the loop.
//
// Callbacks run synchronously on the receive goroutine, preserving bus
// order. Subscribers must not block.
package dispatch
