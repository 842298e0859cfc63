// Package oscc is the supervisor-side OSCC protocol engine.
//
// An Engine owns one CAN channel binding and composes the channel,
// codec and dispatcher layers behind the operations a supervising
// program needs: open/close, enable/disable, publish commands and
// subscribe to module reports.
//
// # Safety Gate
//
// No actuation command reaches the bus unless the engine has been
// explicitly enabled. Enable broadcasts enable commands to all three
// modules and arms the gate only when every send succeeded; a partial
// enable is aborted. Disable is fail-safe: the gate is disarmed
// locally before the disable broadcast is attempted, so a dead bus can
// never leave the engine believing it is still enabled.
//
// # Concurrency
//
// Publish, enable and disable calls run on the caller's goroutine and
// may race freely. One background goroutine drains the channel and
// delivers reports to subscribers in bus order; Close cancels it and
// returns only after it has fully stopped, so no callback runs after
// Close returns.
package oscc
