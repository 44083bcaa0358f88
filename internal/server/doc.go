// Package server implements the captcha server: a sequential TCP accept
// loop feeding a single-byte command dispatcher.
//
// # Lifecycle
//
// NewServer binds the listener and loads the stat file; a corrupted stat
// file is a construction error and nothing is served. Run then accepts one
// client at a time and serves it until the client disconnects, after which
// the next client is accepted. A SERVER_SHUTDOWN command, cancelling the
// context passed to Run, or calling Stop ends the whole service.
//
// # Commands
//
//   - 0x01 STATS - reply "Success: N\nFailed: M\n"
//   - 0x02 CAPTCHA_MATH - send "<a> + <b>", read the sum, reply "Success" or "Failed"
//   - 0x03 CAPTCHA_EVEN_ODD - send "n1,...,nN,", read N digits, reply "Success" or "Failed"
//   - 0x04 DISCONNECT - close this client and accept the next one
//   - 0x05 SERVER_SHUTDOWN - stop serving entirely
//
// A zero byte or a read error counts as a disconnect. Any other byte is
// reported on the operator log and ignored.
//
// # Persistence
//
// Every verification rewrites the stat file before the verdict is sent.
// Failures are additionally appended to the event log. Write errors on
// either file are logged and otherwise ignored.
package server
