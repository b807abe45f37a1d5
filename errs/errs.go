// Package errs holds the sentinel errors shared across the stack's
// components, one per error kind distinguished by the design (argument,
// exhaustion, no-route, timeout, reset).
package errs

import "errors"

var (
	// ErrArgument marks a caller mistake: a nil required pointer, a length
	// out of range, the wrong socket type for the call, a port out of range.
	ErrArgument = errors.New("danp: invalid argument")
	// ErrExhausted marks resource exhaustion: empty pool, no free socket
	// slot, full route table, no free ephemeral port.
	ErrExhausted = errors.New("danp: resource exhausted")
	// ErrNoRoute marks an unroutable destination or an MTU violation at the router.
	ErrNoRoute = errors.New("danp: no route to destination")
	// ErrTimeout marks a blocking call that reached its deadline.
	ErrTimeout = errors.New("danp: timed out")
	// ErrReset marks a socket torn down by a peer RST.
	ErrReset = errors.New("danp: connection reset")
	// ErrClosed marks an operation attempted on a closed socket.
	ErrClosed = errors.New("danp: socket closed")
)

// EINVAL is returned by SFP send operations on a socket of the wrong
// type, distinguishable by errors.Is from a generic ErrArgument the way the
// original's negated -EINVAL was distinguishable from a generic -1.
var EINVAL = errors.New("danp: EINVAL")
