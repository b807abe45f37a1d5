// Package defn holds the types and compile-time constants shared across the
// stack's components (pool, route, socket, ingress, sfp) so that those
// packages can depend on a common vocabulary without importing each other.
package defn

import "time"

// Compile-time resource budgets. All are fixed at build time; exhaustion of
// any of them is a normal, recoverable condition, never a crash.
const (
	// MTU is the maximum payload size, in bytes, carried by a single packet.
	MTU = 128
	// HeaderSize is the size, in bytes, of the on-wire header (see package wire).
	HeaderSize = 4
	// PoolSize is the number of packet records held by the buffer pool.
	PoolSize = 20
	// RetryLimit bounds the number of stop-and-wait transmission attempts per send.
	RetryLimit = 3
	// AckTimeout bounds how long a sender waits for an ACK before retrying.
	AckTimeout = 500 * time.Millisecond
	// MaxPorts bounds local port numbers to the range [0, MaxPorts).
	MaxPorts = 64
	// MaxNodes bounds both the node address space and the route table size.
	MaxNodes = 256
	// MaxSockets is the size of the fixed socket slot pool.
	MaxSockets = 20
	// RecvQueueDepth is the per-socket receive queue capacity.
	RecvQueueDepth = 10
	// AcceptQueueDepth is the per-listening-socket accept queue capacity.
	AcceptQueueDepth = 5
	// SFPMaxFragments bounds the number of fragments a single SFP message may produce.
	SFPMaxFragments = 255
)

// WaitForever, passed as a timeout, blocks until the call completes with no deadline.
const WaitForever time.Duration = -1
