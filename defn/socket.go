package defn

// SocketType distinguishes the two transports the stack offers.
type SocketType int

const (
	// TypeDatagram is the connectionless, unreliable transport.
	TypeDatagram SocketType = iota
	// TypeReliable is the connection-oriented transport with stop-and-wait ARQ.
	TypeReliable
)

func (t SocketType) String() string {
	switch t {
	case TypeDatagram:
		return "DGRAM"
	case TypeReliable:
		return "STREAM"
	default:
		return "UNKNOWN"
	}
}

// SocketState is the connection state machine's current state (reliable
// sockets use all of these; datagram sockets sit in Closed or Open, or in
// Established once Connect has set a default peer).
type SocketState int

const (
	StateClosed SocketState = iota
	StateOpen
	StateListening
	StateSynSent
	StateSynReceived
	StateEstablished
)

func (s SocketState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateListening:
		return "LISTENING"
	case StateSynSent:
		return "SYN_SENT"
	case StateSynReceived:
		return "SYN_RECEIVED"
	case StateEstablished:
		return "ESTABLISHED"
	default:
		return "UNKNOWN"
	}
}
