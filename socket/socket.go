// Package socket implements the socket table, port allocation, and the
// reliable-transport connection state machine on top of package pool and
// package route.
package socket

import (
	"sync"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/errs"
	"github.com/dogukanarat/danp/log"
	"github.com/dogukanarat/danp/pool"
	"github.com/dogukanarat/danp/route"
)

// Socket is one slot of the fixed socket pool. A slot is free when CLOSED
// with localPort == 0; an opened slot has localPort 0 until Bind gives it a
// non-zero port, and port values are unique across non-closed slots.
type Socket struct {
	state SocketState
	typ   defn.SocketType

	localPort  uint16
	localNode  uint16
	remoteNode uint16
	remotePort uint16

	txSeq         uint8
	rxExpectedSeq uint8

	// Persistent OS-style handles. These outlive Close and are reused
	// across Open calls into the same slot, as the original's RTOS
	// queue/semaphore handles did.
	rxQueue     chan *defn.Packet
	acceptQueue chan *Socket
	signal      chan struct{}
}

// SocketState is a local alias so callers of this package don't need to
// import defn solely to name a state in tests or logs.
type SocketState = defn.SocketState

// State returns the socket's current connection state.
func (s *Socket) State() defn.SocketState { return s.state }

// Type returns whether this is a reliable or datagram socket.
func (s *Socket) Type() defn.SocketType { return s.typ }

// LocalPort returns the socket's bound local port, or 0 if unbound.
func (s *Socket) LocalPort() uint16 { return s.localPort }

// Remote returns the socket's peer node and port (valid when connected or default-peered).
func (s *Socket) Remote() (node, port uint16) { return s.remoteNode, s.remotePort }

// TxSeq returns the next sequence number this socket will send (test/debug hook).
func (s *Socket) TxSeq() uint8 { return s.txSeq }

// RxExpectedSeq returns the next sequence number this socket expects to receive.
func (s *Socket) RxExpectedSeq() uint8 { return s.rxExpectedSeq }

func (s *Socket) String() string {
	return "sock:" + itoa(int(s.localPort)) + "/" + s.typ.String() + "/" + s.state.String()
}

// Table is the fixed pool of MaxSockets slots plus the routing resources
// the state machine needs to emit control frames: the packet pool and the
// route table. A single non-reentrant mutex guards allocation, lookup, and
// state-machine dispatch (see the socket entry in DESIGN.md on breaking the
// socket_mutex re-entrancy the original relied on).
type Table struct {
	mu            sync.Mutex
	slots         [defn.MaxSockets]Socket
	nextEphemeral uint16
	localNode     uint16

	pool  *pool.Pool
	route *route.Table
}

// New returns a socket table bound to localNode, backed by p and r.
func New(localNode uint16, p *pool.Pool, r *route.Table) *Table {
	return &Table{
		nextEphemeral: 1,
		localNode:     localNode,
		pool:          p,
		route:         r,
	}
}

func drainPackets(ch chan *defn.Packet, p *pool.Pool) {
	for {
		select {
		case pkt := <-ch:
			if pkt != nil {
				p.Free(pkt)
			}
		default:
			return
		}
	}
}

func drainSockets(ch chan *Socket) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func drainSignal(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

// Open allocates the first free slot, scrubs its addressing and sequence
// state, lazily creates its OS handles on first use, drains any stale
// messages left from a prior tenant, and returns it bound to no port yet.
func (t *Table) Open(typ defn.SocketType) (*Socket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		s := &t.slots[i]
		if s.state != defn.StateClosed || s.localPort != 0 {
			continue
		}

		s.typ = typ
		s.localNode = t.localNode
		s.remoteNode, s.remotePort = 0, 0
		s.txSeq, s.rxExpectedSeq = 0, 0

		if s.rxQueue == nil {
			s.rxQueue = make(chan *defn.Packet, defn.RecvQueueDepth)
		}
		if s.acceptQueue == nil {
			s.acceptQueue = make(chan *Socket, defn.AcceptQueueDepth)
		}
		if s.signal == nil {
			s.signal = make(chan struct{}, 1)
		}
		drainPackets(s.rxQueue, t.pool)
		drainSockets(s.acceptQueue)
		drainSignal(s.signal)

		s.state = defn.StateOpen
		log.Debug("opened socket", "type", typ.String())
		return s, nil
	}

	log.Error("no free socket slot")
	return nil, errs.ErrExhausted
}

func (t *Table) portInUse(port uint16) bool {
	for i := range t.slots {
		s := &t.slots[i]
		if s.state != defn.StateClosed && s.localPort == port {
			return true
		}
	}
	return false
}

// Bind assigns sock a local port. Port 0 requests an ephemeral port,
// chosen by scanning from a persistent cursor over [1, MaxPorts); the
// cursor only advances past a port that was actually chosen, not on every
// scan step, so the observable sequence of ephemeral ports is predictable.
func (t *Table) Bind(sock *Socket, port uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if sock.localPort != 0 {
		return errs.ErrArgument
	}

	if port == 0 {
		cursor := t.nextEphemeral
		if cursor == 0 {
			cursor = 1
		}
		for i := 0; i < int(defn.MaxPorts-1); i++ {
			if !t.portInUse(cursor) {
				sock.localPort = cursor
				sock.localNode = t.localNode
				next := cursor + 1
				if next >= defn.MaxPorts {
					next = 1
				}
				t.nextEphemeral = next
				return nil
			}
			cursor++
			if cursor >= defn.MaxPorts {
				cursor = 1
			}
		}
		log.Error("no free ephemeral port")
		return errs.ErrExhausted
	}

	if port >= defn.MaxPorts {
		return errs.ErrArgument
	}
	if t.portInUse(port) {
		return errs.ErrArgument
	}
	sock.localPort = port
	sock.localNode = t.localNode
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
