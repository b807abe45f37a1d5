package socket

import (
	"time"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/errs"
	"github.com/dogukanarat/danp/log"
	"github.com/dogukanarat/danp/wire"
)

func (t *Table) txControl(s *Socket, flags defn.Flags) error {
	pkt, err := t.pool.Get()
	if err != nil {
		return err
	}
	pkt.HeaderRaw = wire.Pack(wire.Fields{
		DstNode: uint8(s.remoteNode),
		SrcNode: uint8(s.localNode),
		DstPort: uint8(s.remotePort),
		SrcPort: uint8(s.localPort),
		Flags:   flags,
	})
	pkt.Length = 0
	err = t.route.Tx(pkt)
	t.pool.Free(pkt)
	return err
}

// Listen transitions an Open reliable socket into Listening, ready to
// receive SYNs through Accept.
func (t *Table) Listen(s *Socket) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.typ != defn.TypeReliable {
		return errs.ErrArgument
	}
	if s.state != defn.StateOpen || s.localPort == 0 {
		return errs.ErrArgument
	}
	s.state = defn.StateListening
	log.Debug("socket listening", "port", s.localPort)
	return nil
}

// Accept blocks until a peer completes the handshake on s, or timeout
// elapses, returning the new connected socket. timeout < 0 (defn.WaitForever)
// blocks indefinitely.
func (t *Table) Accept(s *Socket, timeout time.Duration) (*Socket, error) {
	t.mu.Lock()
	if s.state != defn.StateListening {
		t.mu.Unlock()
		return nil, errs.ErrArgument
	}
	queue := s.acceptQueue
	t.mu.Unlock()

	if timeout < 0 {
		conn := <-queue
		return conn, nil
	}
	select {
	case conn := <-queue:
		return conn, nil
	case <-time.After(timeout):
		return nil, errs.ErrTimeout
	}
}

// Connect drives the client side of the handshake for a reliable socket
// (SYN, wait for SYN-ACK, send ACK), sending the SYN at most
// defn.RetryLimit times, one AckTimeout wait per attempt. For a datagram socket it just records the default peer
// and transitions straight to Established; per the original library, a
// datagram "connection" issues no handshake traffic.
func (t *Table) Connect(s *Socket, remoteNode, remotePort uint16) error {
	t.mu.Lock()
	if s.localPort == 0 {
		t.mu.Unlock()
		return errs.ErrArgument
	}
	s.remoteNode, s.remotePort = remoteNode, remotePort

	if s.typ == defn.TypeDatagram {
		s.state = defn.StateEstablished
		t.mu.Unlock()
		return nil
	}

	if s.state != defn.StateOpen {
		t.mu.Unlock()
		return errs.ErrArgument
	}
	s.state = defn.StateSynSent
	drainSignal(s.signal)
	t.mu.Unlock()

	for attempt := 0; attempt < defn.RetryLimit; attempt++ {
		t.mu.Lock()
		err := t.txControl(s, defn.FlagSYN)
		t.mu.Unlock()
		if err != nil {
			t.mu.Lock()
			s.state = defn.StateOpen
			t.mu.Unlock()
			return err
		}

		select {
		case <-s.signal:
			t.mu.Lock()
			established := s.state == defn.StateEstablished
			t.mu.Unlock()
			if established {
				return nil
			}
		case <-time.After(defn.AckTimeout):
		}
	}

	t.mu.Lock()
	s.state = defn.StateOpen
	t.mu.Unlock()
	log.Error("connect handshake timed out", "port", s.localPort)
	return errs.ErrTimeout
}

// Close tears a socket down: RST a live reliable connection, then return
// its slot to the free pool. Queued, unread packets are freed so pool
// capacity isn't leaked to a future tenant.
func (t *Table) Close(s *Socket) error {
	t.mu.Lock()
	established := s.state == defn.StateEstablished || s.state == defn.StateSynReceived
	t.mu.Unlock()

	if established && s.typ == defn.TypeReliable {
		t.mu.Lock()
		_ = t.txControl(s, defn.FlagRST)
		t.mu.Unlock()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	drainPackets(s.rxQueue, t.pool)
	drainSockets(s.acceptQueue)
	drainSignal(s.signal)
	s.state = defn.StateClosed
	s.localPort = 0
	s.remoteNode, s.remotePort = 0, 0
	log.Debug("socket closed")
	return nil
}

// matchEstablished finds the non-listening socket that exactly matches the
// 4-tuple carried by an incoming data/ack/rst frame.
func (t *Table) matchEstablished(dstPort, srcNode, srcPort uint16) *Socket {
	for i := range t.slots {
		s := &t.slots[i]
		if s.state == defn.StateClosed || s.state == defn.StateListening {
			continue
		}
		if s.localPort != dstPort {
			continue
		}
		if s.remoteNode == srcNode && s.remotePort == srcPort {
			return s
		}
	}
	return nil
}

// matchDatagramAny finds an unconnected datagram socket (one with no
// default peer set by Connect) bound to dstPort, for the plain
// bind-then-recvfrom usage pattern that never calls Connect.
func (t *Table) matchDatagramAny(dstPort uint16) *Socket {
	for i := range t.slots {
		s := &t.slots[i]
		if s.state == defn.StateClosed || s.typ != defn.TypeDatagram {
			continue
		}
		if s.localPort == dstPort && s.remoteNode == 0 && s.remotePort == 0 {
			return s
		}
	}
	return nil
}

func (t *Table) matchListener(dstPort uint16) *Socket {
	for i := range t.slots {
		s := &t.slots[i]
		if s.state == defn.StateListening && s.localPort == dstPort {
			return s
		}
	}
	return nil
}

// Input is the state-machine dispatcher fed by the ingress path for every
// frame addressed to this node. It holds t.mu for its whole duration,
// including the Transmit calls made through t.route: this is safe only
// because the loopback driver enqueues deliveries asynchronously instead
// of re-entering the socket table synchronously (see route and the
// loopback link driver).
func (t *Table) Input(pkt *defn.Packet) error {
	f := wire.Unpack(pkt.HeaderRaw)

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.matchEstablished(uint16(f.DstPort), uint16(f.SrcNode), uint16(f.SrcPort))

	switch {
	case f.Flags.Has(defn.FlagRST):
		if s != nil {
			log.Debug("rst received", "port", s.localPort)
			s.state = defn.StateClosed
			s.localPort = 0
			s.remoteNode, s.remotePort = 0, 0
			select {
			case s.rxQueue <- nil:
			default:
			}
			select {
			case s.signal <- struct{}{}:
			default:
			}
		}
		t.pool.Free(pkt)
		return nil

	case f.Flags.Has(defn.FlagSYN) && !f.Flags.Has(defn.FlagACK):
		return t.inputSyn(pkt, f)

	case f.Flags.Has(defn.FlagSYN) && f.Flags.Has(defn.FlagACK):
		return t.inputSynAck(pkt, f, s)

	case f.Flags.Has(defn.FlagACK) && pkt.Length == 0:
		return t.inputAck(pkt, f, s)

	default:
		return t.inputData(pkt, f, s)
	}
}

func (t *Table) inputSyn(pkt *defn.Packet, f wire.Fields) error {
	listener := t.matchListener(uint16(f.DstPort))
	if listener == nil {
		_ = t.txRstTo(f)
		t.pool.Free(pkt)
		return nil
	}

	child, err := t.openLocked(defn.TypeReliable)
	if err != nil {
		t.pool.Free(pkt)
		return err
	}
	child.localPort = listener.localPort
	child.localNode = listener.localNode
	child.remoteNode = uint16(f.SrcNode)
	child.remotePort = uint16(f.SrcPort)
	child.state = defn.StateSynReceived
	t.pool.Free(pkt)

	if err := t.txControlLocked(child, defn.FlagSYN|defn.FlagACK); err != nil {
		log.Error("failed to send syn-ack", "err", err)
		return err
	}
	log.Debug("syn received, syn-ack sent", "port", child.localPort, "peer", child.remoteNode)
	return nil
}

func (t *Table) inputSynAck(pkt *defn.Packet, f wire.Fields, s *Socket) error {
	if s == nil || s.state != defn.StateSynSent {
		_ = t.txRstTo(f)
		t.pool.Free(pkt)
		return nil
	}
	s.state = defn.StateEstablished
	t.pool.Free(pkt)
	_ = t.txControlLocked(s, defn.FlagACK)
	select {
	case s.signal <- struct{}{}:
	default:
	}
	log.Debug("syn-ack received, established", "port", s.localPort)
	return nil
}

func (t *Table) inputAck(pkt *defn.Packet, f wire.Fields, s *Socket) error {
	if s == nil {
		t.pool.Free(pkt)
		return nil
	}
	if s.state == defn.StateSynReceived {
		s.state = defn.StateEstablished
		log.Debug("ack received, established", "port", s.localPort)
	} else if s.state == defn.StateEstablished {
		s.txSeq++
	}
	t.pool.Free(pkt)
	select {
	case s.signal <- struct{}{}:
	default:
	}
	return nil
}

func (t *Table) inputData(pkt *defn.Packet, f wire.Fields, s *Socket) error {
	if s == nil {
		s = t.matchDatagramAny(uint16(f.DstPort))
	}
	if s == nil {
		_ = t.txRstTo(f)
		t.pool.Free(pkt)
		return nil
	}

	// A SYN-less data frame arriving on a SYN_RECEIVED socket promotes it
	// straight to Established: the peer's first data frame doubles as the
	// final handshake ack, the same shortcut the original C state machine took.
	if s.state == defn.StateSynReceived {
		s.state = defn.StateEstablished
		log.Debug("data promoted syn_received to established", "port", s.localPort)
	}

	if s.typ == defn.TypeDatagram {
		select {
		case s.rxQueue <- pkt:
		default:
			t.pool.Free(pkt)
		}
		return nil
	}

	if s.state != defn.StateEstablished {
		t.pool.Free(pkt)
		return nil
	}

	seq := pkt.Payload[0]
	if seq != s.rxExpectedSeq {
		// duplicate or out-of-order retransmit: re-ack the last good seq,
		// drop the payload, do not advance.
		t.pool.Free(pkt)
		_ = t.txControlLocked(s, defn.FlagACK)
		return nil
	}

	s.rxExpectedSeq++
	select {
	case s.rxQueue <- pkt:
	default:
		t.pool.Free(pkt)
	}
	_ = t.txControlLocked(s, defn.FlagACK)
	return nil
}

// openLocked is Open's body for callers that already hold t.mu.
func (t *Table) openLocked(typ defn.SocketType) (*Socket, error) {
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
		return s, nil
	}
	return nil, errs.ErrExhausted
}

// txControlLocked sends a zero-length control frame for s. Caller must
// hold t.mu. On completing a server-side handshake it also publishes the
// new connection to its listener's accept queue.
func (t *Table) txControlLocked(s *Socket, flags defn.Flags) error {
	err := t.txControl(s, flags)
	if err == nil && flags == defn.FlagSYN|defn.FlagACK {
		if listener := t.matchListener(s.localPort); listener != nil {
			select {
			case listener.acceptQueue <- s:
			default:
				log.Warn("accept queue full, dropping handshake", "port", listener.localPort)
				s.state = defn.StateClosed
				s.localPort = 0
				s.remoteNode, s.remotePort = 0, 0
			}
		}
	}
	return err
}

func (t *Table) txRstTo(f wire.Fields) error {
	pkt, err := t.pool.Get()
	if err != nil {
		return err
	}
	pkt.HeaderRaw = wire.Pack(wire.Fields{
		DstNode: f.SrcNode,
		SrcNode: f.DstNode,
		DstPort: f.SrcPort,
		SrcPort: f.DstPort,
		Flags:   defn.FlagRST,
	})
	pkt.Length = 0
	err = t.route.Tx(pkt)
	t.pool.Free(pkt)
	return err
}
