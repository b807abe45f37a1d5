package socket

import (
	"time"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/errs"
	"github.com/dogukanarat/danp/log"
	"github.com/dogukanarat/danp/wire"
)

// Send writes buf reliably to s's connected peer using stop-and-wait ARQ:
// one outstanding segment at a time, transmitted at most defn.RetryLimit
// times, one AckTimeout wait per attempt, before giving up with ErrTimeout. For a datagram socket it
// sends buf unacknowledged to the default peer set by Connect.
func (t *Table) Send(s *Socket, buf []byte) error {
	if len(buf) > defn.MTU-1 {
		return errs.ErrArgument
	}

	t.mu.Lock()
	if s.state != defn.StateEstablished {
		t.mu.Unlock()
		return errs.ErrArgument
	}
	dstNode, dstPort := s.remoteNode, s.remotePort
	t.mu.Unlock()

	if s.typ == defn.TypeDatagram {
		return t.sendFrame(s.localNode, s.localPort, dstNode, dstPort, defn.FlagNone, buf)
	}

	t.mu.Lock()
	seq := s.txSeq
	drainSignal(s.signal)
	t.mu.Unlock()

	payload := make([]byte, 0, len(buf)+1)
	payload = append(payload, seq)
	payload = append(payload, buf...)

	for attempt := 0; attempt < defn.RetryLimit; attempt++ {
		t.mu.Lock()
		if s.state != defn.StateEstablished {
			t.mu.Unlock()
			return errs.ErrReset
		}
		err := t.sendFrameLocked(s.localNode, s.localPort, dstNode, dstPort, defn.FlagNone, payload)
		t.mu.Unlock()
		if err != nil {
			return err
		}

		select {
		case <-s.signal:
			t.mu.Lock()
			acked := s.txSeq == seq+1 // uint8 wraps, so this also covers the 255->0 rollover
			reset := s.state != defn.StateEstablished
			t.mu.Unlock()
			if reset {
				return errs.ErrReset
			}
			if acked {
				return nil
			}
		case <-time.After(defn.AckTimeout):
		}
	}
	log.Error("send retry limit exceeded", "port", s.localPort)
	return errs.ErrTimeout
}

// sendFrame builds and routes one frame outside the lock.
func (t *Table) sendFrame(srcNode, srcPort, dstNode, dstPort uint16, flags defn.Flags, buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sendFrameLocked(srcNode, srcPort, dstNode, dstPort, flags, buf)
}

func (t *Table) sendFrameLocked(srcNode, srcPort, dstNode, dstPort uint16, flags defn.Flags, buf []byte) error {
	pkt, err := t.pool.Get()
	if err != nil {
		return err
	}
	pkt.HeaderRaw = wire.Pack(wire.Fields{
		DstNode: uint8(dstNode),
		SrcNode: uint8(srcNode),
		DstPort: uint8(dstPort),
		SrcPort: uint8(srcPort),
		Flags:   flags,
	})
	pkt.Length = copy(pkt.Payload[:], buf)
	err = t.route.Tx(pkt)
	t.pool.Free(pkt)
	return err
}

// Recv blocks for the next delivered payload on s, copying it into buf and
// returning the byte count. When a peer RST arrives the state machine
// queues a nil sentinel, and Recv returns 0 with no error; a timeout
// instead returns ErrTimeout, so a caller can tell a bounded wait from
// peer teardown.
func (t *Table) Recv(s *Socket, buf []byte, timeout time.Duration) (int, error) {
	var pkt *defn.Packet
	if timeout < 0 {
		pkt = <-s.rxQueue
	} else {
		select {
		case pkt = <-s.rxQueue:
		case <-time.After(timeout):
			return 0, errs.ErrTimeout
		}
	}
	if pkt == nil {
		return 0, nil
	}

	data := pkt.Bytes()
	if s.typ == defn.TypeReliable {
		if len(data) > 0 {
			data = data[1:] // strip sequence byte
		}
	}
	n := copy(buf, data)
	t.pool.Free(pkt)
	return n, nil
}

// SendTo sends buf to an explicit destination on a datagram socket without
// disturbing any default peer set by Connect.
func (t *Table) SendTo(s *Socket, dstNode, dstPort uint16, buf []byte) error {
	if s.typ != defn.TypeDatagram {
		return errs.ErrArgument
	}
	if len(buf) > defn.MTU-1 {
		return errs.ErrArgument
	}
	t.mu.Lock()
	if s.localPort == 0 {
		t.mu.Unlock()
		return errs.ErrArgument
	}
	srcNode, srcPort := s.localNode, s.localPort
	t.mu.Unlock()
	return t.sendFrame(srcNode, srcPort, dstNode, dstPort, defn.FlagNone, buf)
}

// RecvFrom blocks for the next datagram on s, returning its payload length
// and the sender's address.
func (t *Table) RecvFrom(s *Socket, buf []byte, timeout time.Duration) (n int, srcNode, srcPort uint16, err error) {
	var pkt *defn.Packet
	if timeout < 0 {
		pkt = <-s.rxQueue
	} else {
		select {
		case pkt = <-s.rxQueue:
		case <-time.After(timeout):
			return 0, 0, 0, errs.ErrTimeout
		}
	}
	if pkt == nil {
		return 0, 0, 0, nil
	}
	f := wire.Unpack(pkt.HeaderRaw)
	n = copy(buf, pkt.Bytes())
	srcNode, srcPort = uint16(f.SrcNode), uint16(f.SrcPort)
	t.pool.Free(pkt)
	return n, srcNode, srcPort, nil
}

// SendPacket hands pkt directly to the router addressed to s's connected
// peer, bypassing ARQ entirely: the caller owns sequencing. This is the
// zero-copy path for callers that already manage their own reliability
// framing atop raw packets.
func (t *Table) SendPacket(s *Socket, pkt *defn.Packet) error {
	t.mu.Lock()
	if s.state != defn.StateEstablished {
		t.mu.Unlock()
		return errs.ErrArgument
	}
	dstNode, dstPort, srcNode, srcPort := s.remoteNode, s.remotePort, s.localNode, s.localPort
	t.mu.Unlock()

	pkt.HeaderRaw = wire.Pack(wire.Fields{
		DstNode: uint8(dstNode),
		SrcNode: uint8(srcNode),
		DstPort: uint8(dstPort),
		SrcPort: uint8(srcPort),
	})
	return t.route.Tx(pkt)
}

// RecvPacket blocks for the next queued packet on s and returns it intact,
// without freeing it: ownership passes to the caller, who must eventually
// free it back to the pool.
func (t *Table) RecvPacket(s *Socket, timeout time.Duration) (*defn.Packet, error) {
	if timeout < 0 {
		return <-s.rxQueue, nil
	}
	select {
	case pkt := <-s.rxQueue:
		return pkt, nil
	case <-time.After(timeout):
		return nil, errs.ErrTimeout
	}
}

// SendPacketTo is SendPacket's datagram counterpart: routes pkt to an
// explicit destination without requiring a connected peer.
func (t *Table) SendPacketTo(s *Socket, dstNode, dstPort uint16, pkt *defn.Packet) error {
	if s.typ != defn.TypeDatagram {
		return errs.ErrArgument
	}
	t.mu.Lock()
	srcNode, srcPort := s.localNode, s.localPort
	t.mu.Unlock()

	pkt.HeaderRaw = wire.Pack(wire.Fields{
		DstNode: uint8(dstNode),
		SrcNode: uint8(srcNode),
		DstPort: uint8(dstPort),
		SrcPort: uint8(srcPort),
	})
	return t.route.Tx(pkt)
}

// RecvPacketFrom is RecvPacket's datagram counterpart, additionally
// reporting the sender's address.
func (t *Table) RecvPacketFrom(s *Socket, timeout time.Duration) (pkt *defn.Packet, srcNode, srcPort uint16, err error) {
	if timeout < 0 {
		pkt = <-s.rxQueue
	} else {
		select {
		case pkt = <-s.rxQueue:
		case <-time.After(timeout):
			return nil, 0, 0, errs.ErrTimeout
		}
	}
	if pkt == nil {
		return nil, 0, 0, nil
	}
	f := wire.Unpack(pkt.HeaderRaw)
	return pkt, uint16(f.SrcNode), uint16(f.SrcPort), nil
}
