// Package sfp implements the stack's in-band fragmentation layer: it
// carries a message larger than defn.MTU over a reliable socket by
// splitting it into fragments, each prefixed with a one-byte header
// carrying a continuation bit, a begin-of-message bit, and a 6-bit
// fragment id. Reassembly hands the caller an owned chain of the
// fragment packets themselves rather than a copied byte buffer.
package sfp

import (
	"time"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/errs"
	"github.com/dogukanarat/danp/pool"
)

const (
	flagMore  = 0x80
	flagBegin = 0x40
	idMask    = 0x3F

	// fragCapacity is the payload bytes available per fragment once the
	// wire header and the SFP header byte are both accounted for.
	fragCapacity = defn.MTU - defn.HeaderSize - 1
)

// Transport is the narrow send/recv contract sfp needs from a connected
// reliable socket, satisfied by the closures package danp builds around a
// bound *socket.Table and *socket.Socket. Send writes one ARQ-framed
// fragment; RecvPacket dequeues one reassembled-in fragment still owned as
// a pool packet, so Recv can hand the caller an owned chain rather than a
// copy.
type Transport struct {
	Send       func(buf []byte) error
	RecvPacket func(timeout time.Duration) (*defn.Packet, error)
}

// Send fragments msg and writes it to t, one fragment per underlying Send
// call. msg may be longer than defn.MTU; it may not produce more than
// defn.SFPMaxFragments fragments.
func Send(t Transport, msg []byte) error {
	if len(msg) == 0 {
		return sendFragment(t, 0, true, nil)
	}

	id := uint8(0)
	for offset := 0; offset < len(msg); {
		if int(id) >= defn.SFPMaxFragments {
			return errs.ErrArgument
		}
		end := offset + fragCapacity
		if end > len(msg) {
			end = len(msg)
		}
		more := end < len(msg)
		if err := sendFragment(t, id, offset == 0, msg[offset:end], more); err != nil {
			return err
		}
		offset = end
		id++
	}
	return nil
}

func sendFragment(t Transport, id uint8, begin bool, chunk []byte, more ...bool) error {
	hdr := id & idMask
	if begin {
		hdr |= flagBegin
	}
	if len(more) > 0 && more[0] {
		hdr |= flagMore
	}
	buf := make([]byte, 0, len(chunk)+1)
	buf = append(buf, hdr)
	buf = append(buf, chunk...)
	return t.Send(buf)
}

// Recv reassembles one complete message from t, blocking across as many
// underlying RecvPacket calls as the message required fragments. It
// returns the reassembled fragments as an owned chain, one packet per
// fragment with the ARQ sequence byte and the SFP header byte already
// stripped, fragment order preserved via Next; the caller frees the chain
// with pool.FreeChain once done. It returns (nil, nil) if the underlying
// transport yields no data (peer reset or closed), and errs.ErrArgument if
// a fragment's begin bit doesn't match the state Recv expected (a
// fragment stream starting mid-message, or a new message starting before
// the prior one finished).
func Recv(t Transport, timeout time.Duration) (*defn.Packet, error) {
	var head *defn.Packet
	first := true

	for {
		pkt, err := t.RecvPacket(timeout)
		if err != nil {
			return nil, err
		}
		if pkt == nil {
			return nil, nil
		}
		if pkt.Length < 2 {
			return nil, errs.ErrArgument
		}

		hdr := pkt.Payload[1]
		begin := hdr&flagBegin != 0
		more := hdr&flagMore != 0
		if begin != first {
			return nil, errs.ErrArgument
		}
		first = false

		copy(pkt.Payload[:pkt.Length-2], pkt.Payload[2:pkt.Length])
		pkt.Length -= 2
		pkt.Next = nil
		head = pool.Append(head, pkt)

		if !more {
			return head, nil
		}
	}
}
