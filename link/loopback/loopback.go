// Package loopback implements a link driver that delivers every
// transmitted frame back into the local ingress path, useful for
// single-node testing and for node-to-self routes. Delivery is
// asynchronous: Transmit enqueues onto a channel drained by a dedicated
// goroutine, so it never re-enters the socket table's mutex from inside a
// call already holding it (see package socket's Input for why that matters).
package loopback

import (
	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/log"
	"github.com/dogukanarat/danp/wire"
)

// Receiver is the ingress entry point a Link feeds (satisfied by
// *ingress.Handler's Receive method).
type Receiver interface {
	Receive(rxIface *defn.Interface, data []byte)
}

// Link is a registerable defn.Interface plus the goroutine and channel
// backing its loopback delivery.
type Link struct {
	Iface *defn.Interface

	queue chan []byte
	done  chan struct{}
}

// New returns a loopback link named name with the given node address and
// MTU, wired to deliver into rx.
func New(name string, address uint16, mtu int, rx Receiver) *Link {
	l := &Link{
		queue: make(chan []byte, 64),
		done:  make(chan struct{}),
	}
	l.Iface = &defn.Interface{
		Name:    name,
		Address: address,
		MTU:     mtu,
		Transmit: func(iface *defn.Interface, pkt *defn.Packet) error {
			frame := make([]byte, defn.HeaderSize+pkt.Length)
			enc := wire.Encode(pkt.HeaderRaw)
			copy(frame, enc[:])
			copy(frame[defn.HeaderSize:], pkt.Bytes())
			select {
			case l.queue <- frame:
			default:
				log.Warn("loopback queue full, frame dropped", "iface", name)
			}
			return nil
		},
	}

	go func() {
		for {
			select {
			case frame := <-l.queue:
				rx.Receive(l.Iface, frame)
			case <-l.done:
				return
			}
		}
	}()

	return l
}

// Close stops the delivery goroutine. Frames still queued are dropped.
func (l *Link) Close() {
	close(l.done)
}
