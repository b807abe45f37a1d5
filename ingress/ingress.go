// Package ingress is the receive-side entry point shared by every link
// driver: validate a frame off the wire, pull a packet from the pool, and
// hand it to the socket table's state machine.
package ingress

import (
	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/errs"
	"github.com/dogukanarat/danp/log"
	"github.com/dogukanarat/danp/pool"
	"github.com/dogukanarat/danp/wire"
)

// Dispatcher is the contract ingress needs from the socket layer, kept
// narrow so link drivers don't need to import package socket directly.
type Dispatcher interface {
	Input(pkt *defn.Packet) error
}

// Handler receives raw frames from a link driver and feeds the stack.
type Handler struct {
	pool  *pool.Pool
	table Dispatcher
	node  uint16
}

// New returns a Handler that allocates from p and dispatches into table for
// a stack whose local node address is node.
func New(node uint16, p *pool.Pool, table Dispatcher) *Handler {
	return &Handler{pool: p, table: table, node: node}
}

// Receive is called by a link driver for every frame arriving on rxIface.
// data must be at least defn.HeaderSize bytes; anything shorter, anything
// addressed to another node, or anything the pool can't allocate for is
// dropped and logged, never propagated as an error to the driver (a bad
// frame from the wire is not the driver's fault to handle).
func (h *Handler) Receive(rxIface *defn.Interface, data []byte) {
	if len(data) < defn.HeaderSize {
		log.Warn("short frame dropped", "iface", rxIface.String(), "len", len(data))
		return
	}

	header := wire.Decode(data)
	f := wire.Unpack(header)
	if uint16(f.DstNode) != h.node {
		log.Trace("frame not addressed to this node, dropped", "dst", f.DstNode, "node", h.node)
		return
	}

	payload := data[defn.HeaderSize:]
	if len(payload) > defn.MTU {
		log.Warn("oversized frame dropped", "iface", rxIface.String(), "len", len(payload))
		return
	}

	pkt, err := h.pool.Get()
	if err != nil {
		log.Error("pool exhausted, frame dropped", "iface", rxIface.String())
		return
	}

	pkt.HeaderRaw = header
	pkt.Length = copy(pkt.Payload[:], payload)
	pkt.RxInterface = rxIface

	if err := h.table.Input(pkt); err != nil && err != errs.ErrArgument {
		log.Error("ingress dispatch failed", "err", err)
	}
}
