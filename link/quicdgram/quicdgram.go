// Package quicdgram implements a link driver carrying frames over QUIC's
// unreliable datagram extension: a natural transport-layer match for the
// stack's own unreliable link-layer assumption, since it drops whole
// frames under congestion instead of blocking a stream.
package quicdgram

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/quic-go/quic-go"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/log"
	"github.com/dogukanarat/danp/wire"
)

// Receiver is the ingress entry point a Link feeds.
type Receiver interface {
	Receive(rxIface *defn.Interface, data []byte)
}

var quicConfig = &quic.Config{EnableDatagrams: true}

// Link wraps one established QUIC connection with datagrams enabled as a
// registerable defn.Interface.
type Link struct {
	Iface *defn.Interface

	conn    quic.Connection
	running atomic.Bool
}

// Listen accepts a single incoming QUIC connection on addr and returns a
// Link delivering frames into rx. Meant for a node with exactly one static
// peer, matching the stack's single-hop routing model; a multi-peer
// deployment would run one Listener per remote and Accept in a loop.
func Listen(ctx context.Context, addr string, tlsConf *tls.Config, name string, address uint16, rx Receiver) (*Link, error) {
	ln, err := quic.ListenAddr(addr, tlsConf, quicConfig)
	if err != nil {
		return nil, fmt.Errorf("danp: quic listen %s: %w", addr, err)
	}
	conn, err := ln.Accept(ctx)
	if err != nil {
		return nil, fmt.Errorf("danp: quic accept: %w", err)
	}
	return newLink(name, address, conn, rx), nil
}

// Dial opens a QUIC connection with datagrams enabled to addr and returns
// a Link delivering frames into rx.
func Dial(ctx context.Context, addr string, tlsConf *tls.Config, name string, address uint16, rx Receiver) (*Link, error) {
	conn, err := quic.DialAddr(ctx, addr, tlsConf, quicConfig)
	if err != nil {
		return nil, fmt.Errorf("danp: quic dial %s: %w", addr, err)
	}
	return newLink(name, address, conn, rx), nil
}

func newLink(name string, address uint16, conn quic.Connection, rx Receiver) *Link {
	l := &Link{conn: conn}
	l.running.Store(true)
	l.Iface = &defn.Interface{
		Name:    name,
		Address: address,
		MTU:     defn.MTU + defn.HeaderSize,
		Transmit: func(_ *defn.Interface, pkt *defn.Packet) error {
			return l.sendFrame(pkt)
		},
	}
	go l.runReceive(rx)
	return l
}

func (l *Link) sendFrame(pkt *defn.Packet) error {
	if !l.running.Load() {
		return net.ErrClosed
	}
	frame := make([]byte, defn.HeaderSize+pkt.Length)
	enc := wire.Encode(pkt.HeaderRaw)
	copy(frame, enc[:])
	copy(frame[defn.HeaderSize:], pkt.Bytes())
	if err := l.conn.SendDatagram(frame); err != nil {
		log.Warn("quic datagram send failed", "iface", l.Iface.Name, "err", err)
		return err
	}
	return nil
}

func (l *Link) runReceive(rx Receiver) {
	defer l.Close()
	for {
		data, err := l.conn.ReceiveDatagram(context.Background())
		if err != nil {
			if l.running.Load() {
				log.Warn("quic datagram receive failed", "iface", l.Iface.Name, "err", err)
			}
			return
		}
		rx.Receive(l.Iface, data)
	}
}

// Close tears down the QUIC connection. Safe to call more than once.
func (l *Link) Close() {
	if l.running.Swap(false) {
		_ = l.conn.CloseWithError(0, "closed")
	}
}
