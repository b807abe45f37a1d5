// Package danp is the constrained-node network protocol stack: a flat
// 256-node addressing space, a reliable stop-and-wait transport and an
// unreliable datagram transport, single-hop static routing, and in-band
// fragmentation, all built on a fixed-capacity packet pool sized at
// compile time. This file wires the component packages (pool, route,
// socket, ingress, sfp) behind the single Stack handle callers use.
package danp

import (
	"fmt"
	"io"
	"time"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/errs"
	"github.com/dogukanarat/danp/ingress"
	"github.com/dogukanarat/danp/log"
	"github.com/dogukanarat/danp/pool"
	"github.com/dogukanarat/danp/route"
	"github.com/dogukanarat/danp/sfp"
	"github.com/dogukanarat/danp/socket"
)

// Config configures a single Stack instance.
type Config struct {
	// Node is this node's address in the flat 0-255 address space.
	Node uint16
	// LogFunc, if set, receives every log line in place of the default
	// stderr logger (installed process-wide by New via log.SetDefault).
	LogFunc func(level log.Level, tag string, msg string)
}

// Stack is one running node: its buffer pool, route table, socket table,
// and ingress path, wired together and ready for link drivers to register
// interfaces against and feed frames into.
type Stack struct {
	node uint16

	pool    *pool.Pool
	route   *route.Table
	sockets *socket.Table
	ingress *ingress.Handler
}

// New constructs a Stack from cfg. Node address 0 is reserved (matches the
// broadcast/unset sentinel the header's 8-bit node fields can't otherwise
// express) and is rejected.
func New(cfg Config) (*Stack, error) {
	if cfg.Node == 0 {
		return nil, errs.ErrArgument
	}
	if cfg.LogFunc != nil {
		log.SetDefault(log.NewSink(cfg.LogFunc))
	}

	p := pool.New()
	r := route.New()
	s := socket.New(cfg.Node, p, r)

	st := &Stack{
		node:    cfg.Node,
		pool:    p,
		route:   r,
		sockets: s,
	}
	st.ingress = ingress.New(cfg.Node, p, s)

	log.Info("stack initialized", "node", cfg.Node)
	return st, nil
}

// RegisterInterface adds a link driver's interface to the route table.
func (s *Stack) RegisterInterface(iface *defn.Interface) error {
	return s.route.Register(iface)
}

// RouteTableLoad replaces the active route set; see route.Table.Load for grammar.
func (s *Stack) RouteTableLoad(text string) error {
	return s.route.Load(text)
}

// Ingress returns the handler link drivers feed received frames into.
func (s *Stack) Ingress() *ingress.Handler {
	return s.ingress
}

// BufferGet allocates one packet from the pool, for callers building a raw
// frame to send with SendPacket/SendPacketTo.
func (s *Stack) BufferGet() (*defn.Packet, error) {
	return s.pool.Get()
}

// BufferFree returns pkt to the pool.
func (s *Stack) BufferFree(pkt *defn.Packet) {
	s.pool.Free(pkt)
}

// BufferFreeChain returns every packet in the chain headed by pkt to the pool.
func (s *Stack) BufferFreeChain(pkt *defn.Packet) {
	s.pool.FreeChain(pkt)
}

// BufferFreeCount reports how many packets are currently available.
func (s *Stack) BufferFreeCount() int {
	return s.pool.FreeCount()
}

// Socket allocates a new socket of the given type.
func (s *Stack) Socket(typ defn.SocketType) (*socket.Socket, error) {
	return s.sockets.Open(typ)
}

// Bind assigns a local port to sock; port 0 requests an ephemeral port.
func (s *Stack) Bind(sock *socket.Socket, port uint16) error {
	return s.sockets.Bind(sock, port)
}

// Listen marks a reliable socket ready to accept incoming connections.
func (s *Stack) Listen(sock *socket.Socket) error {
	return s.sockets.Listen(sock)
}

// Accept blocks for the next completed connection on a listening socket.
func (s *Stack) Accept(sock *socket.Socket, timeout time.Duration) (*socket.Socket, error) {
	return s.sockets.Accept(sock, timeout)
}

// Connect drives a client handshake (reliable) or sets the default peer
// (datagram) for sock.
func (s *Stack) Connect(sock *socket.Socket, remoteNode, remotePort uint16) error {
	return s.sockets.Connect(sock, remoteNode, remotePort)
}

// Send writes buf to sock's connected peer.
func (s *Stack) Send(sock *socket.Socket, buf []byte) error {
	return s.sockets.Send(sock, buf)
}

// Recv blocks for the next payload delivered to sock.
func (s *Stack) Recv(sock *socket.Socket, buf []byte, timeout time.Duration) (int, error) {
	return s.sockets.Recv(sock, buf, timeout)
}

// SendTo sends buf to an explicit destination on a datagram socket.
func (s *Stack) SendTo(sock *socket.Socket, dstNode, dstPort uint16, buf []byte) error {
	return s.sockets.SendTo(sock, dstNode, dstPort, buf)
}

// RecvFrom blocks for the next datagram delivered to sock, reporting its sender.
func (s *Stack) RecvFrom(sock *socket.Socket, buf []byte, timeout time.Duration) (n int, srcNode, srcPort uint16, err error) {
	return s.sockets.RecvFrom(sock, buf, timeout)
}

// SendPacket routes pkt to sock's connected peer without ARQ framing.
func (s *Stack) SendPacket(sock *socket.Socket, pkt *defn.Packet) error {
	return s.sockets.SendPacket(sock, pkt)
}

// RecvPacket blocks for the next raw packet delivered to sock.
func (s *Stack) RecvPacket(sock *socket.Socket, timeout time.Duration) (*defn.Packet, error) {
	return s.sockets.RecvPacket(sock, timeout)
}

// SendPacketTo routes pkt to an explicit destination on a datagram socket.
func (s *Stack) SendPacketTo(sock *socket.Socket, dstNode, dstPort uint16, pkt *defn.Packet) error {
	return s.sockets.SendPacketTo(sock, dstNode, dstPort, pkt)
}

// RecvPacketFrom blocks for the next raw datagram delivered to sock, reporting its sender.
func (s *Stack) RecvPacketFrom(sock *socket.Socket, timeout time.Duration) (pkt *defn.Packet, srcNode, srcPort uint16, err error) {
	return s.sockets.RecvPacketFrom(sock, timeout)
}

// SendSFP fragments and reliably delivers msg to sock's connected peer.
// sock must be an established reliable socket; SFP is intentionally
// refused on datagram sockets, which have no reassembly buffer to target.
func (s *Stack) SendSFP(sock *socket.Socket, msg []byte) error {
	if sock.Type() != defn.TypeReliable {
		return errs.EINVAL
	}
	return sfp.Send(s.sfpTransport(sock), msg)
}

// RecvSFP reassembles the next SFP message delivered to sock into an owned
// packet chain. It returns (nil, errs.ErrTimeout) if a fragment does not
// arrive within timeout (applied to each fragment's wait), and (nil, nil)
// if the peer reset the connection or sock is not a reliable socket.
func (s *Stack) RecvSFP(sock *socket.Socket, timeout time.Duration) (*defn.Packet, error) {
	if sock.Type() != defn.TypeReliable {
		return nil, nil
	}
	return sfp.Recv(s.sfpTransport(sock), timeout)
}

func (s *Stack) sfpTransport(sock *socket.Socket) sfp.Transport {
	return sfp.Transport{
		Send:       func(buf []byte) error { return s.sockets.Send(sock, buf) },
		RecvPacket: func(timeout time.Duration) (*defn.Packet, error) { return s.sockets.RecvPacket(sock, timeout) },
	}
}

// Close tears sock down, reclaiming its slot.
func (s *Stack) Close(sock *socket.Socket) error {
	return s.sockets.Close(sock)
}

// PrintStats writes a snapshot of the socket table, then a pool summary, to w.
func (s *Stack) PrintStats(w io.Writer) {
	s.sockets.PrintStats(w)
	fmt.Fprintf(w, "pool: %d/%d packets free\n", s.pool.FreeCount(), defn.PoolSize)
}
