package socket_test

import (
	"testing"
	"time"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/errs"
	"github.com/dogukanarat/danp/pool"
	"github.com/dogukanarat/danp/route"
	"github.com/dogukanarat/danp/socket"
	"github.com/stretchr/testify/require"
)

// loopIface wires an interface that hands every transmitted frame to a
// background goroutine for delivery back into the same table's Input,
// exactly like package link/loopback: Transmit must return without
// re-entering the socket table, since Input holds the table mutex for its
// whole duration (including any control frames it sends back out, such as
// a RST to an unmatched destination).
func loopIface(name string, tbl *socket.Table) *defn.Interface {
	ch := make(chan *defn.Packet, 64)
	go func() {
		for pkt := range ch {
			_ = tbl.Input(pkt)
		}
	}()
	return &defn.Interface{
		Name:    name,
		Address: 1,
		MTU:     defn.MTU + defn.HeaderSize,
		Transmit: func(_ *defn.Interface, pkt *defn.Packet) error {
			clone := *pkt
			clone.Next = nil
			ch <- &clone
			return nil
		},
	}
}

func newLoopTable(t *testing.T) (*socket.Table, *pool.Pool) {
	t.Helper()
	p := pool.New()
	r := route.New()
	tbl := socket.New(1, p, r)
	require.NoError(t, r.Register(loopIface("lo", tbl)))
	require.NoError(t, r.Load("1:lo"))
	return tbl, p
}

func TestBindBoundary(t *testing.T) {
	tbl, _ := newLoopTable(t)

	s, err := tbl.Open(defn.TypeDatagram)
	require.NoError(t, err)
	require.Error(t, tbl.Bind(s, defn.MaxPorts))
	require.NoError(t, tbl.Bind(s, defn.MaxPorts-1))
	require.Equal(t, uint16(defn.MaxPorts-1), s.LocalPort())

	eph, err := tbl.Open(defn.TypeDatagram)
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(eph, 0))
	require.Equal(t, uint16(1), eph.LocalPort())
}

func TestBindDuplicatePort(t *testing.T) {
	tbl, _ := newLoopTable(t)

	a, err := tbl.Open(defn.TypeDatagram)
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(a, 10))

	b, err := tbl.Open(defn.TypeDatagram)
	require.NoError(t, err)
	require.Error(t, tbl.Bind(b, 10))
}

func TestSendLengthBoundary(t *testing.T) {
	tbl, _ := newLoopTable(t)
	a, err := tbl.Open(defn.TypeDatagram)
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(a, 20))
	require.NoError(t, tbl.Connect(a, 1, 21))

	require.Error(t, tbl.Send(a, make([]byte, defn.MTU)))
	require.NoError(t, tbl.Send(a, make([]byte, defn.MTU-1)))
}

func TestDatagramRoundTrip(t *testing.T) {
	tbl, _ := newLoopTable(t)

	srv, err := tbl.Open(defn.TypeDatagram)
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(srv, 30))

	cli, err := tbl.Open(defn.TypeDatagram)
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(cli, 31))
	require.NoError(t, tbl.Connect(cli, 1, 30))

	require.NoError(t, tbl.Send(cli, []byte("hi")))

	buf := make([]byte, 16)
	n, srcNode, srcPort, err := tbl.RecvFrom(srv, buf, time.Second)
	require.NoError(t, err)
	require.Equal(t, "hi", string(buf[:n]))
	require.Equal(t, uint16(1), srcNode)
	require.Equal(t, uint16(31), srcPort)
}

func TestReliableHandshakeAndData(t *testing.T) {
	tbl, _ := newLoopTable(t)

	srv, err := tbl.Open(defn.TypeReliable)
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(srv, 40))
	require.NoError(t, tbl.Listen(srv))

	cli, err := tbl.Open(defn.TypeReliable)
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(cli, 41))

	done := make(chan error, 1)
	go func() { done <- tbl.Connect(cli, 1, 40) }()

	conn, err := tbl.Accept(srv, time.Second)
	require.NoError(t, err)
	require.NoError(t, <-done)

	require.NoError(t, tbl.Send(cli, []byte("payload")))

	buf := make([]byte, 16)
	n, err := tbl.Recv(conn, buf, time.Second)
	require.NoError(t, err)
	require.Equal(t, "payload", string(buf[:n]))
	require.Equal(t, defn.StateEstablished, conn.State())

	require.NoError(t, tbl.Close(cli))
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, defn.StateClosed, conn.State())
}

func TestAcceptTimeout(t *testing.T) {
	tbl, _ := newLoopTable(t)
	srv, err := tbl.Open(defn.TypeReliable)
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(srv, 50))
	require.NoError(t, tbl.Listen(srv))

	_, err = tbl.Accept(srv, 10*time.Millisecond)
	require.ErrorIs(t, err, errs.ErrTimeout)
}
