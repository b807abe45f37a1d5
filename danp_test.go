package danp_test

import (
	"testing"
	"time"

	"github.com/dogukanarat/danp"
	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/link/loopback"
	"github.com/stretchr/testify/require"
)

func TestStackDatagramRoundTrip(t *testing.T) {
	st, err := danp.New(danp.Config{Node: 1})
	require.NoError(t, err)

	lo := loopback.New("lo", 1, defn.MTU+defn.HeaderSize, st.Ingress())
	defer lo.Close()
	require.NoError(t, st.RegisterInterface(lo.Iface))
	require.NoError(t, st.RouteTableLoad("1:lo"))

	srv, err := st.Socket(defn.TypeDatagram)
	require.NoError(t, err)
	require.NoError(t, st.Bind(srv, 7))

	cli, err := st.Socket(defn.TypeDatagram)
	require.NoError(t, err)
	require.NoError(t, st.Bind(cli, 8))
	require.NoError(t, st.Connect(cli, 1, 7))

	require.NoError(t, st.Send(cli, []byte("ping")))

	buf := make([]byte, 32)
	n, _, _, err := st.RecvFrom(srv, buf, time.Second)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))
}

func TestStackSFPRoundTrip(t *testing.T) {
	st, err := danp.New(danp.Config{Node: 1})
	require.NoError(t, err)

	lo := loopback.New("lo", 1, defn.MTU+defn.HeaderSize, st.Ingress())
	defer lo.Close()
	require.NoError(t, st.RegisterInterface(lo.Iface))
	require.NoError(t, st.RouteTableLoad("1:lo"))

	srv, err := st.Socket(defn.TypeReliable)
	require.NoError(t, err)
	require.NoError(t, st.Bind(srv, 9))
	require.NoError(t, st.Listen(srv))

	cli, err := st.Socket(defn.TypeReliable)
	require.NoError(t, err)
	require.NoError(t, st.Bind(cli, 10))

	done := make(chan error, 1)
	go func() { done <- st.Connect(cli, 1, 9) }()
	conn, err := st.Accept(srv, time.Second)
	require.NoError(t, err)
	require.NoError(t, <-done)

	big := make([]byte, defn.MTU*3)
	for i := range big {
		big[i] = byte(i % 251)
	}

	sendDone := make(chan error, 1)
	go func() { sendDone <- st.SendSFP(cli, big) }()

	head, err := st.RecvSFP(conn, time.Second)
	require.NoError(t, err)
	require.NoError(t, <-sendDone)

	out := make([]byte, 0, len(big))
	for cur := head; cur != nil; cur = cur.Next {
		out = append(out, cur.Bytes()...)
	}
	require.Equal(t, big, out)
	st.BufferFreeChain(head)
}
