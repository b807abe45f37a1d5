package loopback_test

import (
	"testing"
	"time"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/link/loopback"
	"github.com/stretchr/testify/require"
)

type capture struct {
	ch chan []byte
}

func (c *capture) Receive(_ *defn.Interface, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	c.ch <- cp
}

func TestTransmitDeliversAsynchronously(t *testing.T) {
	cp := &capture{ch: make(chan []byte, 1)}
	l := loopback.New("lo", 1, defn.MTU+defn.HeaderSize, cp)
	defer l.Close()

	pkt := &defn.Packet{Length: 3}
	copy(pkt.Payload[:], "abc")
	require.NoError(t, l.Iface.Transmit(l.Iface, pkt))

	select {
	case data := <-cp.ch:
		require.Equal(t, "abc", string(data[defn.HeaderSize:]))
	case <-time.After(time.Second):
		t.Fatal("frame never delivered")
	}
}
