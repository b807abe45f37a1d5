package sfp

import (
	"testing"
	"time"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/pool"
	"github.com/stretchr/testify/require"
)

// memPipe is an in-process transport double: every Send appends a fragment
// to a queue that RecvPacket drains in order, letting these tests exercise
// the framing logic without a real socket. It prefixes each delivered
// fragment with a fake ARQ sequence byte, mirroring what a real socket's
// zero-copy RecvPacket hands back for a reliable connection.
type memPipe struct {
	frames [][]byte
}

func (m *memPipe) asTransport() Transport {
	return Transport{
		Send: func(buf []byte) error {
			cp := make([]byte, len(buf))
			copy(cp, buf)
			m.frames = append(m.frames, cp)
			return nil
		},
		RecvPacket: func(_ time.Duration) (*defn.Packet, error) {
			if len(m.frames) == 0 {
				return nil, nil
			}
			f := m.frames[0]
			m.frames = m.frames[1:]
			pkt := &defn.Packet{}
			pkt.Payload[0] = 0 // fake ARQ sequence byte
			pkt.Length = 1 + copy(pkt.Payload[1:], f)
			return pkt, nil
		},
	}
}

func chainBytes(head *defn.Packet) []byte {
	out := make([]byte, 0, pool.TotalLength(head))
	for cur := head; cur != nil; cur = cur.Next {
		out = append(out, cur.Bytes()...)
	}
	return out
}

func TestRoundTripSingleFragment(t *testing.T) {
	pipe := &memPipe{}
	tr := pipe.asTransport()
	require.NoError(t, Send(tr, []byte("hello")))

	head, err := Recv(tr, defn.WaitForever)
	require.NoError(t, err)
	require.Equal(t, 1, pool.Count(head))
	require.Equal(t, "hello", string(chainBytes(head)))
}

func TestRoundTripMultiFragment(t *testing.T) {
	pipe := &memPipe{}
	tr := pipe.asTransport()
	msg := make([]byte, fragCapacity*3+10)
	for i := range msg {
		msg[i] = byte(i)
	}
	require.NoError(t, Send(tr, msg))
	require.Equal(t, 4, len(pipe.frames))

	head, err := Recv(tr, defn.WaitForever)
	require.NoError(t, err)
	require.Equal(t, 4, pool.Count(head))
	require.Equal(t, msg, chainBytes(head))
}

func TestSFPFragmentationMatchesFixedSizeScenario(t *testing.T) {
	pipe := &memPipe{}
	tr := pipe.asTransport()
	msg := make([]byte, 512)
	for i := range msg {
		msg[i] = 'A'
	}
	require.NoError(t, Send(tr, msg))
	require.Equal(t, 5, len(pipe.frames))

	head, err := Recv(tr, defn.WaitForever)
	require.NoError(t, err)
	require.Equal(t, 5, pool.Count(head))

	sizes := make([]int, 0, 5)
	for cur := head; cur != nil; cur = cur.Next {
		sizes = append(sizes, cur.Length)
	}
	require.Equal(t, []int{123, 123, 123, 123, 20}, sizes)
	require.Equal(t, msg, chainBytes(head))
}

func TestRecvRejectsMidStreamStart(t *testing.T) {
	pipe := &memPipe{}
	tr := pipe.asTransport()
	pipe.frames = [][]byte{{0x01, 'x'}} // more bit unset, begin bit unset: not a valid start

	_, err := Recv(tr, defn.WaitForever)
	require.Error(t, err)
}
