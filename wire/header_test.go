package wire_test

import (
	"testing"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/wire"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []wire.Fields{
		{Priority: defn.PriorityHigh, DstNode: 171, SrcNode: 18, DstPort: 45, SrcPort: 12, Flags: defn.FlagSYN},
		{Priority: defn.PriorityNormal, DstNode: 0, SrcNode: 255, DstPort: 63, SrcPort: 0, Flags: defn.FlagNone},
		{Priority: defn.PriorityNormal, DstNode: 50, SrcNode: 50, DstPort: 10, SrcPort: 11, Flags: defn.FlagACK},
		{Priority: defn.PriorityHigh, DstNode: 1, SrcNode: 2, DstPort: 3, SrcPort: 4, Flags: defn.FlagRST},
		{Priority: defn.PriorityNormal, DstNode: 99, SrcNode: 77, DstPort: 1, SrcPort: 1, Flags: defn.FlagSYN | defn.FlagACK},
	}

	for _, c := range cases {
		got := wire.Unpack(wire.Pack(c))
		require.Equal(t, c, got)
	}
}

// Scenario 1 from the design doc's end-to-end walkthrough.
func TestHeaderScenario(t *testing.T) {
	h := wire.Pack(wire.Fields{
		Priority: defn.PriorityHigh,
		DstNode:  171,
		SrcNode:  18,
		DstPort:  45,
		SrcPort:  12,
		Flags:    defn.FlagSYN,
	})
	got := wire.Unpack(h)
	require.Equal(t, uint8(171), got.DstNode)
	require.Equal(t, uint8(18), got.SrcNode)
	require.Equal(t, uint8(45), got.DstPort)
	require.Equal(t, uint8(12), got.SrcPort)
	require.True(t, got.Flags.Has(defn.FlagSYN))
}

func TestWireEncodeLittleEndian(t *testing.T) {
	h := uint32(0x01020304)
	b := wire.Encode(h)
	require.Equal(t, [4]byte{0x04, 0x03, 0x02, 0x01}, b)
	require.Equal(t, h, wire.Decode(b[:]))
}
