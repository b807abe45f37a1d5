// Package wire implements the stack's 32-bit on-wire header: packing and
// unpacking the machine word, and serializing it to its fixed 4-byte
// little-endian wire layout.
package wire

import (
	"encoding/binary"

	"github.com/dogukanarat/danp/defn"
)

// Bit layout, high to low:
//
//	31      reset flag
//	30      priority (0 normal, 1 high)
//	29..22  destination node (8 bits)
//	21..14  source node (8 bits)
//	13..8   destination port (6 bits)
//	7..2    source port (6 bits)
//	1..0    low control flags: SYN at bit 0, ACK at bit 1
const (
	shiftRST     = 31
	shiftPrio    = 30
	shiftDstNode = 22
	shiftSrcNode = 14
	shiftDstPort = 8
	shiftSrcPort = 2

	maskNode  = 0xFF
	maskPort  = 0x3F
	maskFlag2 = 0x3
)

// Fields describes one packet header's decoded contents.
type Fields struct {
	Priority defn.Priority
	DstNode  uint8
	SrcNode  uint8
	DstPort  uint8
	SrcPort  uint8
	Flags    defn.Flags
}

// Pack encodes fields into the 32-bit header word. DstPort and SrcPort are
// truncated to 6 bits; any flag bits beyond SYN/ACK/RST are ignored.
func Pack(f Fields) uint32 {
	var h uint32
	if f.Flags.Has(defn.FlagRST) {
		h |= 1 << shiftRST
	}
	if f.Priority == defn.PriorityHigh {
		h |= 1 << shiftPrio
	}
	h |= uint32(f.DstNode) << shiftDstNode
	h |= uint32(f.SrcNode) << shiftSrcNode
	h |= uint32(f.DstPort&maskPort) << shiftDstPort
	h |= uint32(f.SrcPort&maskPort) << shiftSrcPort
	if f.Flags.Has(defn.FlagSYN) {
		h |= 1 << 0
	}
	if f.Flags.Has(defn.FlagACK) {
		h |= 1 << 1
	}
	return h
}

// Unpack decodes a 32-bit header word into its fields. RST is rematerialized
// into the returned Flags alongside SYN/ACK.
func Unpack(h uint32) Fields {
	f := Fields{
		DstNode: uint8((h >> shiftDstNode) & maskNode),
		SrcNode: uint8((h >> shiftSrcNode) & maskNode),
		DstPort: uint8((h >> shiftDstPort) & maskPort),
		SrcPort: uint8((h >> shiftSrcPort) & maskPort),
	}
	if (h>>shiftPrio)&1 != 0 {
		f.Priority = defn.PriorityHigh
	}
	if (h>>shiftRST)&1 != 0 {
		f.Flags |= defn.FlagRST
	}
	if h&0x1 != 0 {
		f.Flags |= defn.FlagSYN
	}
	if (h>>1)&0x1 != 0 {
		f.Flags |= defn.FlagACK
	}
	return f
}

// Encode serializes a header word to its 4-byte little-endian wire form.
func Encode(h uint32) [defn.HeaderSize]byte {
	var b [defn.HeaderSize]byte
	binary.LittleEndian.PutUint32(b[:], h)
	return b
}

// Decode parses a header word from its 4-byte little-endian wire form.
// The caller must ensure len(b) >= defn.HeaderSize.
func Decode(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b[:defn.HeaderSize])
}
