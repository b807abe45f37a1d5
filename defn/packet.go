package defn

// Packet is the fundamental unit managed by the buffer pool: one frame's
// header, payload, and bookkeeping. A Packet is either free (owned by the
// pool, contents undefined) or held by exactly one owner at a time.
type Packet struct {
	// HeaderRaw is the packed 32-bit on-wire header (see package wire).
	HeaderRaw uint32
	// Payload holds up to MTU bytes; only Payload[:Length] is valid.
	Payload [MTU]byte
	// Length is the valid payload byte count, always <= MTU.
	Length int
	// RxInterface is set on ingress to the interface the frame arrived on;
	// undefined for packets built for transmission.
	RxInterface *Interface
	// Next chains packets together (SFP reassembly output, caller-built
	// chains). Nil unless the packet is part of an explicit chain.
	Next *Packet
}

// Bytes returns the valid payload slice.
func (p *Packet) Bytes() []byte {
	return p.Payload[:p.Length]
}

// Reset clears a packet's content-carrying fields. It does not touch pool
// bookkeeping; callers must not call this on a packet they don't own.
func (p *Packet) Reset() {
	p.HeaderRaw = 0
	p.Length = 0
	p.RxInterface = nil
	p.Next = nil
}
