package pool

import "github.com/dogukanarat/danp/defn"

// Append links tail onto the end of the chain headed by head, returning the
// (possibly new) head. Recovers the original library's chain-building
// helpers from danp_zerocopy.c for building multi-packet sends and for SFP
// reassembly output.
func Append(head, tail *defn.Packet) *defn.Packet {
	if head == nil {
		return tail
	}
	cur := head
	for cur.Next != nil {
		cur = cur.Next
	}
	cur.Next = tail
	return head
}

// TotalLength sums Length across every packet in the chain headed by head.
func TotalLength(head *defn.Packet) int {
	total := 0
	for cur := head; cur != nil; cur = cur.Next {
		total += cur.Length
	}
	return total
}

// Count returns the number of packets in the chain headed by head.
func Count(head *defn.Packet) int {
	n := 0
	for cur := head; cur != nil; cur = cur.Next {
		n++
	}
	return n
}
