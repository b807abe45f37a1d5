package socket

import (
	"fmt"
	"io"

	"github.com/dogukanarat/danp/defn"
)

// PrintStats writes a one-line-per-socket snapshot of the table to w, in
// the same terse tabular style the original's danp_print_stats() produced
// on its debug UART.
func (t *Table) PrintStats(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	used := 0
	for i := range t.slots {
		s := &t.slots[i]
		if s.state == defn.StateClosed {
			continue
		}
		used++
		fmt.Fprintf(w, "slot=%-2d port=%-5d type=%-6s state=%-12s peer=%d:%d txseq=%d rxseq=%d\n",
			i, s.localPort, s.typ.String(), s.state.String(),
			s.remoteNode, s.remotePort, s.txSeq, s.rxExpectedSeq)
	}
	fmt.Fprintf(w, "sockets: %d/%d in use\n", used, defn.MaxSockets)
}
