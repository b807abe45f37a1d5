// Package route implements the interface registry and the single-hop
// route table, both guarded by one mutex. Tx releases that mutex before
// invoking the interface's Transmit callback, but callers higher up the
// stack (socket.Table.Input) may themselves still hold their own mutex
// across the Tx call; link drivers must not re-enter the socket or route
// tables synchronously from inside Transmit.
package route

import (
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/errs"
	"github.com/dogukanarat/danp/log"
	"github.com/dogukanarat/danp/wire"
)

type routeEntry struct {
	destNode uint16
	iface    *defn.Interface
}

// Table holds the registered interfaces and the active route set.
type Table struct {
	mu     sync.Mutex
	ifaces map[uint64]*defn.Interface // keyed by xxhash of the interface name
	routes []routeEntry
}

// New returns an empty route table with no registered interfaces.
func New() *Table {
	return &Table{ifaces: make(map[uint64]*defn.Interface)}
}

func nameKey(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Register adds iface to the registry. Rejects a nil interface, a nil or
// empty name, a nil Transmit callback, or an MTU smaller than the header
// size; on rejection it logs and leaves the registry unchanged.
func (t *Table) Register(iface *defn.Interface) error {
	if iface == nil {
		log.Error("cannot register nil interface")
		return errs.ErrArgument
	}
	if iface.Name == "" {
		log.Error("interface name is empty, cannot register")
		return errs.ErrArgument
	}
	if iface.Transmit == nil {
		log.Error("interface transmit is nil, cannot register", "name", iface.Name)
		return errs.ErrArgument
	}
	if iface.MTU < defn.HeaderSize {
		log.Error("interface MTU too small to carry a header", "name", iface.Name, "mtu", iface.MTU)
		return errs.ErrArgument
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.ifaces) == 0 {
		log.Info("registering first network interface", "name", iface.Name)
	} else {
		log.Info("registering network interface", "name", iface.Name)
	}
	t.ifaces[nameKey(iface.Name)] = iface
	return nil
}

// FindByName returns the interface registered under name, if any.
func (t *Table) FindByName(name string) (*defn.Interface, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	iface, ok := t.ifaces[nameKey(name)]
	return iface, ok
}

// Load atomically replaces the route table from a textual rule set:
// comma- or newline-separated entries of the form "<node>:<iface-name>".
// Whitespace around tokens is trimmed; empty entries are ignored.
// Destinations repeated within the same load resolve to the last
// occurrence. On any error the table is left empty.
func (t *Table) Load(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if text == "" {
		t.routes = nil
		return nil
	}

	entries := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' })

	var fresh []routeEntry
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		sep := strings.IndexByte(entry, ':')
		if sep < 0 {
			log.Error("invalid route entry, missing ':'", "entry", entry)
			t.routes = nil
			return errs.ErrArgument
		}

		destStr := strings.TrimSpace(entry[:sep])
		ifaceStr := strings.TrimSpace(entry[sep+1:])
		if destStr == "" || ifaceStr == "" {
			log.Error("invalid route entry", "entry", entry)
			t.routes = nil
			return errs.ErrArgument
		}

		dest, err := strconv.ParseUint(destStr, 0, 16)
		if err != nil {
			log.Error("invalid destination node", "token", destStr)
			t.routes = nil
			return errs.ErrArgument
		}

		iface, ok := t.ifaces[nameKey(ifaceStr)]
		if !ok {
			log.Error("interface not registered for destination", "iface", ifaceStr, "dest", dest)
			t.routes = nil
			return errs.ErrNoRoute
		}

		if len(fresh) >= defn.MaxNodes {
			log.Error("route table full, cannot add destination", "dest", dest)
			t.routes = nil
			return errs.ErrExhausted
		}

		replaced := false
		for i := range fresh {
			if fresh[i].destNode == uint16(dest) {
				fresh[i].iface = iface
				replaced = true
				break
			}
		}
		if !replaced {
			fresh = append(fresh, routeEntry{destNode: uint16(dest), iface: iface})
		}
	}

	t.routes = fresh
	return nil
}

func (t *Table) lookup(dest uint16) *defn.Interface {
	for i := range t.routes {
		if t.routes[i].destNode == dest {
			return t.routes[i].iface
		}
	}
	return nil
}

// Tx routes pkt to its header-encoded destination: looks up the next-hop
// interface, enforces MTU, and invokes the interface's Transmit callback.
// The caller does not need to free pkt on success unless it was allocated
// solely to be transmitted; Transmit must not retain pkt past return.
func (t *Table) Tx(pkt *defn.Packet) error {
	if pkt == nil {
		log.Error("nil packet passed to router")
		return errs.ErrArgument
	}

	f := wire.Unpack(pkt.HeaderRaw)

	t.mu.Lock()
	iface := t.lookup(uint16(f.DstNode))
	t.mu.Unlock()

	if iface == nil {
		log.Error("no route to destination", "dest", f.DstNode)
		return errs.ErrNoRoute
	}

	if pkt.Length+defn.HeaderSize > iface.MTU {
		log.Error("packet exceeds interface MTU",
			"len", pkt.Length+defn.HeaderSize, "mtu", iface.MTU, "iface", iface.Name)
		return errs.ErrNoRoute
	}

	log.Debug("tx",
		"dst", f.DstNode, "src", f.SrcNode,
		"dport", f.DstPort, "sport", f.SrcPort,
		"flags", f.Flags.String(), "len", pkt.Length, "iface", iface.Name)

	return iface.Transmit(iface, pkt)
}
