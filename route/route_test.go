package route_test

import (
	"testing"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/route"
	"github.com/stretchr/testify/require"
)

func stubIface(name string, mtu int) *defn.Interface {
	return &defn.Interface{
		Name:     name,
		Address:  1,
		MTU:      mtu,
		Transmit: func(*defn.Interface, *defn.Packet) error { return nil },
	}
}

func TestRegisterRejectsInvalid(t *testing.T) {
	tbl := route.New()
	noop := func(*defn.Interface, *defn.Packet) error { return nil }

	require.Error(t, tbl.Register(nil))
	require.Error(t, tbl.Register(&defn.Interface{Name: "a", MTU: 10})) // nil transmit
	require.Error(t, tbl.Register(&defn.Interface{Transmit: noop, MTU: 10}))          // empty name
	require.Error(t, tbl.Register(&defn.Interface{Name: "a", Transmit: noop, MTU: 1})) // MTU < header size
}

func TestLoadReplacesAtomically(t *testing.T) {
	tbl := route.New()
	require.NoError(t, tbl.Register(stubIface("IFACE_A", 132)))
	require.NoError(t, tbl.Register(stubIface("IFACE_B", 132)))

	require.NoError(t, tbl.Load("55:IFACE_A"))
	ifaceA, _ := tbl.FindByName("IFACE_A")
	pkt := &defn.Packet{HeaderRaw: headerTo(55)}
	var sentVia *defn.Interface
	ifaceA.Transmit = func(i *defn.Interface, p *defn.Packet) error { sentVia = i; return nil }
	require.NoError(t, tbl.Tx(pkt))
	require.Equal(t, ifaceA, sentVia)

	require.NoError(t, tbl.Load("55:IFACE_B"))
	ifaceB, _ := tbl.FindByName("IFACE_B")
	sentVia = nil
	ifaceB.Transmit = func(i *defn.Interface, p *defn.Packet) error { sentVia = i; return nil }
	require.NoError(t, tbl.Tx(pkt))
	require.Equal(t, ifaceB, sentVia)

	require.Error(t, tbl.Load("55:UNKNOWN"))
	require.Error(t, tbl.Tx(pkt))
}

func TestLoadGrammar(t *testing.T) {
	tbl := route.New()
	require.NoError(t, tbl.Register(stubIface("if0", 132)))
	require.NoError(t, tbl.Register(stubIface("backbone", 132)))
	require.NoError(t, tbl.Register(stubIface("radio", 132)))

	require.NoError(t, tbl.Load("1:if0, 42:backbone\n100:radio"))
	require.NoError(t, tbl.Load(""))

	require.Error(t, tbl.Load("nocolon"))
	require.Error(t, tbl.Load(":if0"))
	require.Error(t, tbl.Load("1:"))
	require.Error(t, tbl.Load("99999:if0"))
	require.Error(t, tbl.Load("1:missing"))
}

func TestHexDestination(t *testing.T) {
	tbl := route.New()
	require.NoError(t, tbl.Register(stubIface("if0", 132)))
	require.NoError(t, tbl.Load("0x2B:if0"))

	pkt := &defn.Packet{HeaderRaw: headerTo(43)}
	require.NoError(t, tbl.Tx(pkt))
}

func TestMTUBoundary(t *testing.T) {
	tbl := route.New()
	require.NoError(t, tbl.Register(stubIface("if0", 20)))
	require.NoError(t, tbl.Load("5:if0"))

	ok := &defn.Packet{HeaderRaw: headerTo(5), Length: 16}
	require.NoError(t, tbl.Tx(ok))

	tooBig := &defn.Packet{HeaderRaw: headerTo(5), Length: 17}
	require.Error(t, tbl.Tx(tooBig))
}

// headerTo builds a minimal header word addressed to dst, for tests that
// only care about routing, not full field round-tripping.
func headerTo(dst uint16) uint32 {
	return uint32(dst) << 22
}
