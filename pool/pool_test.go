package pool_test

import (
	"testing"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/pool"
	"github.com/stretchr/testify/require"
)

func TestGetFreeCount(t *testing.T) {
	p := pool.New()
	require.Equal(t, defn.PoolSize, p.FreeCount())

	held := make([]*defn.Packet, 0, defn.PoolSize)
	for i := 0; i < defn.PoolSize; i++ {
		pkt, err := p.Get()
		require.NoError(t, err)
		require.NotNil(t, pkt)
		held = append(held, pkt)
		require.Equal(t, defn.PoolSize-len(held), p.FreeCount())
	}

	_, err := p.Get()
	require.Error(t, err)

	for _, pkt := range held {
		p.Free(pkt)
	}
	require.Equal(t, defn.PoolSize, p.FreeCount())
}

func TestFreeTolerance(t *testing.T) {
	p := pool.New()

	// nil, double-free, and out-of-pool references must all be no-ops.
	p.Free(nil)
	require.Equal(t, defn.PoolSize, p.FreeCount())

	outside := &defn.Packet{}
	p.Free(outside)
	require.Equal(t, defn.PoolSize, p.FreeCount())

	pkt, err := p.Get()
	require.NoError(t, err)
	p.Free(pkt)
	require.Equal(t, defn.PoolSize, p.FreeCount())
	p.Free(pkt) // double free
	require.Equal(t, defn.PoolSize, p.FreeCount())
}

func TestFreeChain(t *testing.T) {
	p := pool.New()
	a, _ := p.Get()
	b, _ := p.Get()
	c, _ := p.Get()
	a.Next = b
	b.Next = c
	require.Equal(t, defn.PoolSize-3, p.FreeCount())

	p.FreeChain(a)
	require.Equal(t, defn.PoolSize, p.FreeCount())

	p.FreeChain(nil) // tolerated
}

func TestChainHelpers(t *testing.T) {
	p := pool.New()
	a, _ := p.Get()
	a.Length = 3
	b, _ := p.Get()
	b.Length = 5

	head := pool.Append(nil, a)
	head = pool.Append(head, b)
	require.Equal(t, 2, pool.Count(head))
	require.Equal(t, 8, pool.TotalLength(head))

	p.FreeChain(head)
}
