// Package pool implements the stack's static packet buffer pool: a
// fixed-capacity array of defn.Packet records with an index-based free
// stack, guarded by a single mutex. No dynamic allocation happens after
// New returns.
package pool

import (
	"sync"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/errs"
	"github.com/dogukanarat/danp/log"
)

// Pool is a fixed array of defn.PoolSize packets with a parallel free
// stack in place of a free bitmap: "index not currently on the free stack"
// is the double-free check, backed by a membership bitmap so that check
// stays O(1) without scanning the stack.
type Pool struct {
	mu       sync.Mutex
	storage  [defn.PoolSize]defn.Packet
	freeTop  int
	freeList [defn.PoolSize]int
	onFree   [defn.PoolSize]bool // membership check for double-free detection
}

// New returns a pool with every slot free.
func New() *Pool {
	p := &Pool{}
	for i := 0; i < defn.PoolSize; i++ {
		p.freeList[i] = i
		p.onFree[i] = true
	}
	p.freeTop = defn.PoolSize
	return p
}

// Get returns a reference to a free packet, marked busy with Next cleared.
// Returns errs.ErrExhausted when the pool has nothing free. Payload
// contents are not zeroed; callers must set Length before use.
func (p *Pool) Get() (*defn.Packet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.freeTop == 0 {
		log.Error("packet pool out of memory")
		return nil, errs.ErrExhausted
	}

	p.freeTop--
	idx := p.freeList[p.freeTop]
	p.onFree[idx] = false

	pkt := &p.storage[idx]
	pkt.Next = nil
	log.Trace("allocated packet from pool", "index", idx)
	return pkt, nil
}

// index returns the slot index of pkt if it belongs to this pool's
// contiguous storage, or -1 otherwise. O(PoolSize), same bound as the
// original's linear free-bitmap scan.
func (p *Pool) index(pkt *defn.Packet) int {
	for i := 0; i < defn.PoolSize; i++ {
		if &p.storage[i] == pkt {
			return i
		}
	}
	return -1
}

// Free returns a previously-acquired packet to the free set. A nil
// reference, a reference outside the pool, or an already-free reference
// are each tolerated: logged and ignored, never corrupting the pool.
func (p *Pool) Free(pkt *defn.Packet) {
	if pkt == nil {
		log.Warn("freeing nil packet reference")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.index(pkt)
	if idx < 0 {
		log.Error("freeing packet reference outside pool storage")
		return
	}
	if p.onFree[idx] {
		log.Warn("double free of pool packet", "index", idx)
		return
	}

	p.storage[idx].Reset()
	p.onFree[idx] = true
	p.freeList[p.freeTop] = idx
	p.freeTop++
	log.Trace("freed packet to pool", "index", idx)
}

// FreeChain walks pkt's Next chain and frees each node. Tolerates nil.
func (p *Pool) FreeChain(pkt *defn.Packet) {
	for pkt != nil {
		next := pkt.Next
		pkt.Next = nil
		p.Free(pkt)
		pkt = next
	}
}

// FreeCount returns the number of currently-free slots.
func (p *Pool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freeTop
}
