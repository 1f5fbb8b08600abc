package machine

import (
	"github.com/dolthub/swiss"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A Heap is the machine's random-access memory: an int64-keyed map of int64
// words backed by the h (store) and H (load) opcodes. Absent addresses read
// as zero.
type Heap struct {
	m *swiss.Map[int64, int64]
}

// newHeap returns an empty heap with capacity for at least size entries.
func newHeap(size int) *Heap {
	return &Heap{m: swiss.NewMap[int64, int64](uint32(size))}
}

func (h *Heap) store(addr, val int64) {
	h.m.Put(addr, val)
}

// load returns the word at addr, zero when the address was never stored.
func (h *Heap) load(addr int64) int64 {
	v, _ := h.m.Get(addr)
	return v
}

// Len returns the number of stored addresses.
func (h *Heap) Len() int { return h.m.Count() }

// Map returns a plain-map copy of the heap contents.
func (h *Heap) Map() map[int64]int64 {
	out := make(map[int64]int64, h.m.Count())
	h.m.Iter(func(k, v int64) bool {
		out[k] = v
		return false
	})
	return out
}

// SortedAddrs returns the stored addresses in increasing order, for
// deterministic rendering by debugger hosts.
func SortedAddrs(m map[int64]int64) []int64 {
	addrs := maps.Keys(m)
	slices.Sort(addrs)
	return addrs
}
