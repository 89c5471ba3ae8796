// Package pool implements a generation-validated slot pool for GPU
// resources.
//
// A Pool owns the lifetime of the resources placed into it and hands out
// opaque handles instead of references. Each slot carries a generation
// counter that is incremented when the slot is reused, so a handle issued
// for an earlier occupant of the slot can never observe the new one. This
// is the sole mechanism preventing use-after-free of pooled GPU objects;
// there is no garbage collection or reference counting involved.
//
// Pools are not safe for concurrent use. They are intended to be owned by
// a single render thread; see the rhi package documentation.
package pool

import (
	"fmt"
	"math"
)

// nilID marks a handle that does not reference any slot.
const nilID = math.MaxUint32

// Handle identifies a pooled resource of type T without granting access to
// it. A Handle is an inert value: it is safe to copy and to pass between
// goroutines, and holding one does not keep the resource alive.
//
// The zero Handle is nil: generations start at 1, so no issued handle
// carries generation 0. [Nil] returns the canonical sentinel.
type Handle[T comparable] struct {
	id  uint32
	gen uint32
}

// Nil returns the sentinel handle that never resolves to a resource.
func Nil[T comparable]() Handle[T] {
	return Handle[T]{id: nilID, gen: 0}
}

// ID returns the slot index encoded in the handle.
func (h Handle[T]) ID() uint32 { return h.id }

// Generation returns the slot generation the handle was issued for.
func (h Handle[T]) Generation() uint32 { return h.gen }

// IsNil reports whether h can never resolve to a resource. Both the [Nil]
// sentinel and the zero Handle are nil. A non-nil handle may still be
// stale; only the owning pool can tell.
func (h Handle[T]) IsNil() bool { return h.gen == 0 }

// String formats the handle for logs and error messages.
func (h Handle[T]) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%d@%d", h.id, h.gen)
}

// slot is the unit of storage inside a Pool: at most one live resource
// plus the generation counter for the slot. gen only ever increases.
type slot[T comparable] struct {
	resource T
	gen      uint32
	live     bool
}

// Pool is a slot array with generation counters that owns resources of
// type T. T is typically a pointer to a resource adapter; the zero value
// of T is rejected by Alloc.
//
// Released slot indices are recycled FIFO through a free list. When no
// free slot exists the backing array grows (amortized doubling via
// append), which preserves the validity of every outstanding handle.
type Pool[T comparable] struct {
	slots   []slot[T]
	free    []uint32
	live    int
	destroy func(T)
}

// New creates a pool. destroy, if non-nil, is invoked exactly once for
// each resource when its slot is released or the pool is cleared; this is
// where native GPU disposal happens, synchronously.
func New[T comparable](destroy func(T)) *Pool[T] {
	return &Pool[T]{destroy: destroy}
}

// Alloc stores resource in the pool and returns a handle for it.
// The zero value of T is rejected: ok is false and the nil handle is
// returned. Freed slots are reused before the backing array grows; a
// reused slot's generation is incremented so handles issued for its
// previous occupant become permanently invalid.
func (p *Pool[T]) Alloc(resource T) (Handle[T], bool) {
	var zero T
	if resource == zero {
		return Nil[T](), false
	}

	if n := len(p.free); n > 0 {
		id := p.free[0]
		p.free = p.free[1:]
		s := &p.slots[id]
		s.gen++
		s.resource = resource
		s.live = true
		p.live++
		return Handle[T]{id: id, gen: s.gen}, true
	}

	p.slots = append(p.slots, slot[T]{resource: resource, gen: 1, live: true})
	p.live++
	return Handle[T]{id: uint32(len(p.slots) - 1), gen: 1}, true
}

// Get returns the resource the handle refers to, if the handle is still
// valid: the slot index is in range, the generations match, and the slot
// currently holds a resource. Stale, released, nil, and never-issued
// handles all yield ok == false.
func (p *Pool[T]) Get(h Handle[T]) (T, bool) {
	var zero T
	// uint64 comparison: int(h.id) would wrap negative on 32-bit platforms.
	if uint64(h.id) >= uint64(len(p.slots)) {
		return zero, false
	}
	s := &p.slots[h.id]
	if !s.live || s.gen != h.gen {
		return zero, false
	}
	return s.resource, true
}

// Valid reports whether h currently resolves to a resource.
func (p *Pool[T]) Valid(h Handle[T]) bool {
	_, ok := p.Get(h)
	return ok
}

// Release disposes the resource the handle refers to and recycles its
// slot. It returns true on success and false if the handle is already
// invalid or released; releasing twice is safe and never double-disposes.
func (p *Pool[T]) Release(h Handle[T]) bool {
	if uint64(h.id) >= uint64(len(p.slots)) {
		return false
	}
	s := &p.slots[h.id]
	if !s.live || s.gen != h.gen {
		return false
	}
	if p.destroy != nil {
		p.destroy(s.resource)
	}
	var zero T
	s.resource = zero
	s.live = false
	p.live--
	p.free = append(p.free, h.id)
	return true
}

// Clear disposes every live resource and recycles all slots. Generations
// are preserved, so handles issued before Clear stay invalid even if the
// pool is used again afterwards.
func (p *Pool[T]) Clear() {
	var zero T
	for i := range p.slots {
		s := &p.slots[i]
		if !s.live {
			continue
		}
		if p.destroy != nil {
			p.destroy(s.resource)
		}
		s.resource = zero
		s.live = false
		p.free = append(p.free, uint32(i))
	}
	p.live = 0
}

// Len returns the number of live resources in the pool.
func (p *Pool[T]) Len() int { return p.live }

// Cap returns the total number of slots, live or free.
func (p *Pool[T]) Cap() int { return len(p.slots) }
