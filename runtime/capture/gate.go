package capture

import "sync/atomic"

// Gate is a single-slot in-flight marker. TryAcquire never blocks.
type Gate struct {
	busy atomic.Bool
}

// TryAcquire takes the slot if it is free and reports whether it did.
func (g *Gate) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release frees the slot. Releasing a free gate is a no-op.
func (g *Gate) Release() {
	g.busy.Store(false)
}

// Busy reports whether the slot is taken.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
