package capture

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate_SingleSlot(t *testing.T) {
	var g Gate
	assert.False(t, g.Busy())
	assert.True(t, g.TryAcquire())
	assert.True(t, g.Busy())
	assert.False(t, g.TryAcquire(), "second acquire must fail while busy")

	g.Release()
	assert.False(t, g.Busy())
	assert.True(t, g.TryAcquire())

	g.Release()
	g.Release() // releasing a free gate is harmless
	assert.False(t, g.Busy())
}

func TestGate_ConcurrentAcquireHasOneWinner(t *testing.T) {
	var g Gate
	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}
