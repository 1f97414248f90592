// Package scratch rents reusable pixel buffers used to stage atlas writes.
package scratch

import (
	"image/color"
	"sync"
)

// Pool recycles pixel arrays across injection passes. Rent clears what it
// hands out, so callers always start from transparent pixels.
type Pool struct {
	mu          sync.Mutex
	free        [][]color.RGBA
	outstanding int
	stats       Stats
}

// Stats counts pool traffic since creation
type Stats struct {
	Rented    int
	Reused    int
	Allocated int
	Returned  int
}

// NewPool creates an empty pool
func NewPool() *Pool {
	return &Pool{}
}

// Rent returns a cleared slice of length size, reusing freed capacity when
// possible
func (p *Pool) Rent(size int) []color.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Rented++
	p.outstanding++

	// free list stays tiny (one entry per sheet ever touched), scan from the end
	for i := len(p.free) - 1; i >= 0; i-- {
		if cap(p.free[i]) < size {
			continue
		}
		data := p.free[i][:size]
		last := len(p.free) - 1
		p.free[i] = p.free[last]
		p.free[last] = nil
		p.free = p.free[:last]
		clear(data)
		p.stats.Reused++
		return data
	}

	p.stats.Allocated++
	return make([]color.RGBA, size)
}

// Return hands a rented slice back to the pool
func (p *Pool) Return(data []color.RGBA) {
	if data == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.outstanding--
	p.stats.Returned++
	p.free = append(p.free, data[:0])
}

// Outstanding is the number of rented slices not yet returned
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// Stats returns a snapshot of pool counters
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Idle is the number of freed slices waiting for reuse
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
