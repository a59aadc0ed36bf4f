// Package state holds cross-phase scan state: the set of already-probed
// URLs and the persistent scan history.
package state

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// ProbeSet tracks URLs that have already been probed so supplementary
// scans never hit the same URL twice. A Bloom filter answers the common
// negative case cheaply; an exact map confirms positives.
type ProbeSet struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
	count  int
}

// NewProbeSet creates a probe set sized for the expected number of URLs.
func NewProbeSet(estimatedItems int) *ProbeSet {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}

	return &ProbeSet{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

// Mark records a URL as probed. Returns false if it was already marked,
// which makes Mark usable as a claim operation from concurrent workers.
// A negative filter answer skips the map lookup for first-time URLs.
func (p *ProbeSet) Mark(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.filter.TestString(url) {
		if _, exists := p.exact[url]; exists {
			return false
		}
	}
	p.filter.AddString(url)
	p.exact[url] = struct{}{}
	p.count++
	return true
}

// Count returns the number of probed URLs.
func (p *ProbeSet) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count
}
