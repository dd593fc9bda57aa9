// Package store provides the download ledger: a thread-safe record of media
// files already acquired, backed by a Bloom filter and an LRU for bounded
// memory.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Ledger maps acquisition keys (track ID plus mode) to the file path the
// acquisition produced. The Bloom filter short-circuits the common miss; the
// LRU bounds the exact map by evicting the least recently used key.
type Ledger struct {
	paths             map[string]string
	bloom             *bloom.BloomFilter
	lru               *lru.Cache[string, struct{}]
	mutex             sync.RWMutex
	maxEntries        int
	falsePositiveRate float64
}

// NewLedger creates a ledger with the given capacity and Bloom false
// positive rate.
func NewLedger(maxEntries int, falsePositiveRate float64) *Ledger {
	lruCache, _ := lru.New[string, struct{}](maxEntries)

	return &Ledger{
		paths:             make(map[string]string),
		bloom:             bloom.NewWithEstimates(uint(maxEntries), falsePositiveRate),
		lru:               lruCache,
		maxEntries:        maxEntries,
		falsePositiveRate: falsePositiveRate,
	}
}

// Path returns the recorded file path for a key, if any.
func (l *Ledger) Path(key string) (string, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if !l.bloom.TestString(key) {
		return "", false
	}

	path, exists := l.paths[key]
	return path, exists
}

// Add records the path produced for a key. Re-adding an existing key updates
// its path and refreshes its recency.
func (l *Ledger) Add(key, path string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.paths[key] = path
	l.bloom.AddString(key)
	l.lru.Add(key, struct{}{})

	if len(l.paths) > l.maxEntries {
		l.evictOldest()
	}
}

// Remove forgets a key, typically after its file was found missing on disk.
// The Bloom filter cannot unlearn the key; the resulting false positive is
// resolved by the exact map.
func (l *Ledger) Remove(key string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	delete(l.paths, key)
	l.lru.Remove(key)
}

// Size returns the number of recorded acquisitions.
func (l *Ledger) Size() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.paths)
}

func (l *Ledger) evictOldest() {
	oldestKey, _, ok := l.lru.GetOldest()
	if !ok {
		return
	}

	delete(l.paths, oldestKey)
	l.lru.Remove(oldestKey)
}
