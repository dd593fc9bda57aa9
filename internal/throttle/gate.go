// Package throttle bounds the rate of outbound calls to rate-limited
// upstreams with a per-source sliding window.
package throttle

import (
	"sync"
	"time"
)

const (
	// windowDuration is the fixed sliding window (always 1 minute).
	windowDuration = 60 * time.Second
	// cleanupInterval is how often idle source entries are swept.
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long a source may be quiet before its entry is dropped.
	idleTimeout = 10 * time.Minute
)

// Gate enforces a per-source calls-per-minute budget. A denied call should be
// reported to the caller as upstream unavailability, not silently queued.
type Gate struct {
	limitPerMinute int
	entries        map[string]*sourceEntry
	mutex          sync.Mutex
	stopCleanup    chan struct{}
}

type sourceEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// New creates a Gate allowing limitPerMinute calls per source per minute.
func New(limitPerMinute int) *Gate {
	g := &Gate{
		limitPerMinute: limitPerMinute,
		entries:        make(map[string]*sourceEntry),
		stopCleanup:    make(chan struct{}),
	}

	go g.cleanup()

	return g
}

// Stop stops the background cleanup goroutine.
func (g *Gate) Stop() {
	close(g.stopCleanup)
}

// Allow reports whether one more call to the named source fits the budget,
// recording it when it does.
func (g *Gate) Allow(source string) bool {
	now := time.Now()

	g.mutex.Lock()
	defer g.mutex.Unlock()

	entry, exists := g.entries[source]
	if !exists {
		entry = &sourceEntry{
			timestamps: make([]time.Time, 0, g.limitPerMinute+1),
		}
		g.entries[source] = entry
	}

	entry.lastSeen = now

	windowStart := now.Add(-windowDuration)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= g.limitPerMinute {
		return false
	}

	entry.timestamps = append(entry.timestamps, now)
	return true
}

func (g *Gate) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.sweep()
		case <-g.stopCleanup:
			return
		}
	}
}

func (g *Gate) sweep() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	cutoff := time.Now().Add(-idleTimeout)
	for source, entry := range g.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(g.entries, source)
		}
	}
}
