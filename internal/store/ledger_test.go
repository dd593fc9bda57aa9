package store

import (
	"fmt"
	"testing"
)

func TestLedger_AddAndPath(t *testing.T) {
	l := NewLedger(100, 0.001)

	if _, ok := l.Path("abc123:audio"); ok {
		t.Error("Path() found key in empty ledger")
	}

	l.Add("abc123:audio", "/downloads/abc123.mp3")

	path, ok := l.Path("abc123:audio")
	if !ok {
		t.Fatal("Path() missed a recorded key")
	}
	if path != "/downloads/abc123.mp3" {
		t.Errorf("Path() = %q, want /downloads/abc123.mp3", path)
	}

	if l.Size() != 1 {
		t.Errorf("Size() = %d, want 1", l.Size())
	}
}

func TestLedger_ReAddUpdatesPath(t *testing.T) {
	l := NewLedger(100, 0.001)

	l.Add("abc123:video", "/downloads/abc123.mp4")
	l.Add("abc123:video", "/downloads/abc123.webm")

	path, _ := l.Path("abc123:video")
	if path != "/downloads/abc123.webm" {
		t.Errorf("Path() = %q, want updated path", path)
	}
	if l.Size() != 1 {
		t.Errorf("Size() = %d, want 1", l.Size())
	}
}

func TestLedger_Remove(t *testing.T) {
	l := NewLedger(100, 0.001)

	l.Add("abc123:audio", "/downloads/abc123.mp3")
	l.Remove("abc123:audio")

	if _, ok := l.Path("abc123:audio"); ok {
		t.Error("Path() found removed key")
	}
	if l.Size() != 0 {
		t.Errorf("Size() = %d, want 0", l.Size())
	}
}

func TestLedger_EvictsBeyondCapacity(t *testing.T) {
	l := NewLedger(5, 0.001)

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("track%d:audio", i)
		l.Add(key, "/downloads/"+key)
	}

	if l.Size() > 5 {
		t.Errorf("Size() = %d, want at most 5 after eviction", l.Size())
	}

	// The most recent key survives.
	if _, ok := l.Path("track9:audio"); !ok {
		t.Error("most recently added key was evicted")
	}
}
