package acquire

import (
	"math/rand"
	"os"
	"path/filepath"
	"sync"
)

// CredentialSource hands out credential file paths for extractor runs.
// Next reports false when no credential is available, which is not an
// error: the extractor simply runs unauthenticated.
type CredentialSource interface {
	Next() (string, bool)
}

// DirSource picks a random credential file from a directory on each call,
// spreading load across accounts so no single one gets burned.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Next() (string, bool) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.txt"))
	if err != nil || len(matches) == 0 {
		return "", false
	}

	pick := matches[rand.Intn(len(matches))]
	if _, err := os.Stat(pick); err != nil {
		return "", false
	}
	return pick, true
}

// RoundRobin cycles through a fixed list of credential paths.
type RoundRobin struct {
	paths []string
	next  int
	mutex sync.Mutex
}

func NewRoundRobin(paths []string) *RoundRobin {
	return &RoundRobin{paths: paths}
}

func (r *RoundRobin) Next() (string, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.paths) == 0 {
		return "", false
	}
	pick := r.paths[r.next%len(r.paths)]
	r.next++
	return pick, true
}
