// Package guard detects external processes holding the book file open so
// writes can be vetoed before they race a foreign writer.
package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Guard answers whether writing the book is currently safe. Probe results
// are cached for a short TTL; a stale answer is tolerable because the worst
// case is a veto arriving one probe late.
type Guard struct {
	path string
	ttl  time.Duration

	mu       sync.Mutex
	cached   string
	cachedAt time.Time

	probe func(path string) string
}

// New returns a guard for the book at path with the given cache TTL.
func New(path string, ttl time.Duration) *Guard {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Guard{path: abs, ttl: ttl, probe: probeProcFDs}
}

// CheckWrite returns a human-readable blocking reason if another process
// holds the book open, or "" if writing is allowed.
func (g *Guard) CheckWrite() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.cachedAt.IsZero() && time.Since(g.cachedAt) < g.ttl {
		return g.cached
	}
	g.cached = g.probe(g.path)
	g.cachedAt = time.Now()
	return g.cached
}

// probeProcFDs scans /proc/<pid>/fd for open handles on path, skipping our
// own process. On systems without /proc it reports nothing.
func probeProcFDs(path string) string {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return ""
	}

	self := os.Getpid()
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid == self {
			continue
		}

		fdDir := filepath.Join("/proc", e.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue // no permission or process gone
		}
		for _, fd := range fds {
			target, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if target == path {
				return fmt.Sprintf("book is open in another process (pid %d)", pid)
			}
		}
	}
	return ""
}
