package guard

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCheckWriteCachesWithinTTL(t *testing.T) {
	probes := 0
	g := New("/tmp/book.db", time.Hour)
	g.probe = func(string) string {
		probes++
		return "book is open in another process (pid 42)"
	}

	first := g.CheckWrite()
	second := g.CheckWrite()

	if first == "" || second == "" {
		t.Fatal("expected a blocking reason from both calls")
	}
	if probes != 1 {
		t.Fatalf("probe ran %d times within TTL, want 1", probes)
	}
}

func TestCheckWriteReprobesAfterTTL(t *testing.T) {
	probes := 0
	g := New("/tmp/book.db", time.Nanosecond)
	g.probe = func(string) string {
		probes++
		if probes == 1 {
			return "book is open in another process (pid 42)"
		}
		return ""
	}

	if reason := g.CheckWrite(); reason == "" {
		t.Fatal("first probe should block")
	}
	time.Sleep(time.Millisecond)
	if reason := g.CheckWrite(); reason != "" {
		t.Fatalf("stale veto survived TTL expiry: %q", reason)
	}
	if probes != 2 {
		t.Fatalf("probe ran %d times across TTL expiry, want 2", probes)
	}
}

func TestProbeIgnoresOwnProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.db")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	// the file is open, but only in this process; the probe must skip self
	if reason := probeProcFDs(path); reason != "" {
		t.Fatalf("own handle triggered a veto: %q", reason)
	}
}
