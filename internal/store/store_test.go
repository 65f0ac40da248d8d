package store

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSummaryCacheRoundTrip(t *testing.T) {
	store := newTestStore(t)

	content := "A long article body about a ransomware campaign."
	if err := store.CacheSummary(content, "Ransomware campaign summary."); err != nil {
		t.Fatalf("CacheSummary failed: %v", err)
	}

	got, err := store.GetCachedSummary(content, time.Hour)
	if err != nil {
		t.Fatalf("GetCachedSummary failed: %v", err)
	}
	if got != "Ransomware campaign summary." {
		t.Errorf("Cached summary = %q", got)
	}
}

func TestSummaryCacheMiss(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetCachedSummary("never cached", time.Hour)
	if err != nil {
		t.Fatalf("Expected a silent miss, got error: %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty summary on miss, got %q", got)
	}
}

func TestSummaryCacheReplace(t *testing.T) {
	store := newTestStore(t)

	content := "same content"
	if err := store.CacheSummary(content, "first"); err != nil {
		t.Fatal(err)
	}
	if err := store.CacheSummary(content, "second"); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetCachedSummary(content, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if got != "second" {
		t.Errorf("Expected replacement to win, got %q", got)
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.SummaryCount != 1 {
		t.Errorf("Expected 1 row after replace, got %d", stats.SummaryCount)
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	if err := store.CacheSummary("a", "summary a"); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.SummaryCount != 0 {
		t.Errorf("Expected empty cache after Clear, got %d rows", stats.SummaryCount)
	}
}

func TestContentHashStable(t *testing.T) {
	if ContentHash("alpha") != ContentHash("alpha") {
		t.Error("Hash not stable for identical content")
	}
	if ContentHash("alpha") == ContentHash("beta") {
		t.Error("Hash collision between different content")
	}
}
