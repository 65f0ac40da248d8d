package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"threatbrief/internal/core"
	"threatbrief/internal/logger"
)

// ThreatCache is the JSON threat-cache document carried between runs so
// dedup can prefer previously seen items.
type ThreatCache struct {
	Articles    []core.Threat `json:"articles"`
	LastCleanup time.Time     `json:"lastCleanup"`
}

// LoadThreatCache reads the cache file. An absent or corrupt file is an
// empty cache, never an error.
func LoadThreatCache(path string) ThreatCache {
	data, err := os.ReadFile(path)
	if err != nil {
		return ThreatCache{}
	}
	var cache ThreatCache
	if err := json.Unmarshal(data, &cache); err != nil {
		logger.Warn("Threat cache corrupt, starting empty", "path", path, "error", err.Error())
		return ThreatCache{}
	}
	return cache
}

// SaveThreatCache writes the cache atomically (write-to-temp-then-rename)
// so a crash cannot leave truncated JSON behind.
func SaveThreatCache(path string, cache ThreatCache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode threat cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".threats-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Prune drops cached threats outside the trailing window and stamps the
// cleanup time.
func (c *ThreatCache) Prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	kept := c.Articles[:0]
	for _, threat := range c.Articles {
		if !threat.PublishedAt.IsZero() && threat.PublishedAt.After(cutoff) && !threat.PublishedAt.After(now) {
			kept = append(kept, threat)
		}
	}
	c.Articles = kept
	c.LastCleanup = now
}
