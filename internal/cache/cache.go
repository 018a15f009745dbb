// Package cache persists model responses on disk, keyed by a digest of
// model name and prompt, so re-running a report for the same quarter does
// not re-bill the same completion.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ResponseCache stores raw response bytes under Dir. The zero value with
// an empty Dir is unusable; callers treat a nil *ResponseCache as
// "caching disabled".
type ResponseCache struct {
	Dir string
}

// KeyFrom builds a cache key from the model name and the full prompt.
func KeyFrom(model, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *ResponseCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return os.MkdirAll(c.Dir, 0o755)
}

func (c *ResponseCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns cached bytes if present. A missing entry is not an error.
func (c *ResponseCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	// Touch mtime on access so age-based purges behave like LRU.
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes bytes to the cache, replacing any previous entry.
func (c *ResponseCache) Save(_ context.Context, key string, data []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	tmp := c.pathFor(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.pathFor(key))
}

// PurgeOlderThan removes entries whose mtime is older than maxAge and
// returns how many were removed.
func (c *ResponseCache) PurgeOlderThan(maxAge time.Duration) (int, error) {
	if c == nil || c.Dir == "" || maxAge <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(c.Dir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed, nil
}
