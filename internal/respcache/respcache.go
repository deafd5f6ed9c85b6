// Package respcache implements the content-addressed response cache shared,
// as two independent instances, by internal/dispatcher (keyed on
// (prompt, repo content hash, codex version)) and internal/llmclient (keyed
// on (model, messages, tools, tool_choice)). Grounded on
// original_source/util/openai.py's get_cache_key/load_cache/save_cache.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/anchorsec/anchor/internal/fsutil"
)

// Cache is a directory-backed, content-addressed store. Each entry is
// written via fsutil.AtomicWrite to a filename derived from its key, so
// concurrent writers never race on partial content; a single lock file
// serializes writers for the key→filename mapping itself (spec.md §4.4's
// "replay run is hermetic" requirement), grounded on
// untoldecay-BeadsLog/cmd/bd/sync.go's flock.New(...).TryLock() pattern.
type Cache struct {
	dir  string
	lock *flock.Flock
}

// New returns a Cache rooted at dir. dir is created lazily on first write.
// An empty dir disables the cache: Get always misses and Put is a no-op,
// matching original_source's "only active when LLM_MEMO_DIR is set"
// behavior.
func New(dir string) *Cache {
	c := &Cache{dir: dir}
	if dir != "" {
		c.lock = flock.New(filepath.Join(dir, ".respcache.lock"))
	}
	return c
}

// Enabled reports whether this cache instance is backed by a directory.
func (c *Cache) Enabled() bool {
	return c.dir != ""
}

// Key computes the cache key as the SHA-256 hex digest of the canonical
// (sorted-key) JSON encoding of fingerprint.
func Key(fingerprint any) (string, error) {
	// encoding/json already serializes map keys in sorted order and struct
	// fields in declaration order, giving us a canonical encoding as long as
	// callers pass a struct or a map[string]any consistently, per
	// original_source's json.dumps(..., sort_keys=True).
	b, err := json.Marshal(fingerprint)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get looks up key and decodes its stored JSON payload into dst. It returns
// (false, nil) on a clean miss.
func (c *Cache) Get(key string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Put stores payload under key. Writers are serialized by a lock file so
// the key→filename mapping is never torn; the final write itself is atomic
// via fsutil.AtomicWrite regardless of lock acquisition, since the content
// is already filename-addressed.
func (c *Cache) Put(key string, payload any) error {
	if !c.Enabled() {
		return nil
	}
	if err := fsutil.EnsureDir(c.dir); err != nil {
		return err
	}
	if c.lock != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		locked, err := c.lock.TryLockContext(ctx, 20*time.Millisecond)
		cancel()
		if err == nil && locked {
			defer c.lock.Unlock()
		}
		// A lock timeout degrades to an unlocked write: entries are
		// content-addressed and atomic_write-protected, so a lost race
		// only costs a redundant write, never corruption.
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return fsutil.AtomicWrite(c.path(key), data)
}
