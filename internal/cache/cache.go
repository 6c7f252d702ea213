// Package cache remembers which files were clean under a given formatter
// configuration so that unchanged files can skip diagnosis.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/fmtcell/internal/fileio"
)

// Version is the on-disk format version. Files with another version are
// discarded on load.
const Version = "1"

// Entry records a file found clean.
type Entry struct {
	Formatter string    `json:"formatter"`
	Content   string    `json:"content"`
	CheckedAt time.Time `json:"checked_at"`
}

type cacheFile struct {
	Version string           `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// Cache persists clean files between runs. A nil *Cache is a disabled cache:
// lookups miss and updates are dropped. It is safe for concurrent use.
type Cache struct {
	path    string
	mu      sync.RWMutex
	entries map[string]Entry
	dirty   bool
}

// Open loads the cache stored at path. A missing file yields an empty cache.
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cache %s: %w", path, err)
	}
	if file.Version == Version && file.Entries != nil {
		c.entries = file.Entries
	}
	return c, nil
}

// Key identifies a file within a format.
func Key(format, relPath string) string {
	return format + ":" + relPath
}

// IsClean reports whether content was found clean the last time the file was
// diagnosed by a formatter with the same identity.
func (c *Cache) IsClean(format, relPath, identity, content string) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[Key(format, relPath)]
	return ok && entry.Formatter == digest(identity) && entry.Content == digest(content)
}

// MarkClean records that content is clean under identity.
func (c *Cache) MarkClean(format, relPath, identity, content string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[Key(format, relPath)] = Entry{
		Formatter: digest(identity),
		Content:   digest(content),
		CheckedAt: time.Now().UTC(),
	}
	c.dirty = true
}

// Forget drops whatever is known about a file.
func (c *Cache) Forget(format, relPath string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	k := Key(format, relPath)
	if _, ok := c.entries[k]; ok {
		delete(c.entries, k)
		c.dirty = true
	}
}

// Len counts the cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Save writes the cache atomically when it changed since Open.
func (c *Cache) Save() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(cacheFile{Version: Version, Entries: c.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if err := fileio.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
