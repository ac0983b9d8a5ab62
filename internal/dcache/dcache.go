// Package dcache caches check results on disk so an unchanged dump is not
// rescanned.
package dcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"traitlint/internal/diag"
	"traitlint/internal/feature"
	"traitlint/internal/source"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 2

// Key identifies one check run.
type Key [32]byte

// String returns the hex form of k.
func (k Key) String() string { return hex.EncodeToString(k[:]) }

// KeyFor hashes everything a check result depends on: the dump bytes, the
// content of every source file, the enabled features, the level overrides,
// the diagnostic limit and the tool version.
func KeyFor(dump []byte, files *source.FileSet, features feature.Set, levels string, limit int, version string) Key {
	h := sha256.New()
	write := func(parts ...[]byte) {
		var n [8]byte
		for _, p := range parts {
			binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
			h.Write(n[:])
			h.Write(p)
		}
	}
	write([]byte(version), dump)
	if files != nil {
		for i := range files.Len() {
			id, err := safecast.Conv[uint32](i)
			if err != nil {
				break
			}
			f := files.Get(source.FileID(id))
			write([]byte(f.Path), f.Hash[:])
		}
	}
	write([]byte(features.String()), []byte(levels), []byte(strconv.Itoa(limit)))
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Payload is one cached result.
type Payload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Unit        string
	Diagnostics []diag.Diagnostic
	Suppressed  int
	// Dropped counts diagnostics the limit rejected in the original run.
	Dropped int
	Created     time.Time
}

// Cache stores payloads under a directory.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open returns the cache for app under XDG_CACHE_HOME or ~/.cache.
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDir(filepath.Join(base, app))
}

// OpenDir returns a cache rooted at dir, creating it if needed.
func OpenDir(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "results", key.String()+".mp")
}

// Put serializes and writes a payload.
func (c *Cache) Put(key Key, payload *Payload) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	stored := *payload
	stored.Schema = schemaVersion
	if stored.Created.IsZero() {
		stored.Created = time.Now().UTC()
	}
	if err := msgpack.NewEncoder(f).Encode(&stored); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry or one written by another schema
// version is a miss, not an error.
func (c *Cache) Get(key Key) (*Payload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var out Payload
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, err
	}
	if out.Schema != schemaVersion {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll removes every cached entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	results := filepath.Join(c.dir, "results")
	old := results + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(results, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
