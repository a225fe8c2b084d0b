package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/ethanolivertroy/pyproject-deps/internal/models"
	"github.com/ethanolivertroy/pyproject-deps/internal/specifier"
)

// Cache stores extraction results on disk, keyed by file path and content,
// with an in-memory LRU in front of the files.
type Cache struct {
	Dir string
	TTL time.Duration
	mem *lru.Cache[string, []byte]
}

// DefaultTTL is the default cache time-to-live
const DefaultTTL = 24 * time.Hour

const (
	memEntries = 1024
	// keyVersion changes whenever the cached PackageFile encoding changes.
	keyVersion = "pyproject-deps/v2"
)

// grammar is part of every key so results extracted with an older
// declaration pattern are never served.
var grammar = specifier.Default.String()

// New creates a new cache under ~/.cache/<appName>
func New(appName string, ttl time.Duration) (*Cache, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to locate home directory").
			WithCause(err)
	}
	return NewAt(filepath.Join(homeDir, ".cache", appName), ttl)
}

// NewAt creates a new cache rooted at dir
func NewAt(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create cache directory " + dir).
			WithCause(err)
	}

	if ttl == 0 {
		ttl = DefaultTTL
	}

	mem, err := lru.New[string, []byte](memEntries)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create memory cache").
			WithCause(err)
	}

	return &Cache{
		Dir: dir,
		TTL: ttl,
		mem: mem,
	}, nil
}

// Key derives the cache key for a file path and its content
func Key(path string, content []byte) string {
	return keyFor(grammar, path, content)
}

func keyFor(pattern string, path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(keyVersion))
	h.Write([]byte{0})
	h.Write([]byte(pattern))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// keyToFilename converts a key to a safe filename
func (c *Cache) keyToFilename(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + ".json"
}

// Path returns the full path to the cache file for a key
func (c *Cache) Path(key string) string {
	return filepath.Join(c.Dir, c.keyToFilename(key))
}

// Get retrieves data from cache if it exists and is not expired
func (c *Cache) Get(key string) ([]byte, bool) {
	if data, ok := c.mem.Get(key); ok {
		return data, true
	}

	path := c.Path(key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	// Check if cache is expired
	if time.Since(info.ModTime()) > c.TTL {
		log.Debug().Str("path", path).Msg("cache entry expired")
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	c.mem.Add(key, data)
	return data, true
}

// Set stores data in the cache
func (c *Cache) Set(key string, data []byte) error {
	c.mem.Add(key, data)
	if err := os.WriteFile(c.Path(key), data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write cache entry").
			WithCause(err)
	}
	return nil
}

// GetPackageFile returns the cached extraction result for path and content
func (c *Cache) GetPackageFile(path string, content []byte) (*models.PackageFile, bool) {
	data, ok := c.Get(Key(path, content))
	if !ok {
		return nil, false
	}
	var pf models.PackageFile
	if err := json.Unmarshal(data, &pf); err != nil {
		log.Debug().Err(err).Str("file", path).Msg("discarding unreadable cache entry")
		return nil, false
	}
	return &pf, true
}

// SetPackageFile stores the extraction result for path and content
func (c *Cache) SetPackageFile(path string, content []byte, pf *models.PackageFile) error {
	data, err := json.Marshal(pf)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode cache entry").
			WithCause(err)
	}
	return c.Set(Key(path, content), data)
}

// Clear removes all cached files
func (c *Cache) Clear() error {
	c.mem.Purge()

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read cache directory").
			WithCause(err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.Dir, entry.Name())); err == nil {
			removed++
		}
	}
	log.Debug().Str("dir", c.Dir).Int("removed", removed).Msg("cache cleared")
	return nil
}
