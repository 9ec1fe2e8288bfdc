package urlfetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// DefaultTTL is how long a cached URL fetch stays valid.
const DefaultTTL = time.Hour

// cacheEntry is the on-disk format of one cached URL fetch.
type cacheEntry struct {
	URL         string `json:"url"`
	Content     string `json:"content"`
	FetchedAt   int64  `json:"fetched_at"`
	ContentType string `json:"content_type"`
	DisplayName string `json:"display_name"`
}

// Cache is a directory of per-URL JSON entries keyed by a truncated hash of
// the URL. An entry older than the TTL is treated as absent but is not
// deleted eagerly; the next successful fetch overwrites it. The cache is
// advisory: deleting the directory only forces cache misses.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates a Cache rooted at dir. A zero ttl means DefaultTTL.
func NewCache(dir string, ttl time.Duration) *Cache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Cache{dir: dir, ttl: ttl}
}

// key derives the cache filename for a URL: first 16 hex chars of sha256.
func (c *Cache) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

// Get returns the cached content and display name for a URL, or ok=false on
// a miss, an expired entry, or an unreadable entry.
func (c *Cache) Get(url string) (content, displayName string, ok bool) {
	raw, err := os.ReadFile(filepath.Join(c.dir, c.key(url)+".json"))
	if err != nil {
		return "", "", false
	}

	var e cacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return "", "", false
	}
	if time.Now().Unix()-e.FetchedAt > int64(c.ttl.Seconds()) {
		return "", "", false
	}
	return e.Content, e.DisplayName, true
}

// Put stores fetched content under the URL's cache key, overwriting any
// previous entry. Write failures are returned but callers may ignore them;
// the cache never gates a successful fetch.
func (c *Cache) Put(url, content, displayName, contentType string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(cacheEntry{
		URL:         url,
		Content:     content,
		FetchedAt:   time.Now().Unix(),
		ContentType: contentType,
		DisplayName: displayName,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, c.key(url)+".json"), raw, 0o644)
}
