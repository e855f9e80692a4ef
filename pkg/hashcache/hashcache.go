// Package hashcache resolves artifact content hashes by URL.
//
// The lock document usually records a hash per artifact; when it does
// not, the hash is derived here. Lookups go through two layers: an
// in-memory LRU for repeated references within one run, then a file
// cache keyed by the SHA-256 of the URL so hashes survive across runs.
// On a full miss the artifact is downloaded and hashed.
//
// Lookups are plain blocking calls with no retry; a failure propagates
// immediately and aborts the enclosing parse.
package hashcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/lockbridge/pkg/errors"
)

const memEntries = 512

// Cache resolves and remembers artifact hashes. Not safe for
// concurrent use; the parse loop is single-threaded by design.
type Cache struct {
	dir    string
	mem    *lru.Cache[string, string]
	client *http.Client
}

// entry is the on-disk JSON shape of one cached hash.
type entry struct {
	URL  string `json:"url"`
	Hash string `json:"hash"`
}

// New creates a hash cache rooted at dir. If dir is empty, the default
// ~/.cache/lockbridge/hashes is used. The directory is created if
// missing.
func New(dir string) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".cache", "lockbridge", "hashes")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	mem, err := lru.New[string, string](memEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{
		dir:    dir,
		mem:    mem,
		client: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Get returns the "sha256:<hex>" content hash for the artifact at url,
// computing and storing it on a cache miss. Errors carry the
// HASH_RESOLUTION code and are fatal for the caller's parse.
func (c *Cache) Get(ctx context.Context, url string) (string, error) {
	if h, ok := c.mem.Get(url); ok {
		return h, nil
	}
	path := c.keyPath(url)
	if data, err := os.ReadFile(path); err == nil {
		var e entry
		if json.Unmarshal(data, &e) == nil && e.Hash != "" {
			c.mem.Add(url, e.Hash)
			return e.Hash, nil
		}
		// Invalid cache entry, treat as miss
		_ = os.Remove(path)
	}

	h, err := c.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	c.mem.Add(url, h)
	if data, err := json.Marshal(entry{URL: url, Hash: h}); err == nil {
		_ = os.WriteFile(path, data, 0o644)
	}
	return h, nil
}

// fetch downloads the artifact and computes its SHA-256.
func (c *Cache) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeHashResolution, err, "hash request for %s", url)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeHashResolution, err, "fetch %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeHashResolution, "fetch %s: HTTP %d", url, resp.StatusCode)
	}
	digest := sha256.New()
	if _, err := io.Copy(digest, resp.Body); err != nil {
		return "", errors.Wrap(errors.ErrCodeHashResolution, err, "hash %s", url)
	}
	return fmt.Sprintf("sha256:%s", hex.EncodeToString(digest.Sum(nil))), nil
}

func (c *Cache) keyPath(url string) string {
	h := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
