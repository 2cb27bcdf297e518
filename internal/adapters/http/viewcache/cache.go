// Package viewcache caches rendered public pages in memory and drops them
// when the data behind a path changes.
//
// Each cached path has a generation counter that is part of the cache key.
// Invalidate bumps the counter, so the next request misses and re-renders;
// the orphaned entries age out through TTL and cost eviction.
package viewcache

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"motoclub/internal/adapters/http/middleware"
	"motoclub/internal/adapters/http/perf"
	"motoclub/internal/logging"
)

// DefaultTTL bounds how long a page may be served without invalidation.
const DefaultTTL = 5 * time.Minute

// Page is a rendered response.
type Page struct {
	Status      int
	ContentType string
	Body        []byte
}

// Cache is a generation-keyed page cache.
type Cache struct {
	store     *ristretto.Cache[string, Page]
	ttl       time.Duration
	collector *perf.Collector

	mu          sync.RWMutex
	generations map[string]uint64
}

// New creates a cache holding up to maxBytes of page bodies.
// collector may be nil.
func New(maxBytes int64, ttl time.Duration, collector *perf.Collector) (*Cache, error) {
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	store, err := ristretto.NewCache(&ristretto.Config[string, Page]{
		NumCounters: 10_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create view cache: %w", err)
	}
	return &Cache{
		store:       store,
		ttl:         ttl,
		collector:   collector,
		generations: make(map[string]uint64),
	}, nil
}

// Close releases the cache goroutines.
func (c *Cache) Close() {
	c.store.Close()
}

// Invalidate drops every cached variant of the given paths.
// POST: the next Get for any of the paths misses
func (c *Cache) Invalidate(paths ...string) {
	c.mu.Lock()
	for _, p := range paths {
		c.generations[p]++
	}
	c.mu.Unlock()
	logging.Debug().Strs("paths", paths).Msg("view_invalidated")
}

func (c *Cache) key(path, rawQuery string) string {
	c.mu.RLock()
	gen := c.generations[path]
	c.mu.RUnlock()
	return strconv.FormatUint(gen, 10) + ":" + path + "?" + rawQuery
}

// Get returns the cached page for path and query.
func (c *Cache) Get(path, rawQuery string) (Page, bool) {
	p, ok := c.store.Get(c.key(path, rawQuery))
	if c.collector != nil {
		c.collector.CacheLookup(ok)
	}
	return p, ok
}

// Set stores a page. The write is buffered; Wait makes it visible.
func (c *Cache) Set(path, rawQuery string, p Page) {
	c.store.SetWithTTL(c.key(path, rawQuery), p, int64(len(p.Body))+1, c.ttl)
}

// Wait blocks until buffered writes are applied.
func (c *Cache) Wait() {
	c.store.Wait()
}

// recorder buffers a response so it can be stored after the handler returns.
type recorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// Middleware serves anonymous GET requests from the cache and stores 200 responses
// that were not marked Cache-Control: no-store.
// Signed-in visitors always get a fresh render because the layout shows their session.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		path, query := r.URL.Path, r.URL.RawQuery
		if p, ok := c.Get(path, query); ok {
			w.Header().Set("Content-Type", p.ContentType)
			w.Header().Set("X-View-Cache", "hit")
			w.WriteHeader(p.Status)
			_, _ = w.Write(p.Body)
			return
		}

		// The key is computed before rendering so an invalidation that lands
		// mid-render stores the page under the superseded generation.
		key := c.key(path, query)
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-View-Cache", "miss")
		next.ServeHTTP(rec, r)
		if rec.status == http.StatusOK && w.Header().Get("Cache-Control") != "no-store" {
			page := Page{Status: rec.status, ContentType: w.Header().Get("Content-Type"), Body: rec.buf.Bytes()}
			c.store.SetWithTTL(key, page, int64(len(page.Body))+1, c.ttl)
		}
	})
}
