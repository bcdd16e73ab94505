// Package cache memoizes values derived from documents. A value is recomputed only when the
// document's version or language changes.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/walteh/go-sfc-typer/pkg/document"
)

const (
	DefaultMaxEntries = 10
	DefaultMaxAge     = 60 * time.Second
)

// ParseFunc derives a value from a document.
type ParseFunc[T any] func(ctx context.Context, doc *document.Document) T

type Options[T any] struct {
	// MaxEntries bounds the number of cached documents. Zero means DefaultMaxEntries.
	MaxEntries int
	// MaxAge evicts entries not accessed for this long. Zero means DefaultMaxAge, negative disables it.
	MaxAge time.Duration
	// Dispose is called with every value that leaves the cache.
	Dispose func(T)
}

type entry[T any] struct {
	version    int32
	languageID string
	value      T
	lastAccess time.Time
	seq        uint64
}

// LanguageModelCache is not safe for concurrent use.
type LanguageModelCache[T any] struct {
	name       string
	parse      ParseFunc[T]
	maxEntries int
	dispose    func(T)
	store      *gocache.Cache
	seq        uint64
}

func New[T any](name string, opts Options[T], parse ParseFunc[T]) *LanguageModelCache[T] {
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	expiration := opts.MaxAge
	switch {
	case expiration == 0:
		expiration = DefaultMaxAge
	case expiration < 0:
		expiration = gocache.NoExpiration
	}

	c := &LanguageModelCache[T]{
		name:       name,
		parse:      parse,
		maxEntries: maxEntries,
		dispose:    opts.Dispose,
		// no janitor: expired entries are swept synchronously on each call
		store: gocache.New(expiration, 0),
	}

	c.store.OnEvicted(func(_ string, v interface{}) {
		if e, ok := v.(*entry[T]); ok {
			c.release(e.value)
		}
	})

	return c
}

// RefreshAndGet returns the value for doc, recomputing it when the cached one was derived
// from another version or language.
func (c *LanguageModelCache[T]) RefreshAndGet(ctx context.Context, doc *document.Document) T {
	c.store.DeleteExpired()
	c.seq++

	key := document.NormalizeURI(doc.URI)
	now := time.Now()

	if v, ok := c.store.Get(key); ok {
		e := v.(*entry[T])
		e.seq = c.seq
		e.lastAccess = now

		if e.version == doc.Version && e.languageID == doc.LanguageID {
			c.store.SetDefault(key, e)
			zerolog.Ctx(ctx).Trace().Str("cache", c.name).Str("uri", key).Int32("version", doc.Version).Msg("cache hit")
			return e.value
		}

		zerolog.Ctx(ctx).Debug().Str("cache", c.name).Str("uri", key).
			Int32("stored_version", e.version).Int32("version", doc.Version).Msg("cache entry stale, recomputing")

		old := e.value
		e.value = c.parse(ctx, doc)
		e.version = doc.Version
		e.languageID = doc.LanguageID
		c.store.SetDefault(key, e)
		c.release(old)
		return e.value
	}

	e := &entry[T]{
		version:    doc.Version,
		languageID: doc.LanguageID,
		value:      c.parse(ctx, doc),
		lastAccess: now,
		seq:        c.seq,
	}
	c.store.SetDefault(key, e)

	zerolog.Ctx(ctx).Debug().Str("cache", c.name).Str("uri", key).Int32("version", doc.Version).Msg("cache miss")

	for c.store.ItemCount() > c.maxEntries && c.evictOldest(ctx) {
	}

	return e.value
}

// OnDocumentRemoved drops and disposes the entry for uri.
func (c *LanguageModelCache[T]) OnDocumentRemoved(ctx context.Context, uri string) {
	c.store.Delete(document.NormalizeURI(uri))
	zerolog.Ctx(ctx).Debug().Str("cache", c.name).Str("uri", uri).Msg("cache entry removed")
}

// Dispose drops and disposes every entry.
func (c *LanguageModelCache[T]) Dispose(ctx context.Context) {
	for key := range c.store.Items() {
		c.store.Delete(key)
	}
	c.store.DeleteExpired()
	zerolog.Ctx(ctx).Debug().Str("cache", c.name).Msg("cache disposed")
}

func (c *LanguageModelCache[T]) Len() int {
	c.store.DeleteExpired()
	return c.store.ItemCount()
}

func (c *LanguageModelCache[T]) evictOldest(ctx context.Context) bool {
	var (
		oldestKey string
		oldest    *entry[T]
	)
	for key, item := range c.store.Items() {
		e := item.Object.(*entry[T])
		if oldest == nil || e.seq < oldest.seq {
			oldestKey, oldest = key, e
		}
	}
	if oldest == nil {
		return false
	}
	zerolog.Ctx(ctx).Debug().Str("cache", c.name).Str("uri", oldestKey).Time("last_access", oldest.lastAccess).Msg("evicting least recently used entry")
	c.store.Delete(oldestKey)
	return true
}

func (c *LanguageModelCache[T]) release(v T) {
	if c.dispose != nil {
		c.dispose(v)
	}
}
