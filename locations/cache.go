// Package locations turns resolved gazetteer entries into durable location
// entities, creating each geoname_id at most once.
package locations

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kinodata/geocode"
)

// Sink is the persistence layer location entities are written to.
type Sink interface {
	// FindLocationByGeonameID returns the entity id stored for geonameID.
	FindLocationByGeonameID(ctx context.Context, geonameID int64) (id int64, found bool, err error)
	// CreateLocation stores the entity and location rows atomically and
	// returns the new entity id.
	CreateLocation(ctx context.Context, rec LocationRecord) (int64, error)
}

// Memo remembers geoname_id → entity id assignments.
type Memo interface {
	Get(ctx context.Context, geonameID int64) (id int64, found bool, err error)
	Put(ctx context.Context, geonameID, id int64) error
}

// MapMemo is the in-process Memo. It lives for one load job.
type MapMemo struct {
	mu  sync.RWMutex
	ids map[int64]int64
}

// NewMapMemo returns an empty MapMemo.
func NewMapMemo() *MapMemo {
	return &MapMemo{ids: make(map[int64]int64)}
}

// Get implements Memo.
func (m *MapMemo) Get(_ context.Context, geonameID int64) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.ids[geonameID]
	return id, ok, nil
}

// Put implements Memo.
func (m *MapMemo) Put(_ context.Context, geonameID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[geonameID] = id
	return nil
}

// Len returns the number of remembered ids.
func (m *MapMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Stats counts where GetOrCreate found its answers.
type Stats struct {
	MemoHits int64
	SinkHits int64
	Created  int64
}

// Cache is the get-or-create front of a Sink. Without WithLocking it must
// only be used from a single goroutine.
type Cache struct {
	sink   Sink
	memo   *MapMemo
	shared Memo // optional second memo, e.g. Redis
	locks  *keyedMutex
	log    *zap.Logger

	statsMu sync.Mutex
	stats   Stats
}

// Option configures a Cache.
type Option func(*Cache)

// WithSharedMemo adds a memo consulted after the in-process one, typically
// a RedisMemo shared between runs.
func WithSharedMemo(m Memo) Option {
	return func(c *Cache) {
		c.shared = m
	}
}

// WithLocking serializes GetOrCreate per geoname_id so several goroutines
// can share the cache without inserting duplicates.
func WithLocking() Option {
	return func(c *Cache) {
		c.locks = newKeyedMutex()
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCache returns an empty run-scoped cache over sink.
func NewCache(sink Sink, opts ...Option) *Cache {
	c := &Cache{
		sink: sink,
		memo: NewMapMemo(),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the entity id for the entry's geoname_id, creating the
// entity and location rows on first sight. Sink errors are returned as is.
func (c *Cache) GetOrCreate(ctx context.Context, e geocode.PlaceEntry) (int64, error) {
	if c.locks != nil {
		unlock := c.locks.lock(e.GeonameID)
		defer unlock()
	}

	if id, ok, _ := c.memo.Get(ctx, e.GeonameID); ok {
		c.count(func(s *Stats) { s.MemoHits++ })
		return id, nil
	}

	if c.shared != nil {
		id, ok, err := c.shared.Get(ctx, e.GeonameID)
		if err != nil {
			c.log.Warn("Shared memo lookup failed", zap.Int64("geoname_id", e.GeonameID), zap.Error(err))
		} else if ok {
			c.remember(ctx, e.GeonameID, id, false)
			c.count(func(s *Stats) { s.MemoHits++ })
			return id, nil
		}
	}

	id, found, err := c.sink.FindLocationByGeonameID(ctx, e.GeonameID)
	if err != nil {
		return 0, fmt.Errorf("finding location %d: %w", e.GeonameID, err)
	}
	if found {
		c.remember(ctx, e.GeonameID, id, true)
		c.count(func(s *Stats) { s.SinkHits++ })
		return id, nil
	}

	rec, err := NewLocationRecord(e)
	if err != nil {
		return 0, err
	}
	id, err = c.sink.CreateLocation(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("creating location %d: %w", e.GeonameID, err)
	}
	c.log.Debug("Created location",
		zap.Int64("geoname_id", e.GeonameID),
		zap.String("name", rec.DisplayName),
		zap.Int64("entity_id", id))

	c.remember(ctx, e.GeonameID, id, true)
	c.count(func(s *Stats) { s.Created++ })
	return id, nil
}

// Len returns the number of geoname_ids resolved during this run.
func (c *Cache) Len() int {
	return c.memo.Len()
}

// Stats returns a snapshot of the hit counters.
func (c *Cache) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *Cache) remember(ctx context.Context, geonameID, id int64, shared bool) {
	// MapMemo never fails.
	_ = c.memo.Put(ctx, geonameID, id)
	if shared && c.shared != nil {
		if err := c.shared.Put(ctx, geonameID, id); err != nil {
			c.log.Warn("Shared memo store failed", zap.Int64("geoname_id", geonameID), zap.Error(err))
		}
	}
}

func (c *Cache) count(f func(*Stats)) {
	c.statsMu.Lock()
	f(&c.stats)
	c.statsMu.Unlock()
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refMutex)}
}

func (k *keyedMutex) lock(key int64) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
