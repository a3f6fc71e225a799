package neighborhood

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"
)

// Static defaults.  A scheduled run touches the same few dozen neighborhoods
// for thousands of recipients, so a small cache removes nearly all repeat
// lookups.
const (
	IdleTTL       = 30 * time.Minute
	EvictInterval = 5 * time.Minute
)

// Cache lazily loads neighborhoods (with their expanded content IDs), stores
// them in a sync.Map, and evicts them on idle TTL.  Safe for concurrent use
// by the per-recipient workers.
type Cache struct {
	db          *sqlx.DB
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	idleTTL     time.Duration
	done        chan struct{}
}

// Entry pairs a neighborhood row with its pre-expanded content IDs.
type Entry struct {
	Record     *Record
	ContentIDs []uint64
}

type cacheSlot struct {
	entry    *Entry
	lastSeen int64 // UnixNano, updated on every hit
}

// NewCache constructs a Cache and starts the background evictor.
func NewCache(db *sqlx.DB) *Cache {
	c := &Cache{
		db:      db,
		idleTTL: IdleTTL,
		done:    make(chan struct{}),
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the Entry for id, loading it on demand.
func (c *Cache) Get(ctx context.Context, id uint64) (*Entry, error) {
	if v, ok := c.m.Load(id); ok {
		slot := v.(*cacheSlot)
		atomic.StoreInt64(&slot.lastSeen, time.Now().UnixNano())
		return slot.entry, nil
	}

	v, err, _ := c.sfg.Do(cacheKey(id), func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(id); ok {
			slot := v.(*cacheSlot)
			atomic.StoreInt64(&slot.lastSeen, time.Now().UnixNano())
			return slot.entry, nil
		}
		rec, err := ByID(ctx, c.db, id)
		if err != nil {
			return nil, err
		}
		ids, err := ContentIDs(ctx, c.db, rec)
		if err != nil {
			return nil, err
		}
		ent := &Entry{Record: rec, ContentIDs: ids}
		c.m.Store(id, &cacheSlot{entry: ent, lastSeen: time.Now().UnixNano()})
		return ent, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Close stops the background evictor.
func (c *Cache) Close() {
	c.evictTicker.Stop()
	close(c.done)
}

func (c *Cache) evictLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.evictTicker.C:
		}
		cutoff := time.Now().Add(-c.idleTTL).UnixNano()
		c.m.Range(func(key, v any) bool {
			if atomic.LoadInt64(&v.(*cacheSlot).lastSeen) < cutoff {
				c.m.Delete(key)
			}
			return true
		})
	}
}

// singleflight keys are strings.
func cacheKey(id uint64) string { return strconv.FormatUint(id, 10) }
