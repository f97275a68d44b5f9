package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-gnap/core"
)

// DefaultTTL bounds the lifetime of every cached entry.
const DefaultTTL = 3600 * time.Second

// SingletonID is the document id under which singleton entities are
// stored in the durable store.
const SingletonID = "singleton"

// CacheEntity is the shape an entity must expose to be cache-addressable.
// CachePrefix is a fixed string per entity type; CacheID is the entity's
// identifier, empty for singletons.
type CacheEntity interface {
	CachePrefix() string
	CacheID() string
}

// CacheAside is the generic read-through/write-through repository over one
// entity type. Concurrent miss-then-populate races are tolerated: both
// writers produce value-identical entries and the store stays
// authoritative.
type CacheAside[E CacheEntity] struct {
	store      core.EntityStore
	cache      core.ExpiringCache
	collection string
	ttl        time.Duration
	logger     core.Logger
	synthesize func() E
}

type CacheAsideOption[E CacheEntity] func(*CacheAside[E])

func WithTTL[E CacheEntity](ttl time.Duration) CacheAsideOption[E] {
	return func(r *CacheAside[E]) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithLogger[E CacheEntity](logger core.Logger) CacheAsideOption[E] {
	return func(r *CacheAside[E]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDefaultFactory installs the synthesizer GetSingleton falls back to
// when the store holds no instance.
func WithDefaultFactory[E CacheEntity](factory func() E) CacheAsideOption[E] {
	return func(r *CacheAside[E]) {
		r.synthesize = factory
	}
}

func NewCacheAside[E CacheEntity](
	store core.EntityStore,
	cache core.ExpiringCache,
	collection string,
	opts ...CacheAsideOption[E],
) *CacheAside[E] {
	repo := &CacheAside[E]{
		store:      store,
		cache:      cache,
		collection: collection,
		ttl:        DefaultTTL,
		logger:     glog.Nop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(repo)
	}
	return repo
}

// Get reads an entity by id, cache first. A cache hit that fails to
// decode is corruption, never a miss. A store hit repopulates the cache
// before returning; populate failures on this path propagate.
func (r *CacheAside[E]) Get(ctx context.Context, id string) (E, error) {
	var zero E
	if r == nil || r.store == nil {
		return zero, core.NewStoreError("repository: entity store is not configured", nil)
	}

	key := r.cacheKey(id)
	if r.cache != nil {
		data, found, err := r.cache.Get(ctx, key)
		if err != nil {
			return zero, core.NewCacheError(fmt.Sprintf("repository: cache read failed for %s", key), err)
		}
		if found {
			entity, decodeErr := decodeEntity[E](data)
			if decodeErr != nil {
				return zero, core.NewCacheCorruptionError(
					fmt.Sprintf("repository: cached entry for %s does not decode", key), decodeErr)
			}
			return entity, nil
		}
	}

	data, found, err := r.store.FindByID(ctx, r.collection, id)
	if err != nil {
		return zero, core.NewStoreError(
			fmt.Sprintf("repository: store read failed for %s/%s", r.collection, id), err)
	}
	if !found {
		return zero, core.NewNotFoundError(
			fmt.Sprintf("repository: %s %s not found", r.collection, id))
	}
	entity, decodeErr := decodeEntity[E](data)
	if decodeErr != nil {
		return zero, core.NewStoreError(
			fmt.Sprintf("repository: stored %s/%s does not decode", r.collection, id), decodeErr)
	}

	if err := r.populate(ctx, key, data); err != nil {
		return zero, err
	}
	return entity, nil
}

// Put writes an entity to the store, then mirrors it to the cache. The
// cache mirror is best-effort: a failure after a successful store write is
// logged and swallowed, the next Get repopulates.
func (r *CacheAside[E]) Put(ctx context.Context, entity E) error {
	if r == nil || r.store == nil {
		return core.NewStoreError("repository: entity store is not configured", nil)
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return core.NewStoreError(
			fmt.Sprintf("repository: %s entity does not encode", r.collection), err)
	}
	id := entity.CacheID()
	storeID := id
	if storeID == "" {
		storeID = SingletonID
	}
	if err := r.store.Insert(ctx, r.collection, storeID, data); err != nil {
		return core.NewStoreError(
			fmt.Sprintf("repository: store write failed for %s/%s", r.collection, storeID), err)
	}

	if r.cache != nil {
		key := r.cacheKey(id)
		if cacheErr := r.cache.SetWithTTL(ctx, key, data, r.ttl); cacheErr != nil {
			r.logCacheWriteFailure(ctx, key, cacheErr)
		}
	}
	return nil
}

// GetSingleton reads the one logical instance of the entity type. Store
// absence is not a miss: the default is synthesized, persisted, and
// returned.
func (r *CacheAside[E]) GetSingleton(ctx context.Context) (E, error) {
	var zero E
	if r == nil || r.store == nil {
		return zero, core.NewStoreError("repository: entity store is not configured", nil)
	}

	key := r.cacheKey("")
	if r.cache != nil {
		data, found, err := r.cache.Get(ctx, key)
		if err != nil {
			return zero, core.NewCacheError(fmt.Sprintf("repository: cache read failed for %s", key), err)
		}
		if found {
			entity, decodeErr := decodeEntity[E](data)
			if decodeErr != nil {
				return zero, core.NewCacheCorruptionError(
					fmt.Sprintf("repository: cached entry for %s does not decode", key), decodeErr)
			}
			return entity, nil
		}
	}

	data, found, err := r.store.FindSingleton(ctx, r.collection)
	if err != nil {
		return zero, core.NewStoreError(
			fmt.Sprintf("repository: store read failed for %s singleton", r.collection), err)
	}
	if found {
		entity, decodeErr := decodeEntity[E](data)
		if decodeErr != nil {
			return zero, core.NewStoreError(
				fmt.Sprintf("repository: stored %s singleton does not decode", r.collection), decodeErr)
		}
		if err := r.populate(ctx, key, data); err != nil {
			return zero, err
		}
		return entity, nil
	}

	if r.synthesize == nil {
		return zero, core.NewNotFoundError(
			fmt.Sprintf("repository: %s singleton not found and no default is configured", r.collection))
	}
	entity := r.synthesize()
	if err := r.Put(ctx, entity); err != nil {
		return zero, err
	}
	return entity, nil
}

func (r *CacheAside[E]) populate(ctx context.Context, key string, data []byte) error {
	if r.cache == nil {
		return nil
	}
	if err := r.cache.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		return core.NewCacheError(fmt.Sprintf("repository: cache populate failed for %s", key), err)
	}
	return nil
}

func (r *CacheAside[E]) cacheKey(id string) string {
	var zero E
	prefix := zero.CachePrefix()
	if id == "" {
		return prefix
	}
	return prefix + ":" + id
}

func (r *CacheAside[E]) logCacheWriteFailure(ctx context.Context, key string, err error) {
	if r == nil || r.logger == nil || err == nil {
		return
	}
	logger := r.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Warn("cache mirror write failed", "key", key, "error", err.Error())
}

func decodeEntity[E CacheEntity](data []byte) (E, error) {
	var entity E
	if err := json.Unmarshal(data, &entity); err != nil {
		var zero E
		return zero, err
	}
	return entity, nil
}
