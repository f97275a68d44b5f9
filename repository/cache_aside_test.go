package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-gnap/core"
)

type spyStore struct {
	findCalls      int
	singletonCalls int
	insertCalls    int
	docs           map[string][]byte
	findErr        error
	insertErr      error
}

func newSpyStore() *spyStore {
	return &spyStore{docs: map[string][]byte{}}
}

func (s *spyStore) key(collection, id string) string {
	return collection + "/" + id
}

func (s *spyStore) FindByID(_ context.Context, collection, id string) ([]byte, bool, error) {
	s.findCalls++
	if s.findErr != nil {
		return nil, false, s.findErr
	}
	data, ok := s.docs[s.key(collection, id)]
	return data, ok, nil
}

func (s *spyStore) FindSingleton(_ context.Context, collection string) ([]byte, bool, error) {
	s.singletonCalls++
	if s.findErr != nil {
		return nil, false, s.findErr
	}
	data, ok := s.docs[s.key(collection, SingletonID)]
	return data, ok, nil
}

func (s *spyStore) Insert(_ context.Context, collection, id string, data []byte) error {
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	s.docs[s.key(collection, id)] = data
	return nil
}

func (s *spyStore) Delete(_ context.Context, collection, id string) error {
	delete(s.docs, s.key(collection, id))
	return nil
}

type spyCache struct {
	getCalls int
	setCalls int
	entries  map[string][]byte
	getErr   error
	setErr   error
}

func newSpyCache() *spyCache {
	return &spyCache{entries: map[string][]byte{}}
}

func (c *spyCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.getCalls++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *spyCache) SetWithTTL(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.setCalls++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = data
	return nil
}

func (c *spyCache) clear() {
	c.entries = map[string][]byte{}
}

func newClientRepo(store core.EntityStore, cache core.ExpiringCache) *CacheAside[core.Client] {
	return NewCacheAside[core.Client](store, cache, core.CollectionClients)
}

func sampleClient() core.Client {
	return core.NewClient(core.ClientRegistrationRequest{
		RedirectURIs: []string{"https://client.example.com/cb"},
		ClientName:   "acme",
	})
}

func TestCacheAside_PutThenGetRoundTrip(t *testing.T) {
	store := newSpyStore()
	cache := newSpyCache()
	repo := newClientRepo(store, cache)
	ctx := context.Background()

	client := sampleClient()
	if err := repo.Put(ctx, client); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// served from cache
	got, err := repo.Get(ctx, client.ClientID)
	if err != nil {
		t.Fatalf("Get (cache): %v", err)
	}
	if !reflect.DeepEqual(got, client) {
		t.Fatalf("cache round trip mismatch: %+v vs %+v", got, client)
	}
	if store.findCalls != 0 {
		t.Fatalf("cache hit must not reach the store, got %d reads", store.findCalls)
	}

	// served from store
	cache.clear()
	got, err = repo.Get(ctx, client.ClientID)
	if err != nil {
		t.Fatalf("Get (store): %v", err)
	}
	if !reflect.DeepEqual(got, client) {
		t.Fatalf("store round trip mismatch: %+v vs %+v", got, client)
	}
	if store.findCalls != 1 {
		t.Fatalf("expected one store read after cache clear, got %d", store.findCalls)
	}
}

func TestCacheAside_MissPopulatesCache(t *testing.T) {
	store := newSpyStore()
	cache := newSpyCache()
	repo := newClientRepo(store, cache)
	ctx := context.Background()

	client := sampleClient()
	data, _ := json.Marshal(client)
	store.docs[store.key(core.CollectionClients, client.ClientID)] = data

	if _, err := repo.Get(ctx, client.ClientID); err != nil {
		t.Fatalf("Get (miss): %v", err)
	}
	if store.findCalls != 1 {
		t.Fatalf("expected one store read, got %d", store.findCalls)
	}

	if _, err := repo.Get(ctx, client.ClientID); err != nil {
		t.Fatalf("Get (populated): %v", err)
	}
	if store.findCalls != 1 {
		t.Fatalf("populated cache must suppress the store, got %d reads", store.findCalls)
	}
}

func TestCacheAside_GetNotFound(t *testing.T) {
	repo := newClientRepo(newSpyStore(), newSpyCache())

	_, err := repo.Get(context.Background(), "missing")
	if !core.IsNotFound(err) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestCacheAside_CorruptCacheHitSurfaced(t *testing.T) {
	store := newSpyStore()
	cache := newSpyCache()
	repo := newClientRepo(store, cache)
	ctx := context.Background()

	client := sampleClient()
	data, _ := json.Marshal(client)
	store.docs[store.key(core.CollectionClients, client.ClientID)] = data
	cache.entries[core.CachePrefixClients+":"+client.ClientID] = []byte("{not json")

	_, err := repo.Get(ctx, client.ClientID)
	if !core.IsCacheCorruption(err) {
		t.Fatalf("expected corruption error, got: %v", err)
	}
	if store.findCalls != 0 {
		t.Fatalf("corruption must not fall through to the store")
	}
}

func TestCacheAside_PutSwallowsCacheFailure(t *testing.T) {
	store := newSpyStore()
	cache := newSpyCache()
	cache.setErr = fmt.Errorf("cache down")
	repo := newClientRepo(store, cache)
	ctx := context.Background()

	client := sampleClient()
	if err := repo.Put(ctx, client); err != nil {
		t.Fatalf("expected best-effort cache mirror, got: %v", err)
	}
	if store.insertCalls != 1 {
		t.Fatalf("expected store write, got %d", store.insertCalls)
	}

	// next read repopulates from the store
	cache.setErr = nil
	got, err := repo.Get(ctx, client.ClientID)
	if err != nil {
		t.Fatalf("Get after failed mirror: %v", err)
	}
	if got.ClientID != client.ClientID {
		t.Fatalf("unexpected client %q", got.ClientID)
	}
}

func TestCacheAside_ReadPathPopulateFailurePropagates(t *testing.T) {
	store := newSpyStore()
	cache := newSpyCache()
	cache.setErr = fmt.Errorf("cache down")
	repo := newClientRepo(store, cache)
	ctx := context.Background()

	client := sampleClient()
	data, _ := json.Marshal(client)
	store.docs[store.key(core.CollectionClients, client.ClientID)] = data

	_, err := repo.Get(ctx, client.ClientID)
	if err == nil {
		t.Fatalf("expected populate failure on the read path to propagate")
	}
}

func TestCacheAside_CacheReadFailureSurfaced(t *testing.T) {
	store := newSpyStore()
	cache := newSpyCache()
	cache.getErr = fmt.Errorf("cache down")
	repo := newClientRepo(store, cache)

	_, err := repo.Get(context.Background(), "any")
	if err == nil {
		t.Fatalf("expected cache read failure to surface")
	}
	if core.IsNotFound(err) {
		t.Fatalf("cache failure must not masquerade as a miss")
	}
}

func TestCacheAside_SingletonSynthesizedOnce(t *testing.T) {
	store := newSpyStore()
	cache := newSpyCache()
	repo := NewCacheAside[core.TransactionOptions](store, cache, core.CollectionTransactionOptions,
		WithDefaultFactory[core.TransactionOptions](func() core.TransactionOptions {
			return core.DefaultTransactionOptions("http://as.example.com/gnap/tx")
		}),
	)
	ctx := context.Background()

	first, err := repo.GetSingleton(ctx)
	if err != nil {
		t.Fatalf("GetSingleton (empty store): %v", err)
	}
	second, err := repo.GetSingleton(ctx)
	if err != nil {
		t.Fatalf("GetSingleton (populated): %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("singleton synthesis must be idempotent: %+v vs %+v", first, second)
	}
	if store.insertCalls != 1 {
		t.Fatalf("expected at most one synthesis insert, got %d", store.insertCalls)
	}
}

func TestCacheAside_SingletonCachedAtBarePrefix(t *testing.T) {
	store := newSpyStore()
	cache := newSpyCache()
	repo := NewCacheAside[core.TransactionOptions](store, cache, core.CollectionTransactionOptions,
		WithDefaultFactory[core.TransactionOptions](func() core.TransactionOptions {
			return core.DefaultTransactionOptions("http://as.example.com/gnap/tx")
		}),
	)

	if _, err := repo.GetSingleton(context.Background()); err != nil {
		t.Fatalf("GetSingleton: %v", err)
	}
	if _, ok := cache.entries[core.CachePrefixTransactionOptions]; !ok {
		t.Fatalf("expected singleton cached under bare prefix, entries: %v", cache.entries)
	}
}

func TestCacheAside_SingletonWithoutFactoryIsNotFound(t *testing.T) {
	repo := NewCacheAside[core.ServiceOptions](newSpyStore(), newSpyCache(), core.CollectionServiceConfig)

	_, err := repo.GetSingleton(context.Background())
	if !core.IsNotFound(err) {
		t.Fatalf("expected not found without a default factory, got: %v", err)
	}
}

func TestProvider_WiresAllRepositories(t *testing.T) {
	store := newSpyStore()
	cache := newSpyCache()
	provider := NewProvider(ProviderConfig{
		Store:         store,
		Cache:         cache,
		GrantEndpoint: "http://as.example.com/gnap/tx",
		BaseURL:       "http://as.example.com",
	})
	ctx := context.Background()

	client := sampleClient()
	if err := provider.Clients().Put(ctx, &client); err != nil {
		t.Fatalf("Clients.Put: %v", err)
	}
	got, err := provider.Clients().Get(ctx, client.ClientID)
	if err != nil {
		t.Fatalf("Clients.Get: %v", err)
	}
	if got.ClientID != client.ClientID {
		t.Fatalf("unexpected client %q", got.ClientID)
	}

	options, err := provider.TransactionOptions().GetSingleton(ctx)
	if err != nil {
		t.Fatalf("TransactionOptions.GetSingleton: %v", err)
	}
	if options.GrantRequestEndpoint != "http://as.example.com/gnap/tx" {
		t.Fatalf("unexpected grant endpoint %q", options.GrantRequestEndpoint)
	}

	wellKnown, err := provider.ServiceOptions().GetSingleton(ctx)
	if err != nil {
		t.Fatalf("ServiceOptions.GetSingleton: %v", err)
	}
	if wellKnown.GrantRequestEndpoint == "" {
		t.Fatalf("expected synthesized discovery document")
	}

	tx := core.NewTransaction(&core.GrantRequest{Client: client.ClientID})
	if err := provider.Transactions().Put(ctx, &tx); err != nil {
		t.Fatalf("Transactions.Put: %v", err)
	}
	gotTx, err := provider.Transactions().Get(ctx, tx.TxID)
	if err != nil {
		t.Fatalf("Transactions.Get: %v", err)
	}
	if gotTx.State != core.TransactionStateReceived {
		t.Fatalf("unexpected state %q", gotTx.State)
	}
}
