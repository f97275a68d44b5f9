package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-gnap/core"
)

// ProviderConfig wires one store/cache pair into the full set of
// per-entity repositories. GrantEndpoint and BaseURL seed the singleton
// defaults synthesized when the store is empty.
type ProviderConfig struct {
	Store         core.EntityStore
	Cache         core.ExpiringCache
	TTL           time.Duration
	Logger        core.Logger
	GrantEndpoint string
	BaseURL       string
}

// Provider bundles the per-entity cache-aside repositories behind the
// narrow interfaces the negotiation engine consumes.
type Provider struct {
	clients        *CacheAside[core.Client]
	accounts       *CacheAside[core.Account]
	transactions   *CacheAside[core.GnapTransaction]
	txOptions      *CacheAside[core.TransactionOptions]
	serviceOptions *CacheAside[core.ServiceOptions]
}

func NewProvider(cfg ProviderConfig) *Provider {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	grantEndpoint := cfg.GrantEndpoint
	baseURL := cfg.BaseURL

	return &Provider{
		clients: NewCacheAside[core.Client](cfg.Store, cfg.Cache, core.CollectionClients,
			WithTTL[core.Client](ttl),
			WithLogger[core.Client](cfg.Logger),
		),
		accounts: NewCacheAside[core.Account](cfg.Store, cfg.Cache, core.CollectionAccounts,
			WithTTL[core.Account](ttl),
			WithLogger[core.Account](cfg.Logger),
		),
		transactions: NewCacheAside[core.GnapTransaction](cfg.Store, cfg.Cache, core.CollectionTransactions,
			WithTTL[core.GnapTransaction](ttl),
			WithLogger[core.GnapTransaction](cfg.Logger),
		),
		txOptions: NewCacheAside[core.TransactionOptions](cfg.Store, cfg.Cache, core.CollectionTransactionOptions,
			WithTTL[core.TransactionOptions](ttl),
			WithLogger[core.TransactionOptions](cfg.Logger),
			WithDefaultFactory[core.TransactionOptions](func() core.TransactionOptions {
				return core.DefaultTransactionOptions(grantEndpoint)
			}),
		),
		serviceOptions: NewCacheAside[core.ServiceOptions](cfg.Store, cfg.Cache, core.CollectionServiceConfig,
			WithTTL[core.ServiceOptions](ttl),
			WithLogger[core.ServiceOptions](cfg.Logger),
			WithDefaultFactory[core.ServiceOptions](func() core.ServiceOptions {
				return core.DefaultServiceOptions(baseURL)
			}),
		),
	}
}

func (p *Provider) Clients() core.ClientRepository {
	return clientRepository{repo: p.clients}
}

func (p *Provider) Accounts() core.AccountRepository {
	return accountRepository{repo: p.accounts}
}

func (p *Provider) Transactions() core.TransactionRepository {
	return transactionRepository{repo: p.transactions}
}

func (p *Provider) TransactionOptions() core.TransactionOptionsRepository {
	return transactionOptionsRepository{repo: p.txOptions}
}

func (p *Provider) ServiceOptions() core.ServiceOptionsRepository {
	return serviceOptionsRepository{repo: p.serviceOptions}
}

type clientRepository struct {
	repo *CacheAside[core.Client]
}

func (r clientRepository) Get(ctx context.Context, id string) (*core.Client, error) {
	client, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r clientRepository) Put(ctx context.Context, client *core.Client) error {
	if client == nil {
		return core.NewBadDataError("repository: client is required")
	}
	return r.repo.Put(ctx, *client)
}

type accountRepository struct {
	repo *CacheAside[core.Account]
}

func (r accountRepository) Get(ctx context.Context, id string) (*core.Account, error) {
	account, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r accountRepository) Put(ctx context.Context, account *core.Account) error {
	if account == nil {
		return core.NewBadDataError("repository: account is required")
	}
	return r.repo.Put(ctx, *account)
}

type transactionRepository struct {
	repo *CacheAside[core.GnapTransaction]
}

func (r transactionRepository) Get(ctx context.Context, id string) (*core.GnapTransaction, error) {
	tx, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r transactionRepository) Put(ctx context.Context, tx *core.GnapTransaction) error {
	if tx == nil {
		return core.NewBadDataError("repository: transaction is required")
	}
	return r.repo.Put(ctx, *tx)
}

type transactionOptionsRepository struct {
	repo *CacheAside[core.TransactionOptions]
}

func (r transactionOptionsRepository) GetSingleton(ctx context.Context) (*core.TransactionOptions, error) {
	options, err := r.repo.GetSingleton(ctx)
	if err != nil {
		return nil, err
	}
	return &options, nil
}

type serviceOptionsRepository struct {
	repo *CacheAside[core.ServiceOptions]
}

func (r serviceOptionsRepository) GetSingleton(ctx context.Context) (*core.ServiceOptions, error) {
	options, err := r.repo.GetSingleton(ctx)
	if err != nil {
		return nil, err
	}
	return &options, nil
}

var _ core.RepositoryProvider = (*Provider)(nil)
