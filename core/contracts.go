package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// EntityStore is the authoritative persistence surface. Values are opaque
// JSON documents keyed by collection and document id; the store never
// interprets them.
type EntityStore interface {
	FindByID(ctx context.Context, collection string, id string) (data []byte, found bool, err error)
	FindSingleton(ctx context.Context, collection string) (data []byte, found bool, err error)
	Insert(ctx context.Context, collection string, id string, data []byte) error
	Delete(ctx context.Context, collection string, id string) error
}

// ExpiringCache is the fast lookup layer in front of an EntityStore.
// Every write carries a TTL; the cache is never authoritative.
type ExpiringCache interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	SetWithTTL(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

type ClientRepository interface {
	Get(ctx context.Context, id string) (*Client, error)
	Put(ctx context.Context, client *Client) error
}

type AccountRepository interface {
	Get(ctx context.Context, id string) (*Account, error)
	Put(ctx context.Context, account *Account) error
}

type TransactionRepository interface {
	Get(ctx context.Context, id string) (*GnapTransaction, error)
	Put(ctx context.Context, tx *GnapTransaction) error
}

type TransactionOptionsRepository interface {
	GetSingleton(ctx context.Context) (*TransactionOptions, error)
}

type ServiceOptionsRepository interface {
	GetSingleton(ctx context.Context) (*ServiceOptions, error)
}

// RepositoryProvider bundles the per-entity repositories the service
// negotiates against.
type RepositoryProvider interface {
	Clients() ClientRepository
	Accounts() AccountRepository
	Transactions() TransactionRepository
	TransactionOptions() TransactionOptionsRepository
	ServiceOptions() ServiceOptionsRepository
}

// ValidationHook runs after a grant request decodes cleanly and before a
// transaction is created. Implementations reject with a bad data error.
type ValidationHook interface {
	ValidateGrantRequest(ctx context.Context, req *GrantRequest) error
}

type ValidationHookFunc func(ctx context.Context, req *GrantRequest) error

func (f ValidationHookFunc) ValidateGrantRequest(ctx context.Context, req *GrantRequest) error {
	return f(ctx, req)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type JobExecutionMessage struct {
	JobID          string
	Kind           string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type CommandMessage interface {
	Type() string
}

type CommandDispatcher interface {
	Dispatch(ctx context.Context, msg any) error
}

// GrantService is the negotiation engine surface consumed by transports
// and command handlers.
type GrantService interface {
	Negotiate(ctx context.Context, req *GrantRequest) (*GrantResponse, error)
	Options(ctx context.Context) (*TransactionOptions, error)
	WellKnown(ctx context.Context) (*ServiceOptions, error)
	RegisterClient(ctx context.Context, req *ClientRegistrationRequest) (*Client, error)
	GetClient(ctx context.Context, ref string) (*Client, error)
	RegisterAccount(ctx context.Context, req *AccountRequest) (*Account, error)
	GetAccount(ctx context.Context, ref string) (*Account, error)
	GetTransaction(ctx context.Context, txID string) (*GnapTransaction, error)
	AdvanceTransaction(ctx context.Context, txID string, next TransactionState) (*GnapTransaction, error)
}
