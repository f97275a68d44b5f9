// Package gnap re-exports the grant negotiation core so downstream
// composition only needs the module root.
package gnap

import "github.com/goliatone/go-gnap/core"

type Config = core.Config

type CacheConfig = core.CacheConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type RepositoryProvider = core.RepositoryProvider
type EntityStore = core.EntityStore
type ExpiringCache = core.ExpiringCache
type ValidationHook = core.ValidationHook
type ValidationHookFunc = core.ValidationHookFunc
type JobEnqueuer = core.JobEnqueuer
type JobDequeuer = core.JobDequeuer
type GrantService = core.GrantService

type GrantRequest = core.GrantRequest
type GrantResponse = core.GrantResponse
type GnapTransaction = core.GnapTransaction
type TransactionState = core.TransactionState
type Client = core.Client
type ClientRegistrationRequest = core.ClientRegistrationRequest
type Account = core.Account
type AccountRequest = core.AccountRequest
type TransactionOptions = core.TransactionOptions
type ServiceOptions = core.ServiceOptions

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorFactory       = core.WithErrorFactory
	WithErrorMapper        = core.WithErrorMapper
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithRepositoryProvider = core.WithRepositoryProvider
	WithValidationHook     = core.WithValidationHook
	WithSweepEnqueuer      = core.WithSweepEnqueuer
	WithInstanceIDFactory  = core.WithInstanceIDFactory
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
