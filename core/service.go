package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service is the transaction negotiation engine. It owns the transaction
// state machine and is the only component the transport layer invokes.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	repositories      RepositoryProvider
	validationHook    ValidationHook
	sweepEnqueuer     JobEnqueuer
	instanceIDFactory func() string
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	Repositories      RepositoryProvider
	ValidationHook    ValidationHook
	SweepEnqueuer     JobEnqueuer
	InstanceIDFactory func() string
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("gnap", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("gnap"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.validationHook == nil {
		builder.validationHook = ValidationHookFunc(func(context.Context, *GrantRequest) error { return nil })
	}
	if builder.instanceIDFactory == nil {
		builder.instanceIDFactory = NewTransactionID
	}
	if builder.repositories == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: repository provider is required"))
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		repositories:      builder.repositories,
		validationHook:    builder.validationHook,
		sweepEnqueuer:     builder.sweepEnqueuer,
		instanceIDFactory: builder.instanceIDFactory,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		Repositories:      s.repositories,
		ValidationHook:    s.validationHook,
		SweepEnqueuer:     s.sweepEnqueuer,
		InstanceIDFactory: s.instanceIDFactory,
	}
}

// Negotiate turns an inbound grant request into an open transaction and
// its interaction response. The request's ownership transfers to the
// transaction; callers must not reuse it afterwards.
func (s *Service) Negotiate(ctx context.Context, req *GrantRequest) (response *GrantResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "negotiate", err, fields)
	}()

	if s == nil || s.repositories == nil {
		err = NewStoreError("core: negotiation service is not configured", nil)
		return nil, err
	}
	if req == nil {
		err = NewBadDataError("core: grant request is required")
		return nil, err
	}
	if strings.TrimSpace(req.Client) == "" {
		err = NewBadDataError("core: missing client reference")
		return nil, err
	}

	client, err := s.ResolveClient(ctx, req.Client)
	if err != nil {
		return nil, err
	}
	fields["client_id"] = client.ClientID

	if err = s.validationHook.ValidateGrantRequest(ctx, req); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	tx := GnapTransaction{
		TxID:    s.instanceIDFactory(),
		State:   TransactionStateReceived,
		Request: req,
	}
	fields["tx_id"] = tx.TxID

	if err = s.repositories.Transactions().Put(ctx, &tx); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	interact := s.computeInteraction(&tx)
	return &GrantResponse{
		InstanceID: tx.TxID,
		Interact:   interact,
	}, nil
}

// computeInteraction builds the continuation handle and applies the
// requested start modes in client order. Only redirect alters the
// response; app and user_code are accepted but reserved.
func (s *Service) computeInteraction(tx *GnapTransaction) *InteractResponse {
	continuation := s.ContinuationURI(tx.TxID)
	interact := &InteractResponse{
		Continue: ContinuationForURI(continuation),
	}
	if tx.Request == nil || tx.Request.Interact == nil {
		return interact
	}
	for _, mode := range tx.Request.Interact.Start {
		switch mode {
		case InteractStartModeRedirect:
			interact.Redirect = continuation
		case InteractStartModeApp, InteractStartModeUserCode:
			// reserved start modes, no continuation side effect
		}
	}
	return interact
}

// ContinuationURI derives the continuation endpoint for a transaction.
func (s *Service) ContinuationURI(txID string) string {
	if s == nil {
		return ""
	}
	return strings.TrimRight(s.config.GrantEndpoint, "/") + "/" + txID
}

// Options returns the advertised grant endpoint capabilities, synthesizing
// and persisting the default descriptor when the store holds none.
func (s *Service) Options(ctx context.Context) (options *TransactionOptions, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "transaction_options", err, nil)
	}()

	if s == nil || s.repositories == nil {
		err = NewStoreError("core: negotiation service is not configured", nil)
		return nil, err
	}
	options, err = s.repositories.TransactionOptions().GetSingleton(ctx)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return options, nil
}

// WellKnown returns the service discovery document.
func (s *Service) WellKnown(ctx context.Context) (options *ServiceOptions, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "well_known", err, nil)
	}()

	if s == nil || s.repositories == nil {
		err = NewStoreError("core: negotiation service is not configured", nil)
		return nil, err
	}
	options, err = s.repositories.ServiceOptions().GetSingleton(ctx)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return options, nil
}

// ResolveClient parses an opaque client reference and loads the client it
// names. Malformed references are bad data; well formed but unregistered
// references are not found.
func (s *Service) ResolveClient(ctx context.Context, ref string) (*Client, error) {
	if s == nil || s.repositories == nil {
		return nil, NewStoreError("core: negotiation service is not configured", nil)
	}
	clientID, parseErr := ParseReference(ref)
	if parseErr != nil {
		return nil, NewBadDataError("core: malformed client reference")
	}
	client, err := s.repositories.Clients().Get(ctx, clientID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return client, nil
}

// ResolveAccount is the account counterpart of ResolveClient.
func (s *Service) ResolveAccount(ctx context.Context, ref string) (*Account, error) {
	if s == nil || s.repositories == nil {
		return nil, NewStoreError("core: negotiation service is not configured", nil)
	}
	accountID, parseErr := ParseReference(ref)
	if parseErr != nil {
		return nil, NewBadDataError("core: malformed account reference")
	}
	account, err := s.repositories.Accounts().Get(ctx, accountID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return account, nil
}

func (s *Service) RegisterClient(ctx context.Context, req *ClientRegistrationRequest) (client *Client, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "register_client", err, fields)
	}()

	if s == nil || s.repositories == nil {
		err = NewStoreError("core: negotiation service is not configured", nil)
		return nil, err
	}
	if req == nil {
		err = NewBadDataError("core: client registration request is required")
		return nil, err
	}
	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	created := NewClient(*req)
	fields["client_id"] = created.ClientID
	if err = s.repositories.Clients().Put(ctx, &created); err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return &created, nil
}

func (s *Service) GetClient(ctx context.Context, ref string) (client *Client, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "get_client", err, nil)
	}()
	return s.ResolveClient(ctx, ref)
}

func (s *Service) RegisterAccount(ctx context.Context, req *AccountRequest) (account *Account, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "register_account", err, fields)
	}()

	if s == nil || s.repositories == nil {
		err = NewStoreError("core: negotiation service is not configured", nil)
		return nil, err
	}
	if req == nil {
		err = NewBadDataError("core: account request is required")
		return nil, err
	}
	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	created := NewAccount(*req)
	fields["account_id"] = created.AccountID
	if err = s.repositories.Accounts().Put(ctx, &created); err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return &created, nil
}

func (s *Service) GetAccount(ctx context.Context, ref string) (account *Account, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "get_account", err, nil)
	}()
	return s.ResolveAccount(ctx, ref)
}

func (s *Service) GetTransaction(ctx context.Context, txID string) (tx *GnapTransaction, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "get_transaction", err, nil)
	}()

	if s == nil || s.repositories == nil {
		err = NewStoreError("core: negotiation service is not configured", nil)
		return nil, err
	}
	id, parseErr := ParseReference(txID)
	if parseErr != nil {
		err = NewBadDataError("core: malformed transaction reference")
		return nil, err
	}
	tx, err = s.repositories.Transactions().Get(ctx, id)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return tx, nil
}

// AdvanceTransaction moves a transaction along the transition table,
// persists the result, and schedules garbage collection once the
// transaction reaches a terminal state. Undefined transitions fail closed.
func (s *Service) AdvanceTransaction(ctx context.Context, txID string, next TransactionState) (tx *GnapTransaction, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"tx_id": txID, "state": string(next)}
	defer func() {
		s.observeOperation(ctx, startedAt, "advance_transaction", err, fields)
	}()

	tx, err = s.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if transitionErr := tx.TransitionTo(next); transitionErr != nil {
		err = NewInvalidStateError(transitionErr.Error())
		return nil, err
	}
	if err = s.repositories.Transactions().Put(ctx, tx); err != nil {
		err = s.mapError(err)
		return nil, err
	}
	if tx.State.Terminal() {
		s.enqueueSweep(ctx, tx)
	}
	return tx, nil
}

// enqueueSweep schedules terminal transaction cleanup. Enqueue failures are
// logged and swallowed: the TTL still bounds the record's lifetime.
func (s *Service) enqueueSweep(ctx context.Context, tx *GnapTransaction) {
	if s == nil || s.sweepEnqueuer == nil || tx == nil {
		return
	}
	msg := &JobExecutionMessage{
		JobID: NewTransactionID(),
		Kind:  TransactionSweepJobKind,
		Parameters: map[string]any{
			"tx_id": tx.TxID,
		},
		IdempotencyKey: "sweep:" + tx.TxID,
		DedupPolicy:    "drop",
	}
	if err := s.sweepEnqueuer.Enqueue(ctx, msg); err != nil {
		s.logWarn(ctx, "transaction sweep enqueue failed", map[string]any{
			"tx_id": tx.TxID,
			"error": err.Error(),
		})
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
