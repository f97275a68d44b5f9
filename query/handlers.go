package query

import (
	"context"

	"github.com/goliatone/go-gnap/core"
)

// GrantReader is the read-only slice of the grant service the query
// layer depends on. *core.Service satisfies it.
type GrantReader interface {
	GetClient(ctx context.Context, ref string) (*core.Client, error)
	GetAccount(ctx context.Context, ref string) (*core.Account, error)
	GetTransaction(ctx context.Context, txID string) (*core.GnapTransaction, error)
	Options(ctx context.Context) (*core.TransactionOptions, error)
	WellKnown(ctx context.Context) (*core.ServiceOptions, error)
}

type GetClientQuery struct {
	reader GrantReader
}

func NewGetClientQuery(reader GrantReader) *GetClientQuery {
	return &GetClientQuery{reader: reader}
}

func (q *GetClientQuery) Query(ctx context.Context, msg GetClientMessage) (*core.Client, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: grant reader is required")
	}
	return q.reader.GetClient(ctx, msg.Ref)
}

type GetAccountQuery struct {
	reader GrantReader
}

func NewGetAccountQuery(reader GrantReader) *GetAccountQuery {
	return &GetAccountQuery{reader: reader}
}

func (q *GetAccountQuery) Query(ctx context.Context, msg GetAccountMessage) (*core.Account, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: grant reader is required")
	}
	return q.reader.GetAccount(ctx, msg.Ref)
}

type GetTransactionQuery struct {
	reader GrantReader
}

func NewGetTransactionQuery(reader GrantReader) *GetTransactionQuery {
	return &GetTransactionQuery{reader: reader}
}

func (q *GetTransactionQuery) Query(ctx context.Context, msg GetTransactionMessage) (*core.GnapTransaction, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: grant reader is required")
	}
	return q.reader.GetTransaction(ctx, msg.TxID)
}

type GetOptionsQuery struct {
	reader GrantReader
}

func NewGetOptionsQuery(reader GrantReader) *GetOptionsQuery {
	return &GetOptionsQuery{reader: reader}
}

func (q *GetOptionsQuery) Query(ctx context.Context, _ GetOptionsMessage) (*core.TransactionOptions, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: grant reader is required")
	}
	return q.reader.Options(ctx)
}

type GetWellKnownQuery struct {
	reader GrantReader
}

func NewGetWellKnownQuery(reader GrantReader) *GetWellKnownQuery {
	return &GetWellKnownQuery{reader: reader}
}

func (q *GetWellKnownQuery) Query(ctx context.Context, _ GetWellKnownMessage) (*core.ServiceOptions, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: grant reader is required")
	}
	return q.reader.WellKnown(ctx)
}
