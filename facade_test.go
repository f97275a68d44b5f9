package gnap

import (
	"context"
	"fmt"
	"testing"

	gocmd "github.com/goliatone/go-command"
	gnapcommand "github.com/goliatone/go-gnap/command"
	"github.com/goliatone/go-gnap/core"
	gnapquery "github.com/goliatone/go-gnap/query"
)

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestFacade_WiresCommandsAndQueries(t *testing.T) {
	svc := &stubCommandQueryService{}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.Negotiate == nil || commands.RegisterClient == nil ||
		commands.RegisterAccount == nil || commands.AdvanceTransaction == nil {
		t.Fatalf("expected all commands to be wired: %#v", commands)
	}
	queries := facade.Queries()
	if queries.GetClient == nil || queries.GetAccount == nil ||
		queries.GetTransaction == nil || queries.GetOptions == nil || queries.GetWellKnown == nil {
		t.Fatalf("expected all queries to be wired: %#v", queries)
	}
	if facade.Service() == nil {
		t.Fatalf("expected service accessor")
	}

	collector := gocmd.NewResult[*core.GrantResponse]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	err = commands.Negotiate.Execute(ctx, gnapcommand.NegotiateMessage{
		Request: &core.GrantRequest{Client: "client-1"},
	})
	if err != nil {
		t.Fatalf("execute negotiate: %v", err)
	}
	if svc.negotiateCalls != 1 {
		t.Fatalf("expected one negotiate invocation, got %d", svc.negotiateCalls)
	}
	if _, ok := collector.Load(); !ok {
		t.Fatalf("expected negotiate result")
	}

	tx, err := queries.GetTransaction.Query(context.Background(), gnapquery.GetTransactionMessage{TxID: "tx_1"})
	if err != nil {
		t.Fatalf("query transaction: %v", err)
	}
	if tx.TxID != "tx_1" {
		t.Fatalf("unexpected transaction: %#v", tx)
	}
}

type stubCommandQueryService struct {
	negotiateCalls int
}

func (s *stubCommandQueryService) Negotiate(_ context.Context, req *core.GrantRequest) (*core.GrantResponse, error) {
	s.negotiateCalls++
	if req == nil {
		return nil, fmt.Errorf("grant request is required")
	}
	return &core.GrantResponse{InstanceID: "tx_1"}, nil
}

func (s *stubCommandQueryService) RegisterClient(_ context.Context, req *core.ClientRegistrationRequest) (*core.Client, error) {
	return &core.Client{ClientID: "client-1", ClientName: req.ClientName}, nil
}

func (s *stubCommandQueryService) RegisterAccount(_ context.Context, _ *core.AccountRequest) (*core.Account, error) {
	return &core.Account{AccountID: "acct-1"}, nil
}

func (s *stubCommandQueryService) AdvanceTransaction(_ context.Context, txID string, next core.TransactionState) (*core.GnapTransaction, error) {
	return &core.GnapTransaction{TxID: txID, State: next}, nil
}

func (s *stubCommandQueryService) GetClient(_ context.Context, ref string) (*core.Client, error) {
	return &core.Client{ClientID: ref}, nil
}

func (s *stubCommandQueryService) GetAccount(_ context.Context, ref string) (*core.Account, error) {
	return &core.Account{AccountID: ref}, nil
}

func (s *stubCommandQueryService) GetTransaction(_ context.Context, txID string) (*core.GnapTransaction, error) {
	return &core.GnapTransaction{TxID: txID, State: core.TransactionStateReceived}, nil
}

func (s *stubCommandQueryService) Options(context.Context) (*core.TransactionOptions, error) {
	return &core.TransactionOptions{GrantRequestEndpoint: "http://localhost:8000/gnap/tx"}, nil
}

func (s *stubCommandQueryService) WellKnown(context.Context) (*core.ServiceOptions, error) {
	return &core.ServiceOptions{GrantRequestEndpoint: "http://localhost:8000/gnap/tx"}, nil
}

var _ CommandQueryService = (*stubCommandQueryService)(nil)
