package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-gnap/core"
)

// MutatingService is the slice of the grant service the command layer
// depends on. *core.Service satisfies it.
type MutatingService interface {
	Negotiate(ctx context.Context, req *core.GrantRequest) (*core.GrantResponse, error)
	RegisterClient(ctx context.Context, req *core.ClientRegistrationRequest) (*core.Client, error)
	RegisterAccount(ctx context.Context, req *core.AccountRequest) (*core.Account, error)
	AdvanceTransaction(ctx context.Context, txID string, next core.TransactionState) (*core.GnapTransaction, error)
}

type NegotiateCommand struct {
	service MutatingService
}

func NewNegotiateCommand(service MutatingService) *NegotiateCommand {
	return &NegotiateCommand{service: service}
}

func (c *NegotiateCommand) Execute(ctx context.Context, msg NegotiateMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: negotiate service not configured")
	}
	response, err := c.service.Negotiate(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, response)
	return nil
}

type RegisterClientCommand struct {
	service MutatingService
}

func NewRegisterClientCommand(service MutatingService) *RegisterClientCommand {
	return &RegisterClientCommand{service: service}
}

func (c *RegisterClientCommand) Execute(ctx context.Context, msg RegisterClientMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: client registration service not configured")
	}
	client, err := c.service.RegisterClient(ctx, &msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, client)
	return nil
}

type RegisterAccountCommand struct {
	service MutatingService
}

func NewRegisterAccountCommand(service MutatingService) *RegisterAccountCommand {
	return &RegisterAccountCommand{service: service}
}

func (c *RegisterAccountCommand) Execute(ctx context.Context, msg RegisterAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account registration service not configured")
	}
	account, err := c.service.RegisterAccount(ctx, &msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, account)
	return nil
}

type AdvanceTransactionCommand struct {
	service MutatingService
}

func NewAdvanceTransactionCommand(service MutatingService) *AdvanceTransactionCommand {
	return &AdvanceTransactionCommand{service: service}
}

func (c *AdvanceTransactionCommand) Execute(ctx context.Context, msg AdvanceTransactionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: transaction service not configured")
	}
	tx, err := c.service.AdvanceTransaction(ctx, msg.TxID, msg.Next)
	if err != nil {
		return err
	}
	storeResult(ctx, tx)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
