package gnap

import (
	"fmt"

	gnapcommand "github.com/goliatone/go-gnap/command"
	gnapquery "github.com/goliatone/go-gnap/query"
)

// CommandQueryService is the combined surface the facade wires commands
// and queries against. *core.Service satisfies it.
type CommandQueryService interface {
	gnapcommand.MutatingService
	gnapquery.GrantReader
}

type Commands struct {
	Negotiate          *gnapcommand.NegotiateCommand
	RegisterClient     *gnapcommand.RegisterClientCommand
	RegisterAccount    *gnapcommand.RegisterAccountCommand
	AdvanceTransaction *gnapcommand.AdvanceTransactionCommand
}

type Queries struct {
	GetClient      *gnapquery.GetClientQuery
	GetAccount     *gnapquery.GetAccountQuery
	GetTransaction *gnapquery.GetTransactionQuery
	GetOptions     *gnapquery.GetOptionsQuery
	GetWellKnown   *gnapquery.GetWellKnownQuery
}

// Facade bundles command and query handlers around one service instance.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("gnap: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Negotiate:          gnapcommand.NewNegotiateCommand(service),
		RegisterClient:     gnapcommand.NewRegisterClientCommand(service),
		RegisterAccount:    gnapcommand.NewRegisterAccountCommand(service),
		AdvanceTransaction: gnapcommand.NewAdvanceTransactionCommand(service),
	}
	facade.queries = Queries{
		GetClient:      gnapquery.NewGetClientQuery(service),
		GetAccount:     gnapquery.NewGetAccountQuery(service),
		GetTransaction: gnapquery.NewGetTransactionQuery(service),
		GetOptions:     gnapquery.NewGetOptionsQuery(service),
		GetWellKnown:   gnapquery.NewGetWellKnownQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
