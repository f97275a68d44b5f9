package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-gnap/core"
)

var (
	_ gocmd.Querier[GetClientMessage, *core.Client]               = (*GetClientQuery)(nil)
	_ gocmd.Querier[GetAccountMessage, *core.Account]             = (*GetAccountQuery)(nil)
	_ gocmd.Querier[GetTransactionMessage, *core.GnapTransaction] = (*GetTransactionQuery)(nil)
	_ gocmd.Querier[GetOptionsMessage, *core.TransactionOptions]  = (*GetOptionsQuery)(nil)
	_ gocmd.Querier[GetWellKnownMessage, *core.ServiceOptions]    = (*GetWellKnownQuery)(nil)
)
