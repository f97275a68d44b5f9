package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[NegotiateMessage]          = (*NegotiateCommand)(nil)
	_ gocmd.Commander[RegisterClientMessage]     = (*RegisterClientCommand)(nil)
	_ gocmd.Commander[RegisterAccountMessage]    = (*RegisterAccountCommand)(nil)
	_ gocmd.Commander[AdvanceTransactionMessage] = (*AdvanceTransactionCommand)(nil)
)
