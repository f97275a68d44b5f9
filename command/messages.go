package command

import (
	"strings"

	"github.com/goliatone/go-gnap/core"
)

const (
	TypeNegotiate          = "gnap.command.negotiate"
	TypeRegisterClient     = "gnap.command.client.register"
	TypeRegisterAccount    = "gnap.command.account.register"
	TypeAdvanceTransaction = "gnap.command.transaction.advance"
)

// NegotiateMessage submits a grant request for negotiation.
type NegotiateMessage struct {
	Request *core.GrantRequest
}

func (NegotiateMessage) Type() string { return TypeNegotiate }

func (m NegotiateMessage) Validate() error {
	if m.Request == nil {
		return commandValidationError("request", "grant request is required")
	}
	if strings.TrimSpace(m.Request.Client) == "" {
		return commandValidationError("client", "client reference is required")
	}
	return nil
}

// RegisterClientMessage registers a client instance with the
// authorization server.
type RegisterClientMessage struct {
	Request core.ClientRegistrationRequest
}

func (RegisterClientMessage) Type() string { return TypeRegisterClient }

func (m RegisterClientMessage) Validate() error {
	if err := m.Request.Validate(); err != nil {
		return commandWrapValidation(err, "command: invalid client registration")
	}
	return nil
}

// RegisterAccountMessage registers a resource-owner account.
type RegisterAccountMessage struct {
	Request core.AccountRequest
}

func (RegisterAccountMessage) Type() string { return TypeRegisterAccount }

func (m RegisterAccountMessage) Validate() error {
	if err := m.Request.Validate(); err != nil {
		return commandWrapValidation(err, "command: invalid account registration")
	}
	return nil
}

// AdvanceTransactionMessage moves a transaction to its next state.
type AdvanceTransactionMessage struct {
	TxID string
	Next core.TransactionState
}

func (AdvanceTransactionMessage) Type() string { return TypeAdvanceTransaction }

func (m AdvanceTransactionMessage) Validate() error {
	if strings.TrimSpace(m.TxID) == "" {
		return commandValidationError("tx_id", "transaction id is required")
	}
	if !m.Next.Valid() {
		return commandValidationError("next", "unknown transaction state")
	}
	return nil
}
