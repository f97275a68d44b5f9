package query

import "strings"

const (
	TypeGetClient      = "gnap.query.client.get"
	TypeGetAccount     = "gnap.query.account.get"
	TypeGetTransaction = "gnap.query.transaction.get"
	TypeGetOptions     = "gnap.query.options.get"
	TypeGetWellKnown   = "gnap.query.well_known.get"
)

// GetClientMessage fetches a registered client by reference.
type GetClientMessage struct {
	Ref string
}

func (GetClientMessage) Type() string { return TypeGetClient }

func (m GetClientMessage) Validate() error {
	if strings.TrimSpace(m.Ref) == "" {
		return queryValidationError("ref", "client reference is required")
	}
	return nil
}

// GetAccountMessage fetches a resource-owner account by reference.
type GetAccountMessage struct {
	Ref string
}

func (GetAccountMessage) Type() string { return TypeGetAccount }

func (m GetAccountMessage) Validate() error {
	if strings.TrimSpace(m.Ref) == "" {
		return queryValidationError("ref", "account reference is required")
	}
	return nil
}

// GetTransactionMessage fetches a grant transaction by identifier.
type GetTransactionMessage struct {
	TxID string
}

func (GetTransactionMessage) Type() string { return TypeGetTransaction }

func (m GetTransactionMessage) Validate() error {
	if strings.TrimSpace(m.TxID) == "" {
		return queryValidationError("tx_id", "transaction id is required")
	}
	return nil
}

// GetOptionsMessage fetches the transaction options singleton.
type GetOptionsMessage struct{}

func (GetOptionsMessage) Type() string { return TypeGetOptions }

func (GetOptionsMessage) Validate() error { return nil }

// GetWellKnownMessage fetches the service discovery document.
type GetWellKnownMessage struct{}

func (GetWellKnownMessage) Type() string { return TypeGetWellKnown }

func (GetWellKnownMessage) Validate() error { return nil }
