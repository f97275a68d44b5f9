package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransactionStateTransition = errors.New("core: invalid transaction state transition")
	ErrUnknownTransactionState           = errors.New("core: unknown transaction state")
)

// Collection names in the durable store, one per entity type.
const (
	CollectionClients            = "clients"
	CollectionAccounts           = "accounts"
	CollectionTransactions       = "transactions"
	CollectionTransactionOptions = "transaction_options"
	CollectionServiceConfig      = "service_config"
)

// Cache key prefixes. These are part of the persisted wire contract and
// must not change: existing cache contents are keyed under them.
const (
	CachePrefixClients            = "gnap:clients"
	CachePrefixAccounts           = "gnap:accounts"
	CachePrefixTransactions       = "gnap:tx"
	CachePrefixTransactionOptions = "gnap:tx_options"
	CachePrefixServiceOptions     = "gnap:well_knowns"
)

type TransactionState string

const (
	TransactionStateStart                 TransactionState = "start"
	TransactionStateReceived              TransactionState = "received"
	TransactionStateClientVerified        TransactionState = "client_verified"
	TransactionStateResourceOwnerVerified TransactionState = "resource_owner_verified"
	TransactionStateApproved              TransactionState = "approved"
	TransactionStateDenied                TransactionState = "denied"
	TransactionStateFinalized             TransactionState = "finalized"
)

func (s TransactionState) Valid() bool {
	switch s {
	case TransactionStateStart,
		TransactionStateReceived,
		TransactionStateClientVerified,
		TransactionStateResourceOwnerVerified,
		TransactionStateApproved,
		TransactionStateDenied,
		TransactionStateFinalized:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave the state.
func (s TransactionState) Terminal() bool {
	return s == TransactionStateFinalized
}

// GnapTransaction is the server-side negotiation record tracking one grant
// request from receipt to completion. The engine is the sole writer of
// State; everything else treats the transaction as read-only.
type GnapTransaction struct {
	TxID    string           `json:"tx_id"`
	State   TransactionState `json:"state"`
	Request *GrantRequest    `json:"request,omitempty"`
}

// NewTransaction mints a transaction owning the grant request. Transactions
// are born in the received state: the start state exists only as the
// notional origin of the transition table and is never materialized.
func NewTransaction(request *GrantRequest) GnapTransaction {
	return GnapTransaction{
		TxID:    NewTransactionID(),
		State:   TransactionStateReceived,
		Request: request,
	}
}

// TransitionTo advances the transaction state. Transitions are monotonic
// and fail closed: anything outside the transition table, including any
// attempt to act on a terminal transaction, is rejected.
func (t *GnapTransaction) TransitionTo(next TransactionState) error {
	if t == nil {
		return nil
	}
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTransactionState, next)
	}
	if !transactionTransitionAllowed(t.State, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransactionStateTransition, t.State, next)
	}
	t.State = next
	return nil
}

func transactionTransitionAllowed(current, next TransactionState) bool {
	allowed := map[TransactionState]map[TransactionState]struct{}{
		TransactionStateStart: {
			TransactionStateReceived: {},
		},
		TransactionStateReceived: {
			TransactionStateClientVerified: {},
		},
		TransactionStateClientVerified: {
			TransactionStateResourceOwnerVerified: {},
		},
		TransactionStateResourceOwnerVerified: {
			TransactionStateApproved: {},
			TransactionStateDenied:   {},
		},
		TransactionStateApproved: {
			TransactionStateFinalized: {},
		},
		TransactionStateDenied: {
			TransactionStateFinalized: {},
		},
		TransactionStateFinalized: {},
	}
	_, ok := allowed[current][next]
	return ok
}

func (t GnapTransaction) CachePrefix() string { return CachePrefixTransactions }
func (t GnapTransaction) CacheID() string     { return t.TxID }

// ClientRegistrationRequest carries the fields a caller supplies when
// registering a client instance.
type ClientRegistrationRequest struct {
	RedirectURIs []string `json:"redirect_uris"`
	ClientName   string   `json:"client_name"`
}

func (r ClientRegistrationRequest) Validate() error {
	if len(r.RedirectURIs) == 0 {
		return fmt.Errorf("core: redirect_uris must not be empty")
	}
	for _, uri := range r.RedirectURIs {
		if strings.TrimSpace(uri) == "" {
			return fmt.Errorf("core: redirect_uris must not contain empty entries")
		}
	}
	if strings.TrimSpace(r.ClientName) == "" {
		return fmt.Errorf("core: client_name is required")
	}
	return nil
}

// Client is a registered client instance. The identifier is minted by the
// server at registration and immutable thereafter. The registration
// metadata mirrors OIDC dynamic registration; all of it is optional.
type Client struct {
	ClientID     string   `json:"client_id"`
	RedirectURIs []string `json:"redirect_uris"`
	ClientName   string   `json:"client_name"`

	Contacts                    []string `json:"contacts,omitempty"`
	ApplicationType             string   `json:"application_type,omitempty"`
	ResponseTypes               []string `json:"response_types,omitempty"`
	GrantTypes                  []string `json:"grant_types,omitempty"`
	ClientURI                   string   `json:"client_uri,omitempty"`
	PolicyURI                   string   `json:"policy_uri,omitempty"`
	TosURI                      string   `json:"tos_uri,omitempty"`
	JwksURI                     string   `json:"jwks_uri,omitempty"`
	LogoURI                     string   `json:"logo_uri,omitempty"`
	SectorIdentifierURI         string   `json:"sector_identifier_uri,omitempty"`
	SubjectType                 string   `json:"subject_type,omitempty"`
	IDTokenSignedResponseAlg    string   `json:"id_token_signed_response_alg,omitempty"`
	UserinfoSignedResponseAlg   string   `json:"userinfo_signed_response_alg,omitempty"`
	RequestObjectSigningAlg     string   `json:"request_object_signing_alg,omitempty"`
	TokenEndpointAuthMethod     string   `json:"token_endpoint_auth_method,omitempty"`
	TokenEndpointAuthSigningAlg string   `json:"token_endpoint_auth_signing_alg,omitempty"`
	DefaultMaxAge               string   `json:"default_max_age,omitempty"`
	RequireAuthTime             string   `json:"require_auth_time,omitempty"`
	InitiateLoginURI            string   `json:"initiate_login_uri,omitempty"`
	RequestURIs                 []string `json:"request_uris,omitempty"`
}

// NewClient mints a client from a validated registration request.
func NewClient(req ClientRegistrationRequest) Client {
	return Client{
		ClientID:     uuid.NewString(),
		RedirectURIs: append([]string(nil), req.RedirectURIs...),
		ClientName:   strings.TrimSpace(req.ClientName),
	}
}

func (c Client) CachePrefix() string { return CachePrefixClients }
func (c Client) CacheID() string     { return c.ClientID }

// AccountAddress is a postal address claim.
type AccountAddress struct {
	Country       string `json:"country"`
	Locality      string `json:"locality"`
	PostalCode    string `json:"postal_code"`
	Region        string `json:"region"`
	StreetAddress string `json:"street_address"`
	Formatted     string `json:"formatted,omitempty"`
	Primary       bool   `json:"primary"`
}

// EmailAddress is an email claim with verification status.
type EmailAddress struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
	Primary  bool   `json:"primary"`
}

// PhoneNumber is a phone claim with verification status.
type PhoneNumber struct {
	PhoneNumber string `json:"phone_number"`
	Verified    bool   `json:"verified"`
	Primary     bool   `json:"primary"`
}

// AccountRequest carries the claims supplied at account creation.
type AccountRequest struct {
	Address           []AccountAddress `json:"address,omitempty"`
	Birthdate         string           `json:"birthdate,omitempty"`
	Email             []EmailAddress   `json:"email,omitempty"`
	FamilyName        string           `json:"family_name"`
	Gender            string           `json:"gender,omitempty"`
	GivenName         string           `json:"given_name"`
	Locale            string           `json:"locale,omitempty"`
	MiddleName        string           `json:"middle_name,omitempty"`
	Name              string           `json:"name"`
	Nickname          string           `json:"nickname,omitempty"`
	Phone             []PhoneNumber    `json:"phone,omitempty"`
	Picture           string           `json:"picture,omitempty"`
	PreferredUsername string           `json:"preferred_username,omitempty"`
	Profile           string           `json:"profile,omitempty"`
	TaxID             string           `json:"tax_id,omitempty"`
	Website           string           `json:"website,omitempty"`
	Zoneinfo          string           `json:"zoneinfo,omitempty"`
}

func (r AccountRequest) Validate() error {
	if strings.TrimSpace(r.FamilyName) == "" {
		return fmt.Errorf("core: family_name is required")
	}
	if strings.TrimSpace(r.GivenName) == "" {
		return fmt.Errorf("core: given_name is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("core: name is required")
	}
	return nil
}

// Account is a resource-owner identity with its OIDC-like claim set.
type Account struct {
	AccountID         string           `json:"account_id"`
	Address           []AccountAddress `json:"address,omitempty"`
	Birthdate         string           `json:"birthdate,omitempty"`
	Email             []EmailAddress   `json:"email,omitempty"`
	FamilyName        string           `json:"family_name"`
	Gender            string           `json:"gender,omitempty"`
	GivenName         string           `json:"given_name"`
	Locale            string           `json:"locale,omitempty"`
	MiddleName        string           `json:"middle_name,omitempty"`
	Name              string           `json:"name"`
	Nickname          string           `json:"nickname,omitempty"`
	Phone             []PhoneNumber    `json:"phone,omitempty"`
	Picture           string           `json:"picture,omitempty"`
	PreferredUsername string           `json:"preferred_username,omitempty"`
	Profile           string           `json:"profile,omitempty"`
	TaxID             string           `json:"tax_id,omitempty"`
	Website           string           `json:"website,omitempty"`
	Zoneinfo          string           `json:"zoneinfo,omitempty"`
}

// NewAccount mints an account from a validated account request.
func NewAccount(req AccountRequest) Account {
	return Account{
		AccountID:         uuid.NewString(),
		Address:           append([]AccountAddress(nil), req.Address...),
		Birthdate:         req.Birthdate,
		Email:             append([]EmailAddress(nil), req.Email...),
		FamilyName:        strings.TrimSpace(req.FamilyName),
		Gender:            req.Gender,
		GivenName:         strings.TrimSpace(req.GivenName),
		Locale:            req.Locale,
		MiddleName:        req.MiddleName,
		Name:              strings.TrimSpace(req.Name),
		Nickname:          req.Nickname,
		Phone:             append([]PhoneNumber(nil), req.Phone...),
		Picture:           req.Picture,
		PreferredUsername: req.PreferredUsername,
		Profile:           req.Profile,
		TaxID:             req.TaxID,
		Website:           req.Website,
		Zoneinfo:          req.Zoneinfo,
	}
}

func (a Account) CachePrefix() string { return CachePrefixAccounts }
func (a Account) CacheID() string     { return a.AccountID }

// TransactionOptions is the server-advertised capability descriptor for the
// grant endpoint. At most one logical instance exists; when the durable
// store holds none a default is synthesized and persisted.
type TransactionOptions struct {
	GrantRequestEndpoint              string   `json:"grant_request_endpoint"`
	InteractionStartModesSupported    []string `json:"interaction_start_modes_supported,omitempty"`
	InteractionFinishMethodsSupported []string `json:"interaction_finish_methods_supported,omitempty"`
	KeyProofsSupported                []string `json:"key_proofs_supported,omitempty"`
	SubjectFormatsSupported           []string `json:"subject_formats_supported,omitempty"`
	AssertionsSupported               []string `json:"assertions_supported,omitempty"`
}

// DefaultTransactionOptions synthesizes the capability descriptor the
// server advertises until an operator persists an explicit one.
func DefaultTransactionOptions(grantEndpoint string) TransactionOptions {
	return TransactionOptions{
		GrantRequestEndpoint:              grantEndpoint,
		InteractionStartModesSupported:    []string{"redirect", "app", "user_code"},
		InteractionFinishMethodsSupported: []string{"redirect", "push"},
		KeyProofsSupported:                []string{"httpsig", "mtls", "jwsd", "jws"},
		SubjectFormatsSupported: []string{
			"account", "aliases", "did", "email", "iss_sub", "opaque", "phone_number",
		},
		AssertionsSupported: []string{"oidc", "saml2"},
	}
}

func (o TransactionOptions) CachePrefix() string { return CachePrefixTransactionOptions }

// CacheID is empty: the singleton is cached at the bare prefix.
func (o TransactionOptions) CacheID() string { return "" }

// ServiceOptions is the well-known discovery document for the service.
type ServiceOptions struct {
	GrantRequestEndpoint         string   `json:"grant_request_endpoint"`
	IntrospectionEndpoint        string   `json:"introspection_endpoint"`
	ResourceRegistrationEndpoint string   `json:"resource_registration_endpoint"`
	TokenFormatsSupported        []string `json:"token_formats_supported"`
}

// DefaultServiceOptions synthesizes the discovery document from the
// service base URL.
func DefaultServiceOptions(baseURL string) ServiceOptions {
	base := strings.TrimRight(baseURL, "/")
	return ServiceOptions{
		GrantRequestEndpoint:         base + "/gnap/tx",
		IntrospectionEndpoint:        base + "/gnap/introspect",
		ResourceRegistrationEndpoint: base + "/gnap/resource",
		TokenFormatsSupported:        []string{"jwt", "paseto"},
	}
}

func (o ServiceOptions) CachePrefix() string { return CachePrefixServiceOptions }
func (o ServiceOptions) CacheID() string     { return "" }

// NewTransactionID mints a fresh transaction identifier.
func NewTransactionID() string {
	return uuid.NewString()
}

// ParseReference parses an opaque entity reference into its canonical
// identifier. References are UUID-shaped; any other shape is a parse
// failure, never a lookup miss.
func ParseReference(ref string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}
