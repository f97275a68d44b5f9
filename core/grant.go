package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

type AccessTokenFlag string

const (
	AccessTokenFlagBearer  AccessTokenFlag = "bearer"
	AccessTokenFlagDurable AccessTokenFlag = "durable"
	AccessTokenFlagSplit   AccessTokenFlag = "split"
)

func (f *AccessTokenFlag) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	flag := AccessTokenFlag(strings.ToLower(strings.TrimSpace(raw)))
	switch flag {
	case AccessTokenFlagBearer, AccessTokenFlagDurable, AccessTokenFlagSplit:
		*f = flag
		return nil
	}
	return fmt.Errorf("core: unknown access token flag %q", raw)
}

type InteractStartMode string

const (
	InteractStartModeRedirect InteractStartMode = "redirect"
	InteractStartModeApp      InteractStartMode = "app"
	InteractStartModeUserCode InteractStartMode = "user_code"
)

func (m *InteractStartMode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	mode := InteractStartMode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case InteractStartModeRedirect, InteractStartModeApp, InteractStartModeUserCode:
		*m = mode
		return nil
	}
	return fmt.Errorf("core: unknown interaction start mode %q", raw)
}

type InteractFinishMethod string

const (
	InteractFinishMethodRedirect InteractFinishMethod = "redirect"
	InteractFinishMethodPush     InteractFinishMethod = "push"
)

func (m *InteractFinishMethod) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	method := InteractFinishMethod(strings.ToLower(strings.TrimSpace(raw)))
	switch method {
	case InteractFinishMethodRedirect, InteractFinishMethodPush:
		*m = method
		return nil
	}
	return fmt.Errorf("core: unknown interaction finish method %q", raw)
}

// AccessRight describes one requested right: either an opaque string
// reference or a structured rights object. On the wire the two shapes are
// a bare JSON string and an object; internally both live in one struct
// with Reference set for the string shape.
type AccessRight struct {
	Reference string
	Type      string
	Actions   []string
	Locations []string
	DataTypes []string
}

type accessRightObject struct {
	Type      string   `json:"type"`
	Actions   []string `json:"actions,omitempty"`
	Locations []string `json:"locations,omitempty"`
	DataTypes []string `json:"data_types,omitempty"`
}

func (r AccessRight) MarshalJSON() ([]byte, error) {
	if r.Reference != "" {
		return json.Marshal(r.Reference)
	}
	return json.Marshal(accessRightObject{
		Type:      r.Type,
		Actions:   r.Actions,
		Locations: r.Locations,
		DataTypes: r.DataTypes,
	})
}

func (r *AccessRight) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var ref string
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		*r = AccessRight{Reference: ref}
		return nil
	}
	var obj accessRightObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if strings.TrimSpace(obj.Type) == "" {
		return fmt.Errorf("core: access right object requires a type")
	}
	*r = AccessRight{
		Type:      obj.Type,
		Actions:   obj.Actions,
		Locations: obj.Locations,
		DataTypes: obj.DataTypes,
	}
	return nil
}

// AccessTokenRequest is one requested token with its rights, optional
// label and behavior flags.
type AccessTokenRequest struct {
	Access []AccessRight     `json:"access"`
	Label  string            `json:"label,omitempty"`
	Flags  []AccessTokenFlag `json:"flags,omitempty"`
}

func (r *AccessTokenRequest) UnmarshalJSON(data []byte) error {
	type alias AccessTokenRequest
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	seen := make(map[AccessTokenFlag]struct{}, len(decoded.Flags))
	for _, flag := range decoded.Flags {
		if _, dup := seen[flag]; dup {
			return fmt.Errorf("core: access token flag %q repeated", flag)
		}
		seen[flag] = struct{}{}
	}
	*r = AccessTokenRequest(decoded)
	return nil
}

type SubjectRequest struct {
	Formats    []string `json:"formats,omitempty"`
	Assertions []string `json:"assertions,omitempty"`
}

type InteractFinishRequest struct {
	Method InteractFinishMethod `json:"method"`
	URI    string               `json:"uri"`
	Nonce  string               `json:"nonce"`
}

type InteractRequest struct {
	Start  []InteractStartMode    `json:"start"`
	Finish *InteractFinishRequest `json:"finish,omitempty"`
}

// GrantRequest is a client instance's declaration of desired access rights
// and interaction preferences. The access_token member accepts a single
// object or an array on the wire; decoding always normalizes to a slice so
// nothing downstream ever sees the single-object shape.
type GrantRequest struct {
	AccessToken []AccessTokenRequest `json:"access_token"`
	Subject     *SubjectRequest      `json:"subject,omitempty"`
	Client      string               `json:"client,omitempty"`
	User        string               `json:"user,omitempty"`
	Interact    *InteractRequest     `json:"interact,omitempty"`
}

func (r *GrantRequest) UnmarshalJSON(data []byte) error {
	type alias GrantRequest
	var decoded struct {
		alias
		AccessToken json.RawMessage `json:"access_token"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = GrantRequest(decoded.alias)
	r.AccessToken = nil
	if len(decoded.AccessToken) == 0 {
		return nil
	}
	tokens, err := decodeOneOrMany(decoded.AccessToken)
	if err != nil {
		return err
	}
	r.AccessToken = tokens
	return nil
}

func decodeOneOrMany(data json.RawMessage) ([]AccessTokenRequest, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var many []AccessTokenRequest
		if err := json.Unmarshal(data, &many); err != nil {
			return nil, err
		}
		return many, nil
	}
	var one AccessTokenRequest
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []AccessTokenRequest{one}, nil
}

// ContinuationAccessToken is the access token bound to a continuation
// request. Issuance is a declared extension point with no behavior yet.
type ContinuationAccessToken struct{}

// RequestContinuation is the handle by which a client instance resumes a
// transaction after interaction.
type RequestContinuation struct {
	URI         string                   `json:"uri"`
	Wait        *uint32                  `json:"wait,omitempty"`
	AccessToken *ContinuationAccessToken `json:"access_token,omitempty"`
}

// ContinuationForURI builds a bare continuation handle for a URI.
func ContinuationForURI(uri string) RequestContinuation {
	return RequestContinuation{URI: uri}
}

// AccessToken is an issued token projection. Only the shape is modeled;
// issuance belongs to a later subsystem.
type AccessToken struct {
	Value     string            `json:"value"`
	Label     string            `json:"label,omitempty"`
	Manage    string            `json:"manage,omitempty"`
	Access    []AccessRight     `json:"access,omitempty"`
	ExpiresIn *uint32           `json:"expires_in,omitempty"`
	Key       string            `json:"key,omitempty"`
	Flags     []AccessTokenFlag `json:"flags,omitempty"`
}

type InteractResponse struct {
	Continue RequestContinuation `json:"continue"`
	Redirect string              `json:"redirect,omitempty"`
}

// GrantResponse is the projection of a transaction returned to the client.
type GrantResponse struct {
	InstanceID string            `json:"instance_id"`
	Interact   *InteractResponse `json:"interact,omitempty"`
}
