package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-gnap/core"
)

func newTestServer(t *testing.T, svc core.GrantService) *httptest.Server {
	t.Helper()
	handler := New(Config{Service: svc})
	mux := http.NewServeMux()
	handler.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHandleTransaction_PostNegotiates(t *testing.T) {
	var captured *core.GrantRequest
	svc := stubGrantService{
		negotiateFn: func(_ context.Context, req *core.GrantRequest) (*core.GrantResponse, error) {
			captured = req
			return &core.GrantResponse{
				InstanceID: "tx_1",
				Interact: &core.InteractResponse{
					Continue: core.ContinuationForURI("http://localhost:8000/gnap/tx/tx_1"),
				},
			}, nil
		},
	}
	server := newTestServer(t, svc)

	body := `{"client":"0d79c843-552e-4952-b7dd-019a7c821c36","access_token":{"access":["foo"],"label":"my_label","flags":["bearer"]}}`
	res, err := http.Post(server.URL+"/gnap/tx", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post grant request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if captured == nil {
		t.Fatalf("expected negotiate invocation")
	}
	if len(captured.AccessToken) != 1 || captured.AccessToken[0].Label != "my_label" {
		t.Fatalf("expected single-object access_token to normalize, got %#v", captured.AccessToken)
	}

	var decoded core.GrantResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.InstanceID != "tx_1" {
		t.Fatalf("unexpected instance id: %q", decoded.InstanceID)
	}
}

func TestHandleTransaction_PostRejectsMalformedJSON(t *testing.T) {
	svc := stubGrantService{
		negotiateFn: func(context.Context, *core.GrantRequest) (*core.GrantResponse, error) {
			t.Fatalf("negotiate must not run on malformed JSON")
			return nil, nil
		},
	}
	server := newTestServer(t, svc)

	res, err := http.Post(server.URL+"/gnap/tx", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("post malformed payload: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != core.GnapErrorBadData {
		t.Fatalf("expected %q, got %q", core.GnapErrorBadData, envelope.Error.Code)
	}
}

func TestHandleTransaction_OptionsReturnsCapabilities(t *testing.T) {
	svc := stubGrantService{
		optionsFn: func(context.Context) (*core.TransactionOptions, error) {
			return &core.TransactionOptions{GrantRequestEndpoint: "http://localhost:8000/gnap/tx"}, nil
		},
	}
	server := newTestServer(t, svc)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/gnap/tx", nil)
	if err != nil {
		t.Fatalf("build options request: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("options request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var decoded core.TransactionOptions
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if decoded.GrantRequestEndpoint == "" {
		t.Fatalf("expected grant request endpoint")
	}
}

func TestHandleTransactionByID(t *testing.T) {
	svc := stubGrantService{
		getTransactionFn: func(_ context.Context, txID string) (*core.GnapTransaction, error) {
			if txID != "tx_1" {
				return nil, core.NewNotFoundError("core: transaction not found")
			}
			return &core.GnapTransaction{TxID: txID, State: core.TransactionStateReceived}, nil
		},
	}
	server := newTestServer(t, svc)

	res, err := http.Get(server.URL + "/gnap/tx/tx_1")
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	missing, err := http.Get(server.URL + "/gnap/tx/tx_missing")
	if err != nil {
		t.Fatalf("get missing transaction: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}

func TestClientEndpoints(t *testing.T) {
	registered := &core.Client{
		ClientID:     "0d79c843-552e-4952-b7dd-019a7c821c36",
		RedirectURIs: []string{"https://client.example.com/cb"},
		ClientName:   "acme",
	}
	svc := stubGrantService{
		registerClientFn: func(_ context.Context, req *core.ClientRegistrationRequest) (*core.Client, error) {
			if req.ClientName != "acme" {
				return nil, core.NewBadDataError("core: client_name is required")
			}
			return registered, nil
		},
		getClientFn: func(_ context.Context, ref string) (*core.Client, error) {
			if ref != registered.ClientID {
				return nil, core.NewNotFoundError("core: client not found")
			}
			return registered, nil
		},
	}
	server := newTestServer(t, svc)

	body := `{"redirect_uris":["https://client.example.com/cb"],"client_name":"acme"}`
	res, err := http.Post(server.URL+"/gnap/client", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("register client: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}

	lookup, err := http.Get(server.URL + "/gnap/client/" + registered.ClientID)
	if err != nil {
		t.Fatalf("get client: %v", err)
	}
	defer lookup.Body.Close()
	if lookup.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", lookup.StatusCode)
	}
	var decoded core.Client
	if err := json.NewDecoder(lookup.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode client: %v", err)
	}
	if decoded.ClientName != "acme" {
		t.Fatalf("unexpected client: %#v", decoded)
	}
}

func TestWellKnownEndpoint(t *testing.T) {
	svc := stubGrantService{
		wellKnownFn: func(context.Context) (*core.ServiceOptions, error) {
			return &core.ServiceOptions{GrantRequestEndpoint: "http://localhost:8000/gnap/tx"}, nil
		},
	}
	server := newTestServer(t, svc)

	res, err := http.Get(server.URL + "/.well-known/gnap-as-rs")
	if err != nil {
		t.Fatalf("get well known: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	svc := stubGrantService{
		wellKnownFn: func(context.Context) (*core.ServiceOptions, error) {
			return nil, core.NewStoreError("core: load service options", fmt.Errorf("connection refused"))
		},
	}
	server := newTestServer(t, svc)

	res, err := http.Get(server.URL + "/.well-known/gnap-as-rs")
	if err != nil {
		t.Fatalf("get well known: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.StatusCode)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != core.GnapErrorStoreError {
		t.Fatalf("expected %q, got %q", core.GnapErrorStoreError, envelope.Error.Code)
	}
	if strings.Contains(envelope.Error.Message, "connection refused") {
		t.Fatalf("expected internal detail to be withheld, got %q", envelope.Error.Message)
	}
}

type stubGrantService struct {
	negotiateFn          func(ctx context.Context, req *core.GrantRequest) (*core.GrantResponse, error)
	optionsFn            func(ctx context.Context) (*core.TransactionOptions, error)
	wellKnownFn          func(ctx context.Context) (*core.ServiceOptions, error)
	registerClientFn     func(ctx context.Context, req *core.ClientRegistrationRequest) (*core.Client, error)
	getClientFn          func(ctx context.Context, ref string) (*core.Client, error)
	registerAccountFn    func(ctx context.Context, req *core.AccountRequest) (*core.Account, error)
	getAccountFn         func(ctx context.Context, ref string) (*core.Account, error)
	getTransactionFn     func(ctx context.Context, txID string) (*core.GnapTransaction, error)
	advanceTransactionFn func(ctx context.Context, txID string, next core.TransactionState) (*core.GnapTransaction, error)
}

func (s stubGrantService) Negotiate(ctx context.Context, req *core.GrantRequest) (*core.GrantResponse, error) {
	if s.negotiateFn == nil {
		return nil, fmt.Errorf("negotiate not configured")
	}
	return s.negotiateFn(ctx, req)
}

func (s stubGrantService) Options(ctx context.Context) (*core.TransactionOptions, error) {
	if s.optionsFn == nil {
		return nil, fmt.Errorf("options not configured")
	}
	return s.optionsFn(ctx)
}

func (s stubGrantService) WellKnown(ctx context.Context) (*core.ServiceOptions, error) {
	if s.wellKnownFn == nil {
		return nil, fmt.Errorf("well known not configured")
	}
	return s.wellKnownFn(ctx)
}

func (s stubGrantService) RegisterClient(ctx context.Context, req *core.ClientRegistrationRequest) (*core.Client, error) {
	if s.registerClientFn == nil {
		return nil, fmt.Errorf("register client not configured")
	}
	return s.registerClientFn(ctx, req)
}

func (s stubGrantService) GetClient(ctx context.Context, ref string) (*core.Client, error) {
	if s.getClientFn == nil {
		return nil, fmt.Errorf("get client not configured")
	}
	return s.getClientFn(ctx, ref)
}

func (s stubGrantService) RegisterAccount(ctx context.Context, req *core.AccountRequest) (*core.Account, error) {
	if s.registerAccountFn == nil {
		return nil, fmt.Errorf("register account not configured")
	}
	return s.registerAccountFn(ctx, req)
}

func (s stubGrantService) GetAccount(ctx context.Context, ref string) (*core.Account, error) {
	if s.getAccountFn == nil {
		return nil, fmt.Errorf("get account not configured")
	}
	return s.getAccountFn(ctx, ref)
}

func (s stubGrantService) GetTransaction(ctx context.Context, txID string) (*core.GnapTransaction, error) {
	if s.getTransactionFn == nil {
		return nil, fmt.Errorf("get transaction not configured")
	}
	return s.getTransactionFn(ctx, txID)
}

func (s stubGrantService) AdvanceTransaction(ctx context.Context, txID string, next core.TransactionState) (*core.GnapTransaction, error) {
	if s.advanceTransactionFn == nil {
		return nil, fmt.Errorf("advance transaction not configured")
	}
	return s.advanceTransactionFn(ctx, txID, next)
}

var _ core.GrantService = stubGrantService{}
