package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gnapcache "github.com/goliatone/go-gnap/cache"
	"github.com/goliatone/go-gnap/core"
	gnaprepo "github.com/goliatone/go-gnap/repository"
	memstore "github.com/goliatone/go-gnap/store/memory"
)

// TestGrantFlowEndToEnd drives the full stack: real service, cache-aside
// repositories, in-memory store and cache, over the HTTP surface.
func TestGrantFlowEndToEnd(t *testing.T) {
	grantEndpoint := "http://localhost:8000/gnap/tx"

	repositories := gnaprepo.NewProvider(gnaprepo.ProviderConfig{
		Store:         memstore.New(),
		Cache:         gnapcache.NewMemory(),
		TTL:           time.Hour,
		GrantEndpoint: grantEndpoint,
		BaseURL:       "http://localhost:8000",
	})
	service, err := core.NewService(core.Config{
		ServiceName:   "gnap",
		BaseURL:       "http://localhost:8000",
		GrantEndpoint: grantEndpoint,
		Cache:         core.CacheConfig{TTLSeconds: 3600},
	},
		core.WithRepositoryProvider(repositories),
	)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	handler := New(Config{Service: service})
	mux := http.NewServeMux()
	handler.Register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	registration := `{"redirect_uris":["https://client.example.com/cb"],"client_name":"acme"}`
	res, err := http.Post(server.URL+"/gnap/client", "application/json", strings.NewReader(registration))
	if err != nil {
		t.Fatalf("register client: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var client core.Client
	if err := json.NewDecoder(res.Body).Decode(&client); err != nil {
		t.Fatalf("decode client: %v", err)
	}
	if client.ClientID == "" {
		t.Fatalf("expected minted client id, got %#v", client)
	}

	grant := `{
		"access_token": [{"access": ["foo"], "label": "my_label", "flags": ["bearer"]}],
		"client": "` + client.ClientID + `",
		"interact": {"start": ["redirect"]}
	}`
	negotiated, err := http.Post(server.URL+"/gnap/tx", "application/json", strings.NewReader(grant))
	if err != nil {
		t.Fatalf("negotiate: %v", err)
	}
	defer negotiated.Body.Close()
	if negotiated.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", negotiated.StatusCode)
	}
	var response core.GrantResponse
	if err := json.NewDecoder(negotiated.Body).Decode(&response); err != nil {
		t.Fatalf("decode grant response: %v", err)
	}
	if response.InstanceID == "" {
		t.Fatalf("expected a minted instance id")
	}
	if response.Interact == nil {
		t.Fatalf("expected an interact block")
	}
	if response.Interact.Redirect != response.Interact.Continue.URI {
		t.Fatalf("expected redirect %q to equal continuation %q",
			response.Interact.Redirect, response.Interact.Continue.URI)
	}
	if !strings.Contains(response.Interact.Redirect, response.InstanceID) {
		t.Fatalf("expected redirect %q to carry tx id %q",
			response.Interact.Redirect, response.InstanceID)
	}

	fetched, err := http.Get(server.URL + "/gnap/tx/" + response.InstanceID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	defer fetched.Body.Close()
	if fetched.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", fetched.StatusCode)
	}
	var tx core.GnapTransaction
	if err := json.NewDecoder(fetched.Body).Decode(&tx); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	if tx.State != core.TransactionStateReceived {
		t.Fatalf("expected state %q, got %q", core.TransactionStateReceived, tx.State)
	}
}
