// Package httpapi exposes the grant negotiation service over HTTP.
// Handlers decode JSON, delegate to the core service, and translate
// error envelopes to wire statuses.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-gnap/core"
)

const defaultJSONMaxBytes int64 = 1 << 20

// Config carries the handler dependencies.
type Config struct {
	Service      core.GrantService
	Logger       core.Logger
	JSONMaxBytes int64
}

// Handler serves the GNAP endpoints.
type Handler struct {
	service      core.GrantService
	logger       core.Logger
	jsonMaxBytes int64
}

func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	maxBytes := cfg.JSONMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultJSONMaxBytes
	}
	return &Handler{
		service:      cfg.Service,
		logger:       logger,
		jsonMaxBytes: maxBytes,
	}
}

// Register wires the grant endpoints and the discovery document.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/gnap/tx", h.wrap("tx", h.handleTransaction))
	mux.Handle("/gnap/tx/", h.wrap("tx.get", h.handleTransactionByID))
	mux.Handle("/gnap/client", h.wrap("client.register", h.handleRegisterClient))
	mux.Handle("/gnap/client/", h.wrap("client.get", h.handleGetClient))
	mux.Handle("/gnap/account", h.wrap("account.register", h.handleRegisterAccount))
	mux.Handle("/gnap/account/", h.wrap("account.get", h.handleGetAccount))
	mux.Handle("/.well-known/gnap-as-rs", h.wrap("well_known", h.handleWellKnown))
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (h *Handler) wrap(operation string, fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		err := fn(w, r)
		if err != nil {
			h.writeError(w, r, requestID, err)
		}
		h.logger.Debug("request handled",
			"operation", operation,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err != nil,
		)
	})
}

func (h *Handler) handleTransaction(w http.ResponseWriter, r *http.Request) error {
	switch r.Method {
	case http.MethodPost:
		var req core.GrantRequest
		if err := h.decodeJSON(w, r, &req); err != nil {
			return err
		}
		response, err := h.service.Negotiate(r.Context(), &req)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, response)
	case http.MethodOptions:
		options, err := h.service.Options(r.Context())
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, options)
	default:
		return methodNotAllowed(r.Method)
	}
}

func (h *Handler) handleTransactionByID(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		return methodNotAllowed(r.Method)
	}
	txID := pathSuffix(r.URL.Path, "/gnap/tx/")
	tx, err := h.service.GetTransaction(r.Context(), txID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) handleRegisterClient(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return methodNotAllowed(r.Method)
	}
	var req core.ClientRegistrationRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		return err
	}
	client, err := h.service.RegisterClient(r.Context(), &req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, client)
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		return methodNotAllowed(r.Method)
	}
	ref := pathSuffix(r.URL.Path, "/gnap/client/")
	client, err := h.service.GetClient(r.Context(), ref)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, client)
}

func (h *Handler) handleRegisterAccount(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return methodNotAllowed(r.Method)
	}
	var req core.AccountRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		return err
	}
	account, err := h.service.RegisterAccount(r.Context(), &req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		return methodNotAllowed(r.Method)
	}
	ref := pathSuffix(r.URL.Path, "/gnap/account/")
	account, err := h.service.GetAccount(r.Context(), ref)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, account)
}

func (h *Handler) handleWellKnown(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		return methodNotAllowed(r.Method)
	}
	options, err := h.service.WellKnown(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, options)
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	body := http.MaxBytesReader(w, r.Body, h.jsonMaxBytes)
	defer body.Close()
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(target); err != nil {
		return core.NewBadDataError("httpapi: invalid JSON payload: " + err.Error())
	}
	return nil
}

func pathSuffix(path string, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(path, prefix))
}

func methodNotAllowed(method string) error {
	return core.NewBadDataError("httpapi: method not allowed: " + method).
		WithCode(http.StatusMethodNotAllowed)
}
