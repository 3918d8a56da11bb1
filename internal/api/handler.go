package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kirotools/admin-console/internal/admin"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the admin service into HTTP handlers.
type Handler struct {
	service *admin.Service

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(service *admin.Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCredentials(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, h.service.Credentials())
}

func (h *Handler) handlePutDisabled(w http.ResponseWriter, r *http.Request) {
	index, ok := credentialIndex(w, r)
	if !ok {
		return
	}

	var req disabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if req.Disabled == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "disabled must be provided as a boolean")
		return
	}

	if err := h.service.SetDisabled(index, *req.Disabled); err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Message: "Credential state updated"})
}

func (h *Handler) handlePutPriority(w http.ResponseWriter, r *http.Request) {
	index, ok := credentialIndex(w, r)
	if !ok {
		return
	}

	var req priorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if req.Priority == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "priority must be provided as a non-negative integer")
		return
	}

	if err := h.service.SetPriority(index, *req.Priority); err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Message: "Credential priority updated"})
}

func (h *Handler) handlePostReset(w http.ResponseWriter, r *http.Request) {
	index, ok := credentialIndex(w, r)
	if !ok {
		return
	}

	if err := h.service.ResetAndEnable(index); err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Message: "Credential reset and enabled"})
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	index, ok := credentialIndex(w, r)
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), index)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// credentialIndex extracts and validates the {index} path segment, writing
// a 400 response on failure.
func credentialIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "credential index must be a non-negative integer")
		return 0, false
	}
	return index, true
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type disabledRequest struct {
	Disabled *bool `json:"disabled"`
}

type priorityRequest struct {
	Priority *uint `json:"priority"`
}

type operationResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

// writeAdminError maps service errors onto HTTP statuses.
func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, admin.ErrNotFound):
		writeError(w, http.StatusNotFound, "Credential not found", err.Error())
	case errors.Is(err, admin.ErrUpstream):
		writeError(w, http.StatusBadGateway, "Upstream error", err.Error(),
			"The provider rejected or failed the request; retry later or check the credential")
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
