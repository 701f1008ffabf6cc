package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/certifier/internal/providers"
	"github.com/JaimeStill/certifier/pkg/handlers"
	"github.com/JaimeStill/certifier/pkg/middleware"
	"github.com/JaimeStill/certifier/pkg/routes"
)

// Service is the engine surface served over HTTP.
type Service interface {
	Analyze(ctx context.Context, req Request) (*Response, error)
	Status() Status
	RefreshProviders(ctx context.Context) []providers.Provider
}

// Handler provides HTTP endpoints for certification.
type Handler struct {
	svc         Service
	logger      *slog.Logger
	maxBodySize int64
}

// NewHandler creates a Handler. Analyze request bodies are capped at maxBodySize bytes.
func NewHandler(svc Service, logger *slog.Logger, maxBodySize int64) *Handler {
	return &Handler{
		svc:         svc,
		logger:      logger.With("handler", "qec"),
		maxBodySize: maxBodySize,
	}
}

// Routes returns the route group definition for certification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/qec",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/status", Handler: h.Status, OpenAPI: statusOp},
			{Method: "POST", Pattern: "/providers/refresh", Handler: h.Refresh, OpenAPI: refreshOp},
		},
		Children: []routes.Group{
			{
				Middleware: []middleware.Func{middleware.MaxBytes(h.maxBodySize)},
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/analyze", Handler: h.Analyze, OpenAPI: analyzeOp},
				},
			},
		},
	}
}

type rejected struct {
	*Response
	Error string `json:"error"`
}

// Analyze certifies the requirement in the request body.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		handlers.RespondError(w, h.logger, status, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	resp, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		status := MapHTTPStatus(err)
		if status == http.StatusBadRequest && resp != nil {
			h.logger.Warn("request rejected", "status", status, "error", err)
			handlers.RespondJSON(w, status, rejected{Response: resp, Error: err.Error()})
			return
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

// Status reports service and provider status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.svc.Status())
}

// Refresh re-probes every backend and returns the new availability.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"providers": h.svc.RefreshProviders(r.Context()),
	})
}
