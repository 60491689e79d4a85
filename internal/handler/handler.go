package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/service"
)

// Limits bounds the k query parameter.
type Limits struct {
	DefaultK int
	MaxK     int
}

type Handler struct {
	service  *service.Service
	limits   Limits
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewHandler(svc *service.Service, limits Limits, logger zerolog.Logger) *Handler {
	if limits.DefaultK <= 0 {
		limits.DefaultK = 3
	}
	if limits.MaxK < limits.DefaultK {
		limits.MaxK = max(50, limits.DefaultK)
	}
	return &Handler{
		service:  svc,
		limits:   limits,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "handler").Logger(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// writeServiceError maps a service error onto a status code.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := service.CategorizeError(err)

	status := http.StatusInternalServerError
	switch code {
	case "customer_not_found":
		status = http.StatusNotFound
	case "invalid_options":
		status = http.StatusBadRequest
	case "empty_catalog":
		status = http.StatusUnprocessableEntity
	case "request_timeout", "embedding_error":
		status = http.StatusServiceUnavailable
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, code, msg)
}

// Health reports whether the data store and cache respond.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
