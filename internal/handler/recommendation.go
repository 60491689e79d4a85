package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// GET /customers/{customerID}/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid customer_id parameter")
		return
	}

	opts, err := h.parseOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	recs, err := h.service.GetRecommendations(r.Context(), customerID, opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	res := recs.Result
	writeJSON(w, http.StatusOK, RecommendationResponse{
		CustomerID:      recs.CustomerID,
		Recommendations: res.Items,
		Metadata: domain.RecommendationMeta{
			Mode:            res.Mode,
			Backfilled:      res.Backfilled,
			InterestMatched: res.InterestMatched(),
			HasSignals:      recs.HasSignals,
			Warnings:        res.Warnings,
			CacheHit:        recs.CacheHit,
			GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
			TotalCount:      len(res.Items),
		},
	})
}
