package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GET /customers
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	pq, err := h.parsePage(r.URL.Query(), 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	customers, total, err := h.service.ListCustomers(r.Context(), pq.Page, pq.Limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CustomerListResponse{
		Page:      pq.Page,
		Limit:     pq.Limit,
		Total:     total,
		Customers: customers,
	})
}

// GET /customers/{customerID}
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.GetCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}
