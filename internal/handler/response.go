package handler

import "github.com/actuallystonmai/product-recommender/internal/domain"

type RecommendationResponse struct {
	CustomerID      string                    `json:"customer_id"`
	Recommendations []domain.Recommendation   `json:"recommendations"`
	Metadata        domain.RecommendationMeta `json:"metadata"`
}

type CustomerListResponse struct {
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
	Total     int               `json:"total"`
	Customers []domain.Customer `json:"customers"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
