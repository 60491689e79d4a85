package domain

type ScoringMode string

const (
	ModeCategoryMatch   ScoringMode = "category_match"
	ModeProbabilityRank ScoringMode = "probability_rank"
	ModeSimilarityRank  ScoringMode = "similarity_rank"
)

func (m ScoringMode) Valid() bool {
	switch m {
	case ModeCategoryMatch, ModeProbabilityRank, ModeSimilarityRank:
		return true
	}
	return false
}

// Source tells whether an item was interest-matched or drawn by backfill.
type Source string

const (
	SourceInterest Source = "interest"
	SourceBackfill Source = "backfill"
)

type WarningCode string

const (
	WarningMissingScoreField WarningCode = "missing_score_field"
	WarningEmbeddingFailure  WarningCode = "embedding_failure"
)

// Warning is a non-fatal data-quality condition returned alongside a result.
type Warning struct {
	Code      WarningCode `json:"code"`
	ProductID string      `json:"product_id,omitempty"`
	Message   string      `json:"message"`
}

type Recommendation struct {
	Product Product  `json:"product"`
	Score   *float64 `json:"score,omitempty"`
	Matched bool     `json:"matched"`
	Source  Source   `json:"source"`
}

type RecommendationResult struct {
	Items      []Recommendation `json:"items"`
	Mode       ScoringMode      `json:"mode"`
	Backfilled int              `json:"backfilled"`
	Warnings   []Warning        `json:"warnings,omitempty"`
}

// InterestMatched is false when every item came from backfill.
func (r *RecommendationResult) InterestMatched() bool {
	for _, it := range r.Items {
		if it.Matched {
			return true
		}
	}
	return false
}

type RecommendationMeta struct {
	Mode            ScoringMode `json:"mode"`
	Backfilled      int         `json:"backfilled"`
	InterestMatched bool        `json:"interest_matched"`
	HasSignals      bool        `json:"has_signals"`
	Warnings        []Warning   `json:"warnings,omitempty"`
	CacheHit        bool        `json:"cache_hit"`
	GeneratedAt     string      `json:"generated_at"`
	TotalCount      int         `json:"total_count"`
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type BatchCustomerResult struct {
	CustomerID      string           `json:"customer_id"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	InterestMatched bool             `json:"interest_matched"`
	Status          string           `json:"status"`
	Error           string           `json:"error,omitempty"`
	Message         string           `json:"message,omitempty"`
}

type BatchSummary struct {
	SuccessCount     int   `json:"success_count"`
	FailedCount      int   `json:"failed_count"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type BatchMeta struct {
	GeneratedAt string `json:"generated_at"`
}

type BatchResponse struct {
	Page           int                   `json:"page"`
	Limit          int                   `json:"limit"`
	TotalCustomers int                   `json:"total_customers"`
	Results        []BatchCustomerResult `json:"results"`
	Summary        BatchSummary          `json:"summary"`
	Metadata       BatchMeta             `json:"metadata"`
}
