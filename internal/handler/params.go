package handler

import (
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/matcher"
)

type recommendationQuery struct {
	K             int      `validate:"min=1"`
	Mode          string   `validate:"omitempty,oneof=category_match probability_rank similarity_rank"`
	MinPrice      *float64 `validate:"omitnil,gte=0"`
	MaxPrice      *float64 `validate:"omitnil,gte=0"`
	CaseSensitive bool
	PurchaseMatch string `validate:"omitempty,oneof=off within_price ignore_price"`
	Backfill      string `validate:"omitempty,oneof=catalog_order random"`
	Seed          *int64
}

type pageQuery struct {
	Page  int `validate:"min=1,max=10000"`
	Limit int `validate:"min=1,max=100"`
}

// paramError is a malformed or out-of-range query parameter.
type paramError struct {
	name string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("Invalid %s parameter", e.name)
}

func parseIntParam(q url.Values, name string, fallback int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name}
	}
	return v, nil
}

func parseFloatParam(q url.Values, name string) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &paramError{name: name}
	}
	return &v, nil
}

func (h *Handler) parsePage(q url.Values, defaultLimit int) (pageQuery, error) {
	var pq pageQuery
	var err error
	if pq.Page, err = parseIntParam(q, "page", 1); err != nil {
		return pq, err
	}
	if pq.Limit, err = parseIntParam(q, "limit", defaultLimit); err != nil {
		return pq, err
	}
	if err := h.validate.Struct(pq); err != nil {
		return pq, &paramError{name: firstField(err, "page")}
	}
	return pq, nil
}

// parseOptions turns query parameters into matcher options. Range checks
// across fields, such as min_price above max_price, are left to the matcher.
func (h *Handler) parseOptions(q url.Values) (matcher.Options, error) {
	var rq recommendationQuery
	var err error

	if rq.K, err = parseIntParam(q, "k", h.limits.DefaultK); err != nil {
		return matcher.Options{}, err
	}
	if rq.MinPrice, err = parseFloatParam(q, "min_price"); err != nil {
		return matcher.Options{}, err
	}
	if rq.MaxPrice, err = parseFloatParam(q, "max_price"); err != nil {
		return matcher.Options{}, err
	}
	if raw := q.Get("case_sensitive"); raw != "" {
		if rq.CaseSensitive, err = strconv.ParseBool(raw); err != nil {
			return matcher.Options{}, &paramError{name: "case_sensitive"}
		}
	}
	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return matcher.Options{}, &paramError{name: "seed"}
		}
		rq.Seed = &seed
	}
	rq.Mode = q.Get("mode")
	rq.PurchaseMatch = q.Get("purchase_match")
	rq.Backfill = q.Get("backfill")

	if err := h.validate.Struct(rq); err != nil {
		return matcher.Options{}, &paramError{name: firstField(err, "query")}
	}
	if rq.K > h.limits.MaxK {
		return matcher.Options{}, &paramError{name: "k"}
	}

	opts := matcher.DefaultOptions()
	opts.K = rq.K
	opts.CaseSensitive = rq.CaseSensitive
	if rq.Mode != "" {
		opts.Mode = domain.ScoringMode(rq.Mode)
	}
	if rq.PurchaseMatch != "" {
		opts.PurchaseMatch = matcher.PurchaseMatchPolicy(rq.PurchaseMatch)
	}
	if rq.Backfill != "" {
		opts.Backfill = matcher.BackfillPolicy(rq.Backfill)
	}
	if rq.MinPrice != nil || rq.MaxPrice != nil {
		pr := &matcher.PriceRange{Min: 0, Max: math.Inf(1)}
		if rq.MinPrice != nil {
			pr.Min = *rq.MinPrice
		}
		if rq.MaxPrice != nil {
			pr.Max = *rq.MaxPrice
		}
		opts.PriceRange = pr
	}

	if rq.Seed != nil {
		opts.Seed = *rq.Seed
	} else if opts.Backfill == matcher.BackfillRandom {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return opts, nil
}
