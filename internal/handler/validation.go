package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var queryNames = map[string]string{
	"K":             "k",
	"Mode":          "mode",
	"MinPrice":      "min_price",
	"MaxPrice":      "max_price",
	"PurchaseMatch": "purchase_match",
	"Backfill":      "backfill",
	"Page":          "page",
	"Limit":         "limit",
}

// firstField names the query parameter behind the first validation failure.
func firstField(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if name, ok := queryNames[verrs[0].Field()]; ok {
			return name
		}
		return strings.ToLower(verrs[0].Field())
	}
	return fallback
}
