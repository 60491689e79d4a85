package catalog

import (
	"regexp"
	"strings"
)

const (
	colCustomerID      = "customer_id|id"
	colCustomerName    = "customer_name|name"
	colAge             = "age"
	colGender          = "gender"
	colLocation        = "location"
	colInterests       = "interests"
	colBrowsingHistory = "browsing_history"
	colPurchaseHistory = "purchase_history"

	colProductID   = "product_id|id"
	colProductName = "product_name|name"
	colCategory    = "category"
	colSubcategory = "subcategory"
	colPrice       = "price"
	colDescription = "description"
	colBrand       = "brand"
	colRating      = "product_rating|rating"
	colSentiment   = "customer_review_sentiment_score|sentiment"
	colProbability = "probability_of_recommendation|probability"
	colRelated     = "similar_product_list|related"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey lowercases a header and collapses punctuation and spacing, so
// "Customer Name", "customer_name" and "CUSTOMER-NAME" compare equal.
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// columns maps normalized header names to the headers found in a file.
type columns map[string]string

func newColumns(rows []map[string]string) columns {
	cols := make(columns)
	if len(rows) == 0 {
		return cols
	}
	for h := range rows[0] {
		cols[normHeaderKey(h)] = h
	}
	return cols
}

// resolve returns the real header for want, which may list alternatives
// separated by "|", tried in order.
func (c columns) resolve(want string) (string, bool) {
	for _, alt := range strings.Split(want, "|") {
		if h, ok := c[normHeaderKey(alt)]; ok {
			return h, true
		}
	}
	return "", false
}
