package domain

import "strings"

// Customer is a shopper profile. Age, Gender and Location are descriptive only.
type Customer struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Age             int      `json:"age,omitempty"`
	Gender          string   `json:"gender,omitempty"`
	Location        string   `json:"location,omitempty"`
	Interests       []string `json:"interests"`
	BrowsingHistory []string `json:"browsing_history,omitempty"`
	PurchaseHistory []string `json:"purchase_history,omitempty"`
}

// HasSignals reports whether any interest source carries a non-blank entry.
func (c *Customer) HasSignals() bool {
	for _, list := range [][]string{c.Interests, c.BrowsingHistory, c.PurchaseHistory} {
		for _, s := range list {
			if strings.TrimSpace(s) != "" {
				return true
			}
		}
	}
	return false
}
