package domain

import (
	"fmt"
	"math"
)

type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Price       float64  `json:"price"`
	Description string   `json:"description,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Sentiment   *float64 `json:"sentiment,omitempty"`
	Probability *float64 `json:"probability,omitempty"`
	RelatedIDs  []string `json:"related_ids,omitempty"`
}

// Validate checks the catalog invariants loaders must enforce.
func (p *Product) Validate() error {
	if p.Category == "" {
		return fmt.Errorf("product %q: empty category", p.ID)
	}
	if p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return fmt.Errorf("product %q: invalid price %v", p.ID, p.Price)
	}
	if p.Probability != nil {
		v := *p.Probability
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("product %q: probability %v outside [0,1]", p.ID, v)
		}
	}
	return nil
}

// Text is the descriptive text used for similarity scoring.
func (p *Product) Text() string {
	if p.Description != "" {
		return p.Description
	}
	text := p.Name + " " + p.Category
	if p.Subcategory != "" {
		text += " " + p.Subcategory
	}
	return text
}
