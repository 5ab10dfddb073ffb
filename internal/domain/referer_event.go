package domain

import "time"

// RefererEvent represents a single classified referer hit to be recorded.
type RefererEvent struct {
	ID           string    `json:"id"`
	RefererURL   string    `json:"referer_url"`
	RefererHost  string    `json:"referer_host"`
	PageHost     string    `json:"page_host,omitempty"`
	Medium       Medium    `json:"medium"`
	Source       string    `json:"source,omitempty"`
	SearchTerm   string    `json:"search_term,omitempty"`
	ClassifiedAt time.Time `json:"classified_at"`
}
