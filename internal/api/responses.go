package api

import (
	"github.com/jonesrussell/referer-classifier/internal/database"
	"github.com/jonesrussell/referer-classifier/internal/domain"
	"github.com/jonesrussell/referer-classifier/internal/referer"
)

// ClassifyRequest represents a single classification request. Either PageURL
// or PageHost may identify the visited page; PageURL wins when both are set.
type ClassifyRequest struct {
	RefererURL string `json:"referer_url" binding:"required"`
	PageURL    string `json:"page_url"`
	PageHost   string `json:"page_host"`
	// InternalDomains overrides the configured internal domain list for this
	// request only.
	InternalDomains []string `json:"internal_domains"`
}

// ClassifyResponse represents a classification response. Result is null when
// the referer could not be parsed as a classifiable URL.
type ClassifyResponse struct {
	Classifiable bool           `json:"classifiable"`
	Result       *domain.Result `json:"result"`
	Cached       bool           `json:"cached,omitempty"`
}

// BatchClassifyRequest represents a batch classification request.
type BatchClassifyRequest struct {
	Referers []ClassifyRequest `json:"referers" binding:"required,min=1"`
}

// BatchClassifyResponse represents a batch classification response.
type BatchClassifyResponse struct {
	Results []ClassifyResponse `json:"results"`
	Total   int                `json:"total"`
}

// DatasetResponse describes the loaded dataset snapshot.
type DatasetResponse struct {
	Stats referer.Stats `json:"stats"`
}

// StatsResponse aggregates recorded referer events.
type StatsResponse struct {
	TotalEvents int                   `json:"total_events"`
	ByMedium    []database.MediumStat `json:"by_medium"`
	TopSources  []database.SourceStat `json:"top_sources"`
}
