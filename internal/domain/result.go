package domain

// Result is the outcome of classifying a referer URL.
//
// Source is the human-readable name from the dataset (e.g. "Google") and is
// empty for internal and unknown results. SearchTerm is set only for search
// results whose query string carried a known search parameter.
type Result struct {
	Medium     Medium  `json:"medium"`
	Source     string  `json:"source,omitempty"`
	SearchTerm *string `json:"search_term,omitempty"`
}

// InternalResult returns the result for a referer on the site's own domain.
func InternalResult() *Result {
	return &Result{Medium: MediumInternal}
}

// UnknownResult returns the result for a referer with no dataset entry.
func UnknownResult() *Result {
	return &Result{Medium: MediumUnknown}
}
