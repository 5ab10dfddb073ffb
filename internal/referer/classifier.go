package referer

import (
	"net/url"
	"strings"

	"github.com/jonesrussell/referer-classifier/internal/domain"
	"github.com/jonesrussell/referer-classifier/internal/logger"
)

// Classifier resolves referer URLs against an immutable dataset.
//
// Classify is a pure function of its inputs and the held dataset: it performs
// no I/O and is safe for concurrent use.
type Classifier struct {
	dataset Dataset
	logger  logger.Logger
}

// NewClassifier creates a classifier over a loaded dataset.
func NewClassifier(dataset Dataset, log logger.Logger) *Classifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &Classifier{
		dataset: dataset,
		logger:  log,
	}
}

// Dataset returns the held dataset.
func (c *Classifier) Dataset() Dataset {
	return c.dataset
}

// Classify determines the attribution of a referer URL.
//
// A nil result means the referer is not classifiable: it failed to parse, its
// scheme is not http or https, or it has no host. That is distinct from an
// unknown result, which is a well-formed referer with no dataset entry.
//
// The referer is internal when its host equals pageHost byte-for-byte, or
// equals any entry of internalDomains after trimming surrounding whitespace
// from that entry. Otherwise the dataset decides, with search-term extraction
// for search sources.
func (c *Classifier) Classify(refererURL, pageHost string, internalDomains []string) *domain.Result {
	u, err := url.Parse(refererURL)
	if err != nil {
		c.logger.Debug("referer did not parse as a URL",
			logger.String("referer", refererURL),
			logger.Error(err),
		)
		return nil
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}

	host := u.Hostname()
	if host == "" {
		return nil
	}

	if pageHost != "" && host == pageHost {
		return domain.InternalResult()
	}
	for _, d := range internalDomains {
		if host == strings.TrimSpace(d) {
			return domain.InternalResult()
		}
	}

	entry, ok := c.dataset.Lookup(host, u.Path)
	if !ok {
		return domain.UnknownResult()
	}

	switch entry.Medium {
	case domain.MediumUnknown:
		// The dataset explicitly marks this source as unclassified.
		return domain.UnknownResult()
	case domain.MediumInternal:
		return domain.InternalResult()
	case domain.MediumSearch:
		result := &domain.Result{
			Medium: domain.MediumSearch,
			Source: entry.Source,
		}
		if u.RawQuery != "" {
			if term, found := extractSearchTerm(u.RawQuery, entry.Parameters); found {
				result.SearchTerm = &term
			}
		}
		return result
	default:
		return &domain.Result{
			Medium: entry.Medium,
			Source: entry.Source,
		}
	}
}

// ClassifyWithPageURL extracts the host from a page URL and delegates to
// Classify. An unparseable page URL contributes an empty page host.
func (c *Classifier) ClassifyWithPageURL(refererURL, pageURL string, internalDomains []string) *domain.Result {
	pageHost := ""
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			pageHost = u.Hostname()
		}
	}
	return c.Classify(refererURL, pageHost, internalDomains)
}

// hostsToTry produces every right-aligned dot suffix of host, most specific
// first, excluding the empty suffix: "www.google.com" yields
// ["www.google.com", "google.com", "com"].
func hostsToTry(host string) []string {
	labels := strings.Split(host, ".")
	hosts := make([]string, 0, len(labels))
	for i := range labels {
		hosts = append(hosts, strings.Join(labels[i:], "."))
	}
	return hosts
}

// pathsToTry produces the path fallback candidates in order: the full path,
// then its first segment, then the empty path. A path with no non-empty
// segment yields only the empty candidate.
func pathsToTry(path string) []string {
	firstSegment := ""
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			firstSegment = seg
			break
		}
	}
	if firstSegment == "" {
		return []string{""}
	}
	return []string{path, "/" + firstSegment, ""}
}

// extractSearchTerm returns the value of the first query pair, in original
// query order, whose percent-decoded key is one of the known parameter names.
// A pair without "=" is treated as a key with an empty value. Keys and values
// that fail to percent-decode are used as written.
func extractSearchTerm(rawQuery string, parameters []string) (string, bool) {
	if len(parameters) == 0 {
		return "", false
	}

	known := make(map[string]struct{}, len(parameters))
	for _, p := range parameters {
		known[p] = struct{}{}
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if _, ok := known[key]; !ok {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		return value, true
	}

	return "", false
}
