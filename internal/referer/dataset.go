// Package referer implements the referer attribution core: the flattened
// lookup dataset, the strict dataset loader, and the host/path fallback
// classifier.
package referer

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/referer-classifier/internal/domain"
)

// Dataset load errors. Loading is all-or-nothing: any of these aborts the
// entire load and no partial dataset is returned.
var (
	// ErrMalformedDocument indicates the raw document did not parse into the
	// expected medium -> source -> spec shape.
	ErrMalformedDocument = errors.New("malformed referer document")
	// ErrUnknownMedium indicates a top-level key that is not one of the six
	// canonical medium names.
	ErrUnknownMedium = errors.New("unknown medium")
	// ErrMissingDomains indicates a source entry without a domains list.
	ErrMissingDomains = errors.New("missing domains")
)

// SourceSpec describes one named referer source in the dataset document.
// Parameters is optional and only meaningful for search sources.
type SourceSpec struct {
	Domains    []string `json:"domains"              yaml:"domains"`
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Document is the parsed dataset document: medium name -> source display
// name -> source spec.
type Document map[string]map[string]SourceSpec

// Entry is one known referer source at a single host+path lookup key.
type Entry struct {
	Medium     domain.Medium
	Source     string
	Parameters []string
}

// Dataset maps the composite host+path key (plain concatenation, no
// separator) to its lookup entry. It is built once by NewDataset and never
// mutated afterwards, so a single Dataset is safe to share across any number
// of concurrent lookups without locking.
type Dataset map[string]Entry

// ParseDataset unmarshals raw document bytes and builds the dataset.
// YAML is a superset of JSON, so both snapshot formats parse here.
func ParseDataset(raw []byte) (Dataset, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return NewDataset(doc)
}

// NewDataset validates a document and flattens it into lookup entries.
//
// Every top-level key must resolve to a known medium and every source must
// declare a domains list; violating either fails the whole load with an error
// naming the offending key. Each domain string is a complete lookup key as
// written (path-scoped sources include their path in the domain string).
// Later entries overwrite earlier ones sharing the same key.
func NewDataset(doc Document) (Dataset, error) {
	ds := make(Dataset)

	// Insert in a stable medium order so duplicate keys resolve the same way
	// on every load of the same document.
	mediumNames := make([]string, 0, len(doc))
	for name := range doc {
		mediumNames = append(mediumNames, name)
	}
	sort.Strings(mediumNames)

	for _, mediumName := range mediumNames {
		medium, ok := domain.MediumFromString(mediumName)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMedium, mediumName)
		}

		sources := doc[mediumName]
		sourceNames := make([]string, 0, len(sources))
		for name := range sources {
			sourceNames = append(sourceNames, name)
		}
		sort.Strings(sourceNames)

		for _, sourceName := range sourceNames {
			spec := sources[sourceName]
			if spec.Domains == nil {
				return nil, fmt.Errorf("%w: source %q under medium %q", ErrMissingDomains, sourceName, mediumName)
			}

			params := spec.Parameters
			if params == nil {
				params = []string{}
			}

			entry := Entry{
				Medium:     medium,
				Source:     sourceName,
				Parameters: params,
			}
			for _, dom := range spec.Domains {
				// Last write wins on duplicate keys.
				ds[dom] = entry
			}
		}
	}

	return ds, nil
}

// Lookup finds the entry for a referer host and path, if any.
//
// Candidates are tried path-major, host-minor: each path candidate, from most
// to least specific, is combined with every host suffix (most specific first)
// before the next path candidate is considered. The first hit wins.
func (d Dataset) Lookup(host, path string) (Entry, bool) {
	hosts := hostsToTry(host)
	for _, p := range pathsToTry(path) {
		for _, h := range hosts {
			if entry, ok := d[h+p]; ok {
				return entry, true
			}
		}
	}
	return Entry{}, false
}

// Stats summarizes a loaded dataset for the API and startup logging.
type Stats struct {
	Entries  int                   `json:"entries"`
	Sources  int                   `json:"sources"`
	ByMedium map[domain.Medium]int `json:"by_medium"`
}

// Stats returns entry and source counts grouped by medium.
func (d Dataset) Stats() Stats {
	stats := Stats{
		Entries:  len(d),
		ByMedium: make(map[domain.Medium]int),
	}
	seen := make(map[string]struct{})
	for _, entry := range d {
		stats.ByMedium[entry.Medium]++
		seen[entry.Source] = struct{}{}
	}
	stats.Sources = len(seen)
	return stats
}
