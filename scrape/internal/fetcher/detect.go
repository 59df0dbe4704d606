package fetcher

import "strings"

// DefaultBlockMarkers are challenge fragments that mean the portal (or a
// CDN in front of it) refused the request. The list is configuration,
// not policy: deployments override it as the portal's defenses change.
var DefaultBlockMarkers = []string{
	"access denied",
	"just a moment",
	"cf-challenge",
	"verify you are human",
	"unusual traffic",
	"request blocked",
}

// DefaultNotFoundMarkers identify dead detail pages served with a 200.
var DefaultNotFoundMarkers = []string{
	"page not found",
	"no longer available",
	"notice does not exist",
}

// Detector classifies fetched HTML by marker substrings,
// case-insensitively.
type Detector struct {
	block    []string
	notFound []string
}

// NewDetector builds a Detector. Nil marker slices fall back to the
// defaults.
func NewDetector(blockMarkers, notFoundMarkers []string) *Detector {
	if blockMarkers == nil {
		blockMarkers = DefaultBlockMarkers
	}
	if notFoundMarkers == nil {
		notFoundMarkers = DefaultNotFoundMarkers
	}
	return &Detector{block: lowerAll(blockMarkers), notFound: lowerAll(notFoundMarkers)}
}

// Classify maps page HTML to ErrBlocked, ErrNotFound, or nil.
func (d *Detector) Classify(html string) error {
	lower := strings.ToLower(html)
	for _, m := range d.block {
		if strings.Contains(lower, m) {
			return ErrBlocked
		}
	}
	for _, m := range d.notFound {
		if strings.Contains(lower, m) {
			return ErrNotFound
		}
	}
	return nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
