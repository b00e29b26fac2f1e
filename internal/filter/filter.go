package filter

import (
	"strings"

	"github.com/amishk599/canjobs/internal/model"
)

// TitleAndLocationFilter keeps developer jobs by title and location keywords.
// A job must contain one of the title keywords, none of the excluded title
// keywords, one of the locations and none of the excluded locations.
// Matching is case-insensitive. Empty keyword lists are treated as "match all".
type TitleAndLocationFilter struct {
	titleKeywords    []string
	titleExcludes    []string
	locations        []string
	excludeLocations []string
}

// NewTitleAndLocationFilter returns a filter over lowercase copies of the keyword lists.
func NewTitleAndLocationFilter(titleKeywords, titleExcludes, locations, excludeLocations []string) *TitleAndLocationFilter {
	return &TitleAndLocationFilter{
		titleKeywords:    lowerAll(titleKeywords),
		titleExcludes:    lowerAll(titleExcludes),
		locations:        lowerAll(locations),
		excludeLocations: lowerAll(excludeLocations),
	}
}

// Match returns true if the job passes all four keyword lists.
func (f *TitleAndLocationFilter) Match(job model.Job) bool {
	titleLower := strings.ToLower(job.Title)
	locationLower := strings.ToLower(job.Location)

	if len(f.titleKeywords) > 0 && !containsAny(titleLower, f.titleKeywords) {
		return false
	}
	if containsAny(titleLower, f.titleExcludes) {
		return false
	}
	if len(f.locations) > 0 && !containsAny(locationLower, f.locations) {
		return false
	}
	if containsAny(locationLower, f.excludeLocations) {
		return false
	}
	return true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
