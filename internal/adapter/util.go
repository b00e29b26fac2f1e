package adapter

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/canjobs/internal/model"
)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles Greenhouse's double-encoding;
// no-op on already-real HTML), parses the markup and keeps only the text,
// then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	if !strings.ContainsRune(unescaped, '<') {
		return strings.Join(strings.Fields(unescaped), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
	if err != nil {
		return strings.Join(strings.Fields(unescaped), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// matchesSearch reports whether a company-board location belongs to the search.
// A specific city must appear in the location. Otherwise the location must
// mention Canada or one of the configured cities.
func matchesSearch(location string, search model.Search, cities []string) bool {
	loc := strings.ToLower(location)
	if !model.IsAllCanada(search.City) {
		return strings.Contains(loc, strings.ToLower(model.CityFromLocation(search.City)))
	}
	if strings.Contains(loc, "canada") {
		return true
	}
	for _, c := range cities {
		if model.IsAllCanada(c) {
			continue
		}
		if name := strings.ToLower(model.CityFromLocation(c)); name != "" && strings.Contains(loc, name) {
			return true
		}
	}
	return false
}
