// Package extract implements the regex-based job text analysis used when no
// AI call is made or the AI call fails.
package extract

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/amishk599/canjobs/internal/model"
)

var (
	bulletRegex     = regexp.MustCompile(`[•·●▪▶►]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	dashReplacer    = strings.NewReplacer("–", "-", "—", "-", "−", "-", " ", " ")
)

// Normalize unescapes HTML entities, applies NFKC, folds dash variants to '-',
// drops bullet glyphs and collapses whitespace.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := norm.NFKC.String(html.UnescapeString(text))
	t = dashReplacer.Replace(t)
	t = bulletRegex.ReplaceAllString(t, " ")
	t = whitespaceRegex.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Analyze runs every extractor over text and returns a regex-sourced Analysis.
func Analyze(text string) model.Analysis {
	t := Normalize(text)
	a := model.Analysis{
		Skills:   Skills(t, model.MaxSkills),
		WorkMode: WorkMode(t),
		Source:   model.SourceRegex,
	}
	if y, ok := Years(t); ok {
		a.Years = &y
	}
	if s, ok := Salary(t); ok {
		a.Salary = &s
	}
	return a
}
