package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/amishk599/canjobs/internal/model"
)

type yearsPattern struct {
	re        *regexp.Regexp
	isRange   bool
	qualifier string
}

// Patterns whose qualifier depends on an optional '+' use YearsExact and are
// promoted to YearsPlus when the match contains one.
var yearsPatterns = []yearsPattern{
	// 5-10 years / 5 to 10 years / 1 or 2 yrs
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:-|to|or)\s*(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`), isRange: true},
	// 3+ years / 3 plus years
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:\+|plus)\s*(?:years?|yrs?)\b`), qualifier: model.YearsPlus},
	// 3 years+
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:years?|yrs?)\s*\+\b`), qualifier: model.YearsPlus},
	{re: regexp.MustCompile(`(?i)\bat\s+least\s+(\d{1,2})\s*(?:years?|yrs?)\b`), qualifier: model.YearsAtLeast},
	{re: regexp.MustCompile(`(?i)\bmin(?:imum)?\s+(?:of\s+)?(\d{1,2})\s*(?:years?|yrs?)\b`), qualifier: model.YearsMinimum},
	{re: regexp.MustCompile(`(?i)\b(?:over|more\s+than)\s+(\d{1,2})\s*(?:years?|yrs?)\b`), qualifier: model.YearsOver},
	// 4 years of professional experience
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:years?|yrs?)\s+of\s+[^.\n]*?\bexperience\b`)},
	// 4 years' experience
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:years?|yrs?)\s*['’]?\s*experience\b`)},
	// Experience: 6+ Years
	{re: regexp.MustCompile(`(?i)\bexperience\s*[:\-]\s*(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)},
}

type yearsHit struct {
	pos   int
	years model.Years
}

// Years finds the experience requirement in text. Among all matches in text
// order the first range or "N+" form wins, otherwise the first match.
func Years(text string) (model.Years, bool) {
	if text == "" {
		return model.Years{}, false
	}

	seen := make(map[string]bool)
	var hits []yearsHit
	for _, p := range yearsPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			y, ok := p.years(text, m)
			if !ok {
				continue
			}
			key := y.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			hits = append(hits, yearsHit{pos: m[0], years: y})
		}
	}
	if len(hits) == 0 {
		return model.Years{}, false
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	for _, h := range hits {
		if h.years.IsRange() || h.years.Qualifier == model.YearsPlus {
			return h.years, true
		}
	}
	return hits[0].years, true
}

func (p yearsPattern) years(text string, m []int) (model.Years, bool) {
	first, err := strconv.Atoi(text[m[2]:m[3]])
	if err != nil {
		return model.Years{}, false
	}
	if p.isRange {
		second, err := strconv.Atoi(text[m[4]:m[5]])
		if err != nil {
			return model.Years{}, false
		}
		if second < first {
			first, second = second, first
		}
		if second == 0 {
			return model.Years{Min: 0}, true
		}
		return model.Years{Min: first, Max: second}, true
	}

	q := p.qualifier
	if q == model.YearsExact && strings.Contains(text[m[0]:m[1]], "+") {
		q = model.YearsPlus
	}
	return model.Years{Min: first, Qualifier: q}, true
}
