package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/amishk599/canjobs/internal/model"
)

// Tried in order; the first acceptable match wins.
var salaryPatterns = []*regexp.Regexp{
	// $80,000 - $100,000 per year / 80k to 95k / $80-100k
	regexp.MustCompile(`(?i)(?P<cur>\$|USD|CAD|C\$)?\s?(?P<a>\d+k|\d{1,3}(?:,\d{3})+|\d{4,7}|\d{2,3})\s*(?:-|to)\s*(?P<cur2>\$|USD|CAD|C\$)?\s?(?P<b>\d+k|\d{1,3}(?:,\d{3})+|\d{4,7}|\d{2,3})\s*(?P<unit>per\s*year|/year|annum|annual|year\b)?`),
	// $45 - 55 per hour / 30/hr
	regexp.MustCompile(`(?i)(?P<cur>\$|USD|CAD|C\$)?\s?(?P<a>\d{1,3})(?:\s*(?:-|to)\s*(?P<b>\d{1,3}))?\s*(?P<unit>per\s*hour|/hour|hour|hr|/hr)\b`),
	// $120k per year
	regexp.MustCompile(`(?i)(?P<cur>\$|USD|CAD|C\$)?\s?(?P<a>\d+k|\d{1,3}(?:,\d{3})+|\d{4,7}|\d{2,3})\s*(?P<unit>per\s*year|/year|annum|annual|year)\b`),
}

// Salary finds the first salary figure in text. A figure needs a currency, a
// k suffix or an explicit unit ("per year", "/hr", "annum") to count, so bare
// ranges like "2023-2024" or "24 hour support" are skipped.
func Salary(text string) (model.Salary, bool) {
	if text == "" {
		return model.Salary{}, false
	}
	for _, re := range salaryPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if s, ok := salaryFromMatch(re, m); ok {
				return s, true
			}
		}
	}
	return model.Salary{}, false
}

func salaryFromMatch(re *regexp.Regexp, m []string) (model.Salary, bool) {
	group := func(name string) string {
		if i := re.SubexpIndex(name); i >= 0 && i < len(m) {
			return m[i]
		}
		return ""
	}

	cur := group("cur")
	if cur == "" {
		cur = group("cur2")
	}
	rawA, rawB, rawUnit := group("a"), group("b"), strings.ToLower(group("unit"))
	kA, kB := hasKSuffix(rawA), hasKSuffix(rawB)
	hasK := kA || kB
	if cur == "" && !hasK && !explicitUnit(rawUnit) {
		return model.Salary{}, false
	}

	minV, ok := parseMoney(rawA)
	if !ok || minV <= 0 {
		return model.Salary{}, false
	}
	var maxV float64
	if rawB != "" {
		maxV, ok = parseMoney(rawB)
		if !ok || maxV <= 0 {
			return model.Salary{}, false
		}
		// "80-100k": a k on one end scales a bare hundreds figure on the other.
		switch {
		case kB && !kA && minV < 1000:
			minV *= 1000
		case kA && !kB && maxV < 1000:
			maxV *= 1000
		}
		if maxV < minV {
			minV, maxV = maxV, minV
		}
	}

	return model.Salary{
		Min:      minV,
		Max:      maxV,
		Currency: normalizeCurrency(cur),
		Unit:     salaryUnit(rawUnit, minV),
	}, true
}

func hasKSuffix(tok string) bool {
	return strings.HasSuffix(strings.ToLower(tok), "k")
}

func explicitUnit(unit string) bool {
	return strings.HasPrefix(unit, "per") || strings.HasPrefix(unit, "/") ||
		strings.Contains(unit, "annum") || strings.Contains(unit, "annual")
}

// parseMoney turns "80,000" or "80k" into 80000.
func parseMoney(tok string) (float64, bool) {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tok)), ",", "")
	if s == "" {
		return 0, false
	}
	mult := 1.0
	if strings.HasSuffix(s, "k") {
		s = strings.TrimSuffix(s, "k")
		mult = 1000
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

func normalizeCurrency(cur string) string {
	switch strings.ToUpper(cur) {
	case "$", "USD":
		return "$"
	case "CAD", "C$":
		return "CAD"
	}
	return ""
}

// salaryUnit maps the matched unit text; with no unit, figures under 1000 are
// taken as hourly.
func salaryUnit(unit string, minV float64) string {
	switch {
	case strings.Contains(unit, "hour"), strings.Contains(unit, "hr"):
		return model.SalaryPerHour
	case strings.Contains(unit, "year"), strings.Contains(unit, "annum"), strings.Contains(unit, "annual"):
		return model.SalaryPerYear
	case minV < 1000:
		return model.SalaryPerHour
	default:
		return model.SalaryPerYear
	}
}
