package extract

import (
	"regexp"
	"strings"

	"github.com/amishk599/canjobs/internal/model"
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Checked in order: remote, hybrid, onsite. Text is lowercased first.
var (
	remotePhrases = compileAll(
		`\bremote(-first)?\b`, `work\s+from\s+home`, `\bwfh\b`, `\banywhere\b`,
		`fully\s+remote`, `remote\s+within\s+canada`, `remote\s+across`,
	)
	hybridPhrases = compileAll(
		`\bhybrid\b`, `\b(\d|one|two|three)\s+(?:days?|d)/?\s*(?:in|at)\s+(?:the\s+)?office\b`,
		`partially\s+remote`, `split\s+time\s+between\s+home\s+and\s+office`,
	)
	onsitePhrases = compileAll(
		`\bon[\s-]?site\b`, `in[-\s]?person`, `\bin\s+office\b`, `must\s+be\s+on\s+site`,
	)
)

// WorkMode classifies text as Remote, Hybrid, Onsite or Not mentioned.
func WorkMode(text string) model.WorkMode {
	if text == "" {
		return model.WorkModeNotMentioned
	}
	t := strings.ToLower(Normalize(text))
	switch {
	case anyMatch(remotePhrases, t):
		return model.WorkModeRemote
	case anyMatch(hybridPhrases, t):
		return model.WorkModeHybrid
	case anyMatch(onsitePhrases, t):
		return model.WorkModeOnsite
	}
	return model.WorkModeNotMentioned
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
