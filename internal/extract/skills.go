package extract

import (
	"regexp"
	"sort"
	"strings"
)

var techTerms = []string{
	// languages
	"python", "java", "javascript", "typescript", "c#", ".net", ".net core", "c++", "go", "golang", "rust", "ruby", "php", "kotlin", "swift",
	// web/frontend
	"react", "react native", "vue", "angular", "next.js", "nuxt", "svelte", "tailwind", "webpack", "babel", "html", "css", "sass", "less",
	// backend/frameworks
	"spring", "spring boot", "django", "flask", "fastapi", "express", "node.js", "nodejs", "graphql", "rest", "grpc", "microservices",
	// data/storage
	"sql", "mysql", "postgresql", "postgres", "mariadb", "oracle", "mongodb", "dynamodb", "redis", "elasticsearch", "kafka", "rabbitmq",
	"spark", "hadoop", "hive", "airflow", "snowflake", "bigquery", "redshift", "databricks", "power bi", "tableau", "pandas", "numpy",
	// cloud/devops
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "ansible", "jenkins", "github actions", "gitlab ci", "ci/cd", "linux",
	// testing
	"pytest", "junit", "selenium", "cypress", "playwright", "jest", "mocha",
	// security
	"oauth", "oidc", "sso",
	// misc
	"jira", "agile", "scrum",
}

type termPattern struct {
	term string
	re   *regexp.Regexp
}

var termPatterns = compileTerms(techTerms)

// compileTerms builds one boundary-delimited pattern per term. A space inside a
// term also matches '-', '_' or '/' so "spring-boot" finds "spring boot".
func compileTerms(terms []string) []termPattern {
	out := make([]termPattern, 0, len(terms))
	for _, term := range terms {
		pat := regexp.QuoteMeta(term)
		pat = strings.ReplaceAll(pat, " ", `[ \-_/]+`)
		re := regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9])(` + pat + `)(?:$|[^A-Za-z0-9])`)
		out = append(out, termPattern{term: term, re: re})
	}
	return out
}

var (
	experiencePhraseRegex = regexp.MustCompile(`(?i)(?:experience\s+with|proficien(?:t|cy)\s+in|knowledge\s+of|familiar\s+with|hands[- ]on\s+with|expertise\s+in)\s+([A-Za-z0-9.+#/\- ]{2,80})`)
	phraseSplitRegex      = regexp.MustCompile(`(?i),|/| and |\bor\b|;`)
	multiSpaceRegex       = regexp.MustCompile(`\s{2,}`)
	alnumRegex            = regexp.MustCompile(`[A-Za-z0-9]`)
)

type skillHit struct {
	pos   int
	skill string
}

// Skills returns up to limit skills in order of first appearance. Known tech
// terms and the objects of phrases like "experience with" both count.
func Skills(text string, limit int) []string {
	if text == "" || limit <= 0 {
		return []string{}
	}

	var hits []skillHit
	for _, tp := range termPatterns {
		if loc := tp.re.FindStringSubmatchIndex(text); loc != nil {
			hits = append(hits, skillHit{pos: loc[2], skill: tp.term})
		}
	}

	for _, m := range experiencePhraseRegex.FindAllStringSubmatchIndex(text, -1) {
		frag := text[m[2]:m[3]]
		for _, part := range phraseSplitRegex.Split(frag, -1) {
			s := strings.ToLower(strings.TrimSpace(part))
			s = multiSpaceRegex.ReplaceAllString(s, " ")
			if len(s) >= 2 && len(s) <= 40 && alnumRegex.MatchString(s) {
				hits = append(hits, skillHit{pos: m[0], skill: s})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool, len(hits))
	skills := make([]string, 0, limit)
	for _, h := range hits {
		if seen[h.skill] {
			continue
		}
		seen[h.skill] = true
		skills = append(skills, h.skill)
		if len(skills) >= limit {
			break
		}
	}
	return skills
}
