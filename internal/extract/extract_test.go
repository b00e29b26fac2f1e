package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/canjobs/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"html entities", "R&amp;D &lt;team&gt;", "R&D <team>"},
		{"dashes", "3–5 years — remote − maybe", "3-5 years - remote - maybe"},
		{"nbsp and bullets", "• Go • Rust\n\n● SQL", "Go Rust SQL"},
		{"fullwidth folded by nfkc", "Ｇｏ developer", "Go developer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSkills_OrderedByFirstAppearance(t *testing.T) {
	text := "We build with TypeScript and React on AWS. Python is a plus. More React."
	got := Skills(text, 8)
	assert.Equal(t, []string{"typescript", "react", "aws", "python"}, got)
}

func TestSkills_WordBoundaries(t *testing.T) {
	got := Skills("Experience in Golang; no javascript-free zones; restful design", 8)
	assert.Contains(t, got, "golang")
	assert.Contains(t, got, "javascript")
	assert.NotContains(t, got, "java", "java must not match inside javascript")
	assert.NotContains(t, got, "go", "go must not match inside golang")
	assert.NotContains(t, got, "rest", "rest must not match inside restful")
}

func TestSkills_SpaceMatchesSeparators(t *testing.T) {
	got := Skills("Our stack: spring-boot, github_actions", 8)
	assert.Contains(t, got, "spring boot")
	assert.Contains(t, got, "github actions")
}

func TestSkills_ExperiencePhrases(t *testing.T) {
	got := Skills("Candidates need experience with event sourcing and message queues.", 8)
	assert.Equal(t, []string{"event sourcing", "message queues."}, got)
}

func TestSkills_CappedAtLimit(t *testing.T) {
	text := "python java rust ruby php kotlin swift react vue angular docker kubernetes"
	got := Skills(text, model.MaxSkills)
	require.Len(t, got, model.MaxSkills)
	assert.Equal(t, "python", got[0])
}

func TestSkills_EmptyText(t *testing.T) {
	assert.Empty(t, Skills("", 8))
}

func TestYears(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"range", "Requires 5-10 years of experience", "5–10 years", true},
		{"range with to", "3 to 5 yrs in backend", "3–5 years", true},
		{"plus", "You have 3+ years building APIs", "3+ years", true},
		{"plus word", "4 plus years", "4+ years", true},
		{"at least", "at least 2 years with Go", "at least 2 years", true},
		{"minimum", "Minimum of 6 years", "minimum 6 years", true},
		{"over", "more than 7 years", "over 7 years", true},
		{"years of experience", "4 years of professional experience", "4 years", true},
		{"experience colon", "Experience: 6+ Years", "6+ years", true},
		{"range preferred over earlier single", "2 years of team experience; overall 5-8 years", "5–8 years", true},
		{"first single when no range", "at least 2 years Go, 4 years of cloud experience", "at least 2 years", true},
		{"none", "We value curiosity", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Years(Normalize(tt.in))
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestYears_InvertedRangeIsOrdered(t *testing.T) {
	got, ok := Years("8-5 years")
	require.True(t, ok)
	assert.Equal(t, 5, got.Min)
	assert.Equal(t, 8, got.Max)
}

func TestWorkMode(t *testing.T) {
	tests := []struct {
		in   string
		want model.WorkMode
	}{
		{"This is a fully remote role", model.WorkModeRemote},
		{"Work from home across Canada", model.WorkModeRemote},
		{"Hybrid, 3 days in the office", model.WorkModeHybrid},
		{"two days at office each week", model.WorkModeHybrid},
		{"Must be on-site in Toronto", model.WorkModeOnsite},
		{"In-person collaboration", model.WorkModeOnsite},
		{"Great benefits", model.WorkModeNotMentioned},
		{"", model.WorkModeNotMentioned},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, WorkMode(tt.in))
		})
	}
}

func TestSalary(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"dollar range per year", "Pay: $80,000 - $100,000 per year", "$ 80,000 – 100,000 per year", true},
		{"cad range k", "CAD 90k to 110k annually", "CAD 90,000 – 110,000 per year", true},
		{"hourly", "$45 - 55 per hour", "$ 45 – 55 per hour", true},
		{"hourly slash", "Rate 30/hr", "30 per hour", true},
		{"single per year", "C$120k per year", "CAD 120,000 per year", true},
		{"k on upper bound only", "Salary $80-100k", "$ 80,000 – 100,000 per year", true},
		{"k on upper bound with unit", "Compensation: $80-100k per year", "$ 80,000 – 100,000 per year", true},
		{"k on lower bound only", "CAD 90k - 110 annually", "CAD 90,000 – 110,000 per year", true},
		{"six digits without commas", "$100000 - $120000 per year", "$ 100,000 – 120,000 per year", true},
		{"years is not salary", "10-15 years of experience", "", false},
		{"bare year range is not salary", "Founded 2010, growing since 2023-2024", "", false},
		{"24 hour is not salary", "24 hour support rotation", "", false},
		{"none", "competitive compensation", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Salary(Normalize(tt.in))
			require.Equal(t, tt.wantOK, ok, "match %+v", got)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestAnalyze_FullPosting(t *testing.T) {
	text := `<p>Senior Backend Developer &ndash; Toronto</p>
	<ul><li>5+ years of experience with Java, Spring Boot and PostgreSQL</li>
	<li>Hybrid: 2 days in the office</li></ul>
	Salary: $120,000 – $140,000 per year`

	a := Analyze(text)
	require.NoError(t, a.Validate())
	assert.Equal(t, model.SourceRegex, a.Source)
	assert.Equal(t, model.WorkModeHybrid, a.WorkMode)
	assert.Equal(t, "5+ years", a.YearsText())
	assert.Equal(t, "$ 120,000 – 140,000 per year", a.SalaryText())
	assert.Contains(t, a.Skills, "java")
	assert.Contains(t, a.Skills, "spring boot")
	assert.LessOrEqual(t, len(a.Skills), model.MaxSkills)
}

func TestAnalyze_EmptyText(t *testing.T) {
	a := Analyze("")
	require.NoError(t, a.Validate())
	assert.Empty(t, a.Skills)
	assert.Nil(t, a.Years)
	assert.Nil(t, a.Salary)
	assert.Equal(t, model.WorkModeNotMentioned, a.WorkMode)
	assert.Equal(t, model.NotMentioned, a.YearsText())
	assert.Equal(t, model.NotMentioned, a.SalaryText())
}
