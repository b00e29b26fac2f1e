package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/amishk599/canjobs/internal/extract"
	"github.com/amishk599/canjobs/internal/model"
)

// maxPromptChars bounds the job text sent to the LLM.
const maxPromptChars = 12000

// LLMAnalyzer implements model.JobAnalyzer using an LLM.
type LLMAnalyzer struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewLLMAnalyzer creates an analyzer that asks the LLM for a structured analysis.
func NewLLMAnalyzer(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// Analyze renders the prompt for text, calls the provider and sanitizes the reply.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string) (model.Analysis, error) {
	text = extract.Normalize(text)
	if text == "" {
		return model.Analysis{}, errors.New("empty job text")
	}
	if r := []rune(text); len(r) > maxPromptChars {
		text = string(r[:maxPromptChars])
	}

	var promptBuf bytes.Buffer
	if err := a.tmpl.Execute(&promptBuf, struct{ Text string }{Text: text}); err != nil {
		return model.Analysis{}, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := a.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return model.Analysis{}, fmt.Errorf("llm complete: %w", err)
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	return analysis, nil
}

// rawAnalysis is the JSON shape returned by the LLM (matches jobAnalysisSchema).
type rawAnalysis struct {
	Skills         []string `json:"skills"`
	YearsMin       int      `json:"years_min"`
	YearsMax       int      `json:"years_max"`
	YearsQualifier string   `json:"years_qualifier"`
	WorkMode       string   `json:"work_mode"`
	SalaryMin      float64  `json:"salary_min"`
	SalaryMax      float64  `json:"salary_max"`
	SalaryCurrency string   `json:"salary_currency"`
	SalaryUnit     string   `json:"salary_unit"`
}

// parseAnalysis converts the LLM reply into an Analysis that passes Validate.
// Values the model got wrong are dropped rather than rejected.
func parseAnalysis(raw string) (model.Analysis, error) {
	var ra rawAnalysis
	if err := json.Unmarshal([]byte(raw), &ra); err != nil {
		return model.Analysis{}, fmt.Errorf("unmarshal analysis JSON: %w", err)
	}

	a := model.Analysis{
		Skills:   cleanSkills(ra.Skills),
		WorkMode: model.ParseWorkMode(ra.WorkMode),
		Source:   model.SourceAI,
	}

	if ra.YearsMin >= 0 && !(ra.YearsMin == 0 && ra.YearsMax <= 0) {
		y := model.Years{Min: ra.YearsMin, Qualifier: cleanQualifier(ra.YearsQualifier)}
		if ra.YearsMax > ra.YearsMin {
			y.Max = ra.YearsMax
			y.Qualifier = model.YearsExact
		}
		a.Years = &y
	}

	if ra.SalaryMin > 0 {
		s := model.Salary{Min: ra.SalaryMin, Currency: cleanCurrency(ra.SalaryCurrency)}
		if ra.SalaryMax > ra.SalaryMin {
			s.Max = ra.SalaryMax
		}
		switch ra.SalaryUnit {
		case model.SalaryPerHour, model.SalaryPerYear:
			s.Unit = ra.SalaryUnit
		default:
			s.Unit = model.SalaryPerYear
			if s.Min < 1000 {
				s.Unit = model.SalaryPerHour
			}
		}
		a.Salary = &s
	}

	return a, nil
}

// cleanSkills trims, dedupes case-insensitively and caps at model.MaxSkills.
func cleanSkills(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == model.MaxSkills {
			break
		}
	}
	return out
}

func cleanQualifier(q string) string {
	switch q = strings.ToLower(strings.TrimSpace(q)); q {
	case model.YearsPlus, model.YearsAtLeast, model.YearsMinimum, model.YearsOver:
		return q
	default:
		return model.YearsExact
	}
}

func cleanCurrency(c string) string {
	switch strings.ToUpper(strings.TrimSpace(c)) {
	case "CAD", "C$", "CA$":
		return "CAD"
	case "$":
		return "$"
	default:
		return ""
	}
}

// RegexAnalyzer implements model.JobAnalyzer with the deterministic extractors.
// It never fails.
type RegexAnalyzer struct{}

func NewRegexAnalyzer() *RegexAnalyzer { return &RegexAnalyzer{} }

func (RegexAnalyzer) Analyze(_ context.Context, text string) (model.Analysis, error) {
	return extract.Analyze(text), nil
}

// FallbackAnalyzer tries primary and, on any error, answers with fallback.
type FallbackAnalyzer struct {
	primary  model.JobAnalyzer
	fallback model.JobAnalyzer
	logger   *slog.Logger
}

func NewFallbackAnalyzer(primary, fallback model.JobAnalyzer, logger *slog.Logger) *FallbackAnalyzer {
	return &FallbackAnalyzer{primary: primary, fallback: fallback, logger: logger}
}

func (f *FallbackAnalyzer) Analyze(ctx context.Context, text string) (model.Analysis, error) {
	a, err := f.primary.Analyze(ctx, text)
	if err == nil {
		return a, nil
	}
	if ctx.Err() != nil {
		return model.Analysis{}, ctx.Err()
	}
	if f.logger != nil {
		f.logger.Warn("ai analysis failed, using regex fallback", "error", err)
	}
	return f.fallback.Analyze(ctx, text)
}
