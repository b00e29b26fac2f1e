package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/canjobs/internal/extract"
	"github.com/amishk599/canjobs/internal/model"
)

// PageSource returns the readable text of a job page, or "" when unavailable.
type PageSource interface {
	Text(ctx context.Context, url string) string
}

// Result is an analysis plus how it lines up with the caller's skills.
type Result struct {
	Analysis model.Analysis
	Matched  []string // analysis skills the caller has
	Missing  []string // analysis skills the caller lacks
	Cached   bool     // served from the store without re-analyzing
}

// Service analyzes stored jobs and keeps the latest analysis per job.
type Service struct {
	store    model.JobStore
	analyzer model.JobAnalyzer
	pages    PageSource // may be nil
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store model.JobStore, analyzer model.JobAnalyzer, pages PageSource, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		analyzer: analyzer,
		pages:    pages,
		logger:   logger,
		now:      time.Now,
	}
}

// AnalyzeJob returns the analysis for jobID. A stored analysis is reused unless
// refresh is set. Returns an error wrapping model.ErrNotFound for unknown jobs.
func (s *Service) AnalyzeJob(ctx context.Context, jobID int64, yourSkills []string, refresh bool) (Result, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return Result{}, err
	}

	if !refresh {
		a, err := s.store.GetAnalysis(ctx, jobID)
		switch {
		case err == nil:
			return newResult(a, yourSkills, true), nil
		case !errors.Is(err, model.ErrNotFound):
			return Result{}, fmt.Errorf("load analysis: %w", err)
		}
	}

	a, err := s.analyzer.Analyze(ctx, s.jobText(ctx, job))
	if err != nil {
		return Result{}, fmt.Errorf("analyze job %d: %w", jobID, err)
	}
	a.JobID = jobID
	a.AnalyzedAt = s.now().UTC()

	if err := s.store.SaveAnalysis(ctx, a); err != nil {
		return Result{}, fmt.Errorf("save analysis: %w", err)
	}

	s.logger.Info("job analyzed",
		"job_id", jobID,
		"source", a.Source,
		"skills", len(a.Skills),
	)
	return newResult(a, yourSkills, false), nil
}

// jobText prefers the live job page, then the stored description, then the
// bare title line.
func (s *Service) jobText(ctx context.Context, job model.Job) string {
	if s.pages != nil && job.URL != "" {
		if text := s.pages.Text(ctx, job.URL); text != "" {
			return text
		}
	}
	if text := extract.Normalize(job.Description); text != "" {
		return text
	}
	return strings.TrimSpace(job.Title + " at " + job.Company)
}

func newResult(a model.Analysis, yourSkills []string, cached bool) Result {
	matched, missing := MatchSkills(a.Skills, yourSkills)
	return Result{Analysis: a, Matched: matched, Missing: missing, Cached: cached}
}

// MatchSkills splits required into those present in have and those absent,
// comparing case-insensitively. Both results keep the order of required and
// are never nil.
func MatchSkills(required, have []string) (matched, missing []string) {
	owned := make(map[string]bool, len(have))
	for _, h := range have {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			owned[h] = true
		}
	}
	matched, missing = []string{}, []string{}
	for _, r := range required {
		if owned[strings.ToLower(r)] {
			matched = append(matched, r)
		} else {
			missing = append(missing, r)
		}
	}
	return matched, missing
}
