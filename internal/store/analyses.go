package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/canjobs/internal/model"
)

// SaveAnalysis stores a, replacing any previous analysis for the same job.
func (s *SQLStore) SaveAnalysis(ctx context.Context, a model.Analysis) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("saving analysis for job %d: %w", a.JobID, err)
	}
	skills := a.Skills
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}

	var yearsMin, yearsMax any
	var qualifier string
	if a.Years != nil {
		yearsMin = a.Years.Min
		if a.Years.Max > 0 {
			yearsMax = a.Years.Max
		}
		qualifier = a.Years.Qualifier
	}
	var salaryMin, salaryMax any
	var currency, unit string
	if a.Salary != nil {
		salaryMin = a.Salary.Min
		if a.Salary.Max > 0 {
			salaryMax = a.Salary.Max
		}
		currency, unit = a.Salary.Currency, a.Salary.Unit
	}
	analyzedAt := a.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO analyses (job_id, skills, years_min,
		years_max, years_qualifier, work_mode, salary_min, salary_max, salary_currency,
		salary_unit, source, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (job_id) DO UPDATE SET
			skills = excluded.skills,
			years_min = excluded.years_min,
			years_max = excluded.years_max,
			years_qualifier = excluded.years_qualifier,
			work_mode = excluded.work_mode,
			salary_min = excluded.salary_min,
			salary_max = excluded.salary_max,
			salary_currency = excluded.salary_currency,
			salary_unit = excluded.salary_unit,
			source = excluded.source,
			analyzed_at = excluded.analyzed_at`),
		a.JobID, string(skillsJSON), yearsMin, yearsMax, qualifier, string(a.WorkMode),
		salaryMin, salaryMax, currency, unit, a.Source, analyzedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving analysis for job %d: %w", a.JobID, err)
	}
	return nil
}

// GetAnalysis returns the stored analysis for a job, or model.ErrNotFound.
func (s *SQLStore) GetAnalysis(ctx context.Context, jobID int64) (model.Analysis, error) {
	var (
		a          model.Analysis
		skillsJSON string
		yearsMin   sql.NullInt64
		yearsMax   sql.NullInt64
		qualifier  string
		mode       string
		salaryMin  sql.NullFloat64
		salaryMax  sql.NullFloat64
		currency   string
		unit       string
		analyzedAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT job_id, skills, years_min, years_max,
		years_qualifier, work_mode, salary_min, salary_max, salary_currency, salary_unit,
		source, analyzed_at FROM analyses WHERE job_id = ?`), jobID).Scan(
		&a.JobID, &skillsJSON, &yearsMin, &yearsMax, &qualifier, &mode,
		&salaryMin, &salaryMax, &currency, &unit, &a.Source, &analyzedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Analysis{}, fmt.Errorf("analysis for job %d: %w", jobID, model.ErrNotFound)
	}
	if err != nil {
		return model.Analysis{}, fmt.Errorf("getting analysis for job %d: %w", jobID, err)
	}

	if err := json.Unmarshal([]byte(skillsJSON), &a.Skills); err != nil {
		return model.Analysis{}, fmt.Errorf("decoding skills for job %d: %w", jobID, err)
	}
	if yearsMin.Valid {
		a.Years = &model.Years{Min: int(yearsMin.Int64), Qualifier: qualifier}
		if yearsMax.Valid {
			a.Years.Max = int(yearsMax.Int64)
		}
	}
	if salaryMin.Valid {
		a.Salary = &model.Salary{Min: salaryMin.Float64, Currency: currency, Unit: unit}
		if salaryMax.Valid {
			a.Salary.Max = salaryMax.Float64
		}
	}
	a.WorkMode = model.WorkMode(mode)
	a.AnalyzedAt = time.Unix(analyzedAt, 0).UTC()
	return a, nil
}
