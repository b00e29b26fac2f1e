package notifier

import (
	"log/slog"

	"github.com/amishk599/canjobs/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly ingested jobs to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each job with its id, source, company, title, city, work mode and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{
			"id", j.ID,
			"source", j.Source,
			"company", j.Company,
			"title", j.Title,
			"city", j.City,
			"work_mode", j.WorkMode,
			"url", j.URL,
		}
		if j.PostedAt != nil {
			args = append(args, "posted_at", *j.PostedAt)
		}
		if s := salaryText(j); s != "" {
			args = append(args, "salary", s)
		}
		n.logger.Info("new job", args...)
	}
	return nil
}

// salaryText renders the provider-reported salary of j, or "" when absent.
func salaryText(j model.Job) string {
	if j.SalaryMin == nil && j.SalaryMax == nil {
		return ""
	}
	var s model.Salary
	switch {
	case j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMax > *j.SalaryMin:
		s.Min, s.Max = *j.SalaryMin, *j.SalaryMax
	case j.SalaryMin != nil:
		s.Min = *j.SalaryMin
	default:
		s.Min = *j.SalaryMax
	}
	if s.Min <= 0 {
		return ""
	}
	s.Currency = j.Currency
	s.Unit = model.SalaryPerYear
	if s.Min < 1000 {
		s.Unit = model.SalaryPerHour
	}
	return s.String()
}
