package model

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Job is a stored developer job posting from any source.
type Job struct {
	ID          int64      // database id, zero until stored
	Source      string     // provider name (adzuna, greenhouse, lever)
	SourceJobID string     // provider's id, unique per source
	Title       string     // job title
	Company     string     // company name
	Location    string     // raw location string
	City        string     // first comma-separated part of Location
	Country     string     // always "CA"
	URL         string     // source link
	Description string     // plain-text description
	PostedAt    *time.Time // nullable (not all APIs provide this)
	WorkMode    WorkMode   // classified from the description at ingest
	SalaryMin   *float64   // provider-reported salary, nullable
	SalaryMax   *float64
	Currency    string
	DedupKey    string    // see DedupKey
	CreatedAt   time.Time // our clock (set on insert)
}

// CountryCA is the only country this service ingests.
const CountryCA = "CA"

// CityFromLocation returns the first comma-separated part of a location string,
// e.g. "Toronto, ON" -> "Toronto".
func CityFromLocation(loc string) string {
	if loc == "" {
		return ""
	}
	city, _, _ := strings.Cut(loc, ",")
	return strings.TrimSpace(city)
}

// IsAllCanada reports whether a city selector means "no city filter".
func IsAllCanada(city string) bool {
	return city == "" || strings.HasPrefix(city, "Canada")
}

// WorkMode is one of Remote, Hybrid, Onsite or Not mentioned.
type WorkMode string

const (
	WorkModeRemote       WorkMode = "Remote"
	WorkModeHybrid       WorkMode = "Hybrid"
	WorkModeOnsite       WorkMode = "Onsite"
	WorkModeNotMentioned WorkMode = "Not mentioned"
)

// Valid reports whether m is one of the four known modes.
func (m WorkMode) Valid() bool {
	switch m {
	case WorkModeRemote, WorkModeHybrid, WorkModeOnsite, WorkModeNotMentioned:
		return true
	}
	return false
}

// ParseModeFilter parses a user-supplied mode filter. Empty means no filter;
// an unrecognised mode is an error rather than Not mentioned.
func ParseModeFilter(s string) (WorkMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	m := ParseWorkMode(s)
	if m == WorkModeNotMentioned && !strings.EqualFold(s, string(WorkModeNotMentioned)) {
		return "", fmt.Errorf("mode %q must be one of Remote, Hybrid, Onsite, Not mentioned", s)
	}
	return m, nil
}

// ParseWorkMode maps loose spellings ("remote", "on-site", "unknown", ...) to a WorkMode.
// Anything unrecognised is Not mentioned.
func ParseWorkMode(s string) WorkMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remote":
		return WorkModeRemote
	case "hybrid":
		return WorkModeHybrid
	case "onsite", "on-site", "on site", "in-person", "in office":
		return WorkModeOnsite
	default:
		return WorkModeNotMentioned
	}
}

// Search narrows what a fetcher returns for one ingest run.
type Search struct {
	City string // display name ("Toronto, ON"); empty or "Canada (All)" means all of Canada
	Days int    // drop postings older than this many days, zero keeps all
}

// Cutoff returns the oldest posting time the search accepts, or the zero time
// when Days is not set.
func (s Search) Cutoff(now time.Time) time.Time {
	if s.Days <= 0 {
		return time.Time{}
	}
	return now.Add(-time.Duration(s.Days) * 24 * time.Hour)
}

// JobFetcher fetches job postings from a source (e.g. Adzuna).
type JobFetcher interface {
	FetchJobs(ctx context.Context, search Search) ([]Job, error)
}

// JobFilter decides whether a job matches the configured criteria.
type JobFilter interface {
	Match(job Job) bool
}

// Notifier sends notifications for newly ingested jobs.
type Notifier interface {
	Notify(jobs []Job) error
}

// JobAnalyzer turns job text into a structured Analysis.
type JobAnalyzer interface {
	Analyze(ctx context.Context, text string) (Analysis, error)
}

// ListQuery selects stored jobs. Zero values mean "no filter" except Days,
// which callers are expected to set.
type ListQuery struct {
	City     string   // display name ("Toronto, ON") or "Canada (All)"
	Days     int      // posted within the last N days (null posted_at always passes)
	Mode     WorkMode // empty = any
	Keyword  string   // substring over title, company, city, description
	Page     int      // 1-based
	PageSize int
}

// JobStore persists job postings and their analyses.
type JobStore interface {
	UpsertJobs(ctx context.Context, jobs []Job) ([]Job, error)
	ListJobs(ctx context.Context, q ListQuery) ([]Job, int, error)
	GetJob(ctx context.Context, id int64) (Job, error)
	SaveAnalysis(ctx context.Context, a Analysis) error
	GetAnalysis(ctx context.Context, jobID int64) (Analysis, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
	IsEmpty(ctx context.Context) (bool, error)
}
