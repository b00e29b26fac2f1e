package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/canjobs/internal/model"
)

const jobColumns = `id, source, source_job_id, title, company, location, city, country, url,
	description, posted_at, work_mode, salary_min, salary_max, currency, dedup_key, created_at`

// Default and maximum page sizes for ListJobs.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// UpsertJobs inserts the jobs that are not stored yet and returns them with
// their ids set. A job is skipped when it lacks a source or source id, repeats
// an earlier (source, source id) pair in the batch, is already stored under
// that pair, or shares its dedup key with a stored job. All inserts happen in
// one transaction.
func (s *SQLStore) UpsertJobs(ctx context.Context, jobs []model.Job) ([]model.Job, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("upsert jobs: begin: %w", err)
	}
	defer tx.Rollback()

	existsPair := s.rebind("SELECT 1 FROM jobs WHERE source = ? AND source_job_id = ?")
	existsKey := s.rebind("SELECT 1 FROM jobs WHERE dedup_key = ?")
	insert := s.rebind(`INSERT INTO jobs (source, source_job_id, title, company, location, city,
		country, url, description, posted_at, work_mode, salary_min, salary_max, currency,
		dedup_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, source_job_id) DO NOTHING
		RETURNING id`)

	now := s.now().UTC().Truncate(time.Second)
	seen := make(map[string]bool, len(jobs))
	var added []model.Job

	for _, job := range jobs {
		if job.Source == "" || job.SourceJobID == "" {
			continue
		}
		pair := job.Source + "\x00" + job.SourceJobID
		if seen[pair] {
			continue
		}
		seen[pair] = true

		prepareJob(&job)

		found, err := exists(ctx, tx, existsPair, job.Source, job.SourceJobID)
		if err != nil {
			return nil, fmt.Errorf("checking %s job %s: %w", job.Source, job.SourceJobID, err)
		}
		if found {
			continue
		}
		found, err = exists(ctx, tx, existsKey, job.DedupKey)
		if err != nil {
			return nil, fmt.Errorf("checking dedup key for %s job %s: %w", job.Source, job.SourceJobID, err)
		}
		if found {
			continue
		}

		job.CreatedAt = now
		err = tx.QueryRowContext(ctx, insert,
			job.Source, job.SourceJobID, job.Title, job.Company, job.Location, job.City,
			job.Country, job.URL, job.Description, nullUnix(job.PostedAt), string(job.WorkMode),
			nullFloat(job.SalaryMin), nullFloat(job.SalaryMax), job.Currency,
			job.DedupKey, now.Unix(),
		).Scan(&job.ID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("inserting %s job %s: %w", job.Source, job.SourceJobID, err)
		}
		added = append(added, job)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("upsert jobs: commit: %w", err)
	}
	return added, nil
}

// prepareJob fills the derived fields a stored job must carry.
func prepareJob(job *model.Job) {
	if job.City == "" {
		job.City = model.CityFromLocation(job.Location)
	}
	if job.Country == "" {
		job.Country = model.CountryCA
	}
	if job.WorkMode == "" {
		job.WorkMode = model.WorkModeNotMentioned
	}
	if job.DedupKey == "" {
		job.DedupKey = model.DedupKey(job.Title, job.Company, job.City)
	}
}

func exists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// likeEscaper makes a keyword match literally inside LIKE ... ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ListJobs returns one page of Canadian jobs matching q, newest first, plus the
// total number of matches.
func (s *SQLStore) ListJobs(ctx context.Context, q model.ListQuery) ([]model.Job, int, error) {
	where := []string{"country = ?"}
	args := []any{model.CountryCA}

	if !model.IsAllCanada(q.City) {
		where = append(where, "LOWER(city) = ?")
		args = append(args, strings.ToLower(model.CityFromLocation(q.City)))
	}
	if q.Days > 0 {
		cutoff := s.now().Add(-time.Duration(q.Days) * 24 * time.Hour).Unix()
		where = append(where, "(posted_at IS NULL OR posted_at >= ?)")
		args = append(args, cutoff)
	}
	if q.Mode != "" {
		where = append(where, "work_mode = ?")
		args = append(args, string(q.Mode))
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(kw)) + "%"
		where = append(where, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(company) LIKE ? ESCAPE '\' OR LOWER(city) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM jobs"+clause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting jobs: %w", err)
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	query := "SELECT " + jobColumns + " FROM jobs" + clause +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, s.rebind(query), append(args, size, (page-1)*size)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	jobs := []model.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, total, nil
}

// GetJob returns the job with the given id, or model.ErrNotFound.
func (s *SQLStore) GetJob(ctx context.Context, id int64) (model.Job, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+jobColumns+" FROM jobs WHERE id = ?"), id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, fmt.Errorf("job %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("getting job %d: %w", id, err)
	}
	return job, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (model.Job, error) {
	var (
		job       model.Job
		mode      string
		postedAt  sql.NullInt64
		salaryMin sql.NullFloat64
		salaryMax sql.NullFloat64
		createdAt int64
	)
	err := sc.Scan(&job.ID, &job.Source, &job.SourceJobID, &job.Title, &job.Company,
		&job.Location, &job.City, &job.Country, &job.URL, &job.Description, &postedAt,
		&mode, &salaryMin, &salaryMax, &job.Currency, &job.DedupKey, &createdAt)
	if err != nil {
		return model.Job{}, err
	}
	job.WorkMode = model.WorkMode(mode)
	job.PostedAt = timePtr(postedAt)
	job.SalaryMin = floatPtr(salaryMin)
	job.SalaryMax = floatPtr(salaryMax)
	job.CreatedAt = time.Unix(createdAt, 0).UTC()
	return job, nil
}
