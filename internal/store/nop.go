package store

import (
	"context"
	"fmt"
	"time"

	"github.com/amishk599/canjobs/internal/model"
)

// NopStore is a no-op store used in dry-run mode. It never keeps jobs, so every
// fetched job is reported as added on each ingest.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) UpsertJobs(_ context.Context, jobs []model.Job) ([]model.Job, error) {
	return jobs, nil
}

func (s *NopStore) ListJobs(context.Context, model.ListQuery) ([]model.Job, int, error) {
	return []model.Job{}, 0, nil
}

func (s *NopStore) GetJob(_ context.Context, id int64) (model.Job, error) {
	return model.Job{}, fmt.Errorf("job %d: %w", id, model.ErrNotFound)
}

func (s *NopStore) SaveAnalysis(context.Context, model.Analysis) error { return nil }

func (s *NopStore) GetAnalysis(_ context.Context, jobID int64) (model.Analysis, error) {
	return model.Analysis{}, fmt.Errorf("analysis for job %d: %w", jobID, model.ErrNotFound)
}

func (s *NopStore) Cleanup(context.Context, time.Duration) (int64, error) { return 0, nil }
func (s *NopStore) IsEmpty(context.Context) (bool, error)                 { return false, nil }
