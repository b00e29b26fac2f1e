package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/canjobs/internal/model"
)

// maxConcurrentSources bounds how many sources are fetched at once.
const maxConcurrentSources = 4

// Source is a named job fetcher (an Adzuna title search or a company board).
type Source struct {
	Name    string
	Fetcher model.JobFetcher
}

// Request narrows one ingest run.
type Request struct {
	City string // "" or "Canada (All)" for all of Canada
	Days int
}

// Result summarises one ingest run.
type Result struct {
	Fetched int
	Matched int
	Added   int
	Failed  []string    // names of sources whose fetch failed
	Jobs    []model.Job // the added jobs, with ids
}

// Pipeline owns the ingest flow: fetch → filter → store → notify.
type Pipeline struct {
	sources  []Source
	filter   model.JobFilter
	store    model.JobStore
	notifier model.Notifier
	logger   *slog.Logger

	mu sync.Mutex // one run at a time
}

// NewPipeline creates a pipeline wired with all its dependencies.
func NewPipeline(
	sources []Source,
	filter model.JobFilter,
	store model.JobStore,
	notifier model.Notifier,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sources:  sources,
		filter:   filter,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Sources returns the names of the registered sources.
func (p *Pipeline) Sources() []string {
	names := make([]string, len(p.sources))
	for i, s := range p.sources {
		names[i] = s.Name
	}
	return names
}

// Run fetches from every source, keeps the jobs that pass the filter, stores
// the new ones and notifies about them. A failing source is logged and
// skipped; Run only fails when every source fails or the store does.
// Notifications are skipped on the very first run so that seeding an empty
// database does not flood the notifier.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var res Result
	if len(p.sources) == 0 {
		return res, fmt.Errorf("ingest: no sources configured")
	}

	firstRun, err := p.store.IsEmpty(ctx)
	if err != nil {
		return res, fmt.Errorf("ingest: checking store: %w", err)
	}

	fetched, failed := p.fetchAll(ctx, model.Search{City: req.City, Days: req.Days})
	res.Failed = failed
	if len(failed) == len(p.sources) {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("ingest: %w", err)
		}
		return res, fmt.Errorf("ingest: all %d sources failed", len(failed))
	}

	var matched []model.Job
	for _, job := range fetched {
		if p.filter.Match(job) {
			matched = append(matched, job)
		}
	}
	res.Fetched = len(fetched)
	res.Matched = len(matched)

	added, err := p.store.UpsertJobs(ctx, matched)
	if err != nil {
		return res, fmt.Errorf("ingest: storing jobs: %w", err)
	}
	res.Added = len(added)
	res.Jobs = added

	switch {
	case len(added) == 0:
	case firstRun:
		p.logger.Info("first run, seeded store without notifying", "jobs", len(added))
	default:
		if err := p.notifier.Notify(added); err != nil {
			p.logger.Error("notify failed", "jobs", len(added), "error", err)
		}
	}

	p.logger.Info("ingest complete",
		"city", req.City,
		"days", req.Days,
		"sources", len(p.sources),
		"failed", len(failed),
		"fetched", res.Fetched,
		"matched", res.Matched,
		"added", res.Added,
	)

	return res, nil
}

// fetchAll runs every source concurrently and returns the jobs in source order
// along with the names of the sources that failed.
func (p *Pipeline) fetchAll(ctx context.Context, search model.Search) ([]model.Job, []string) {
	results := make([][]model.Job, len(p.sources))
	errs := make([]error, len(p.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSources)
	for i, src := range p.sources {
		g.Go(func() error {
			jobs, err := src.Fetcher.FetchJobs(gctx, search)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = jobs
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Job
	var failed []string
	for i, src := range p.sources {
		if errs[i] != nil {
			p.logger.Error("source fetch failed", "source", src.Name, "error", errs[i])
			failed = append(failed, src.Name)
			continue
		}
		p.logger.Debug("fetched source", "source", src.Name, "jobs", len(results[i]))
		all = append(all, results[i]...)
	}
	return all, failed
}
