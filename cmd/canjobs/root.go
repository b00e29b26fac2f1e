package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/canjobs/internal/adapter"
	"github.com/amishk599/canjobs/internal/ai"
	"github.com/amishk599/canjobs/internal/cache"
	"github.com/amishk599/canjobs/internal/config"
	"github.com/amishk599/canjobs/internal/filter"
	"github.com/amishk599/canjobs/internal/ingest"
	"github.com/amishk599/canjobs/internal/model"
	"github.com/amishk599/canjobs/internal/notifier"
	"github.com/amishk599/canjobs/internal/pagefetch"
	"github.com/amishk599/canjobs/internal/ratelimit"
	"github.com/amishk599/canjobs/internal/retry"
	"github.com/amishk599/canjobs/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "canjobs",
	Short: "Canadian developer job search",
	Long:  "canjobs ingests developer job postings across Canada, serves them over a JSON API and analyzes them on demand.",
	// Default to `serve` so that `canjobs` with no args runs the service.
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: CANJOBS_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > CANJOBS_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("CANJOBS_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func openStore(ctx context.Context, cfg *config.Config) (*store.SQLStore, error) {
	return store.New(ctx, cfg.Database.Driver, cfg.Database.DSN)
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func setupFilter(cfg *config.Config) model.JobFilter {
	return filter.NewTitleAndLocationFilter(
		cfg.Filters.TitleKeywords,
		cfg.Filters.TitleExcludeKeywords,
		cfg.Filters.Locations,
		cfg.Filters.ExcludeLocations,
	)
}

// buildSources creates one fetcher per Adzuna title and per enabled board.
// Every request waits on the per-source rate limiter, and failed requests are
// retried with backoff.
func buildSources(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []ingest.Source {
	limiter := ratelimit.NewSourceLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.SourceOverrides)
	logger.Debug("rate limiter configured", "min_delay", cfg.RateLimit.MinDelay.String())

	wrap := func(f model.JobFetcher, source string) model.JobFetcher {
		f = ratelimit.NewRateLimitedFetcher(f, limiter, source)
		return retry.NewRetryFetcher(f, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
	}

	var sources []ingest.Source
	if a := cfg.Sources.Adzuna; a.Enabled {
		for _, title := range cfg.Ingest.Titles {
			f := adapter.NewAdzunaAdapter(a.AppID, a.AppKey, title, a.ResultsPerPage, httpClient)
			sources = append(sources, ingest.Source{
				Name:    adapter.SourceAdzuna + ":" + title,
				Fetcher: wrap(f, adapter.SourceAdzuna),
			})
		}
	}

	for _, b := range cfg.Sources.Boards {
		if !b.Enabled {
			continue
		}
		var f model.JobFetcher
		switch b.ATS {
		case adapter.SourceGreenhouse:
			f = adapter.NewGreenhouseAdapter(b.BoardToken, b.Name, cfg.Cities, httpClient)
		case adapter.SourceLever:
			f = adapter.NewLeverAdapter(b.BoardToken, b.Name, cfg.Cities, httpClient)
		default:
			logger.Warn("unsupported ATS, skipping", "board", b.Name, "ats", b.ATS)
			continue
		}
		sources = append(sources, ingest.Source{
			Name:    b.ATS + ":" + b.Name,
			Fetcher: wrap(f, b.ATS),
		})
		logger.Debug("registered board", "name", b.Name, "ats", b.ATS)
	}
	return sources
}

func buildPipeline(cfg *config.Config, jobStore model.JobStore, n model.Notifier, httpClient *http.Client, logger *slog.Logger) *ingest.Pipeline {
	return ingest.NewPipeline(
		buildSources(cfg, httpClient, logger),
		setupFilter(cfg),
		jobStore,
		n,
		logger,
	)
}

// setupAnalyzer returns the regex analyzer, or the LLM analyzer with a regex
// fallback when AI is enabled.
func setupAnalyzer(cfg *config.Config, logger *slog.Logger) model.JobAnalyzer {
	regex := ai.NewRegexAnalyzer()
	if !cfg.AI.Enabled {
		return regex
	}
	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	logger.Info("ai analysis enabled", "model", cfg.AI.Model)
	return ai.NewFallbackAnalyzer(ai.NewLLMAnalyzer(provider, ai.JobAnalysisTemplate, logger), regex, logger)
}

// setupAnalysis wires the analysis service with the page fetcher and its
// cache. The returned func releases the cache.
func setupAnalysis(ctx context.Context, cfg *config.Config, jobStore model.JobStore, logger *slog.Logger) (*ai.Service, func()) {
	var pages ai.PageSource
	closeFn := func() {}
	if cfg.PageFetch.Enabled {
		c := cache.New(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL, cfg.Cache.MaxEntries, logger)
		closeFn = func() { _ = c.Close() }
		pages = pagefetch.New(&http.Client{Timeout: cfg.PageFetch.Timeout + 5*time.Second}, c,
			cfg.PageFetch.Timeout, cfg.PageFetch.MaxChars, cfg.PageFetch.UserAgent, logger)
	}
	return ai.NewService(jobStore, setupAnalyzer(cfg, logger), pages, logger), closeFn
}
