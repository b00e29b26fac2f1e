package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/canjobs/internal/ingest"
	"github.com/amishk599/canjobs/internal/scheduler"
	"github.com/amishk599/canjobs/internal/server"
)

var (
	serveAddr        string
	serveNoScheduler bool
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"start"},
	Short:   "Run the HTTP API and the ingest scheduler",
	Long:    "Serves the JSON API and ingests on the configured interval; blocks until SIGINT/SIGTERM.",
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "serve the API without periodic ingestion")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger.Info("config loaded",
		"database", cfg.Database.Driver,
		"interval", cfg.Ingest.Interval.String(),
		"days", cfg.Ingest.Days,
		"titles", len(cfg.Ingest.Titles),
		"cities", len(cfg.Cities),
		"ai", cfg.AI.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	pipeline := buildPipeline(cfg, sqlStore, setupNotifier(cfg, httpClient, logger), httpClient, logger)
	if len(pipeline.Sources()) == 0 {
		logger.Error("no sources to ingest from")
		os.Exit(1)
	}
	analysis, closeAnalysis := setupAnalysis(ctx, cfg, sqlStore, logger)
	defer closeAnalysis()

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(sqlStore, analysis, pipeline, server.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Cities:      cfg.Cities,
		DefaultDays: cfg.Ingest.Days,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Server.Addr)
	})
	if !serveNoScheduler {
		sched := scheduler.NewScheduler(pipeline, sqlStore, scheduler.Options{
			Interval:   cfg.Ingest.Interval,
			RunOnStart: cfg.Ingest.RunOnStart,
			Request:    ingest.Request{Days: cfg.Ingest.Days},
			Retention:  cfg.Ingest.Retention,
		}, logger)
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
