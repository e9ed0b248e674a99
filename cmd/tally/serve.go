package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rplaut/tally/internal/api"
	"github.com/rplaut/tally/internal/config"
	"github.com/rplaut/tally/internal/github"
	"github.com/rplaut/tally/internal/metrics"
	"github.com/rplaut/tally/internal/note"
	"github.com/rplaut/tally/internal/session"
	"github.com/rplaut/tally/internal/ui"
	"github.com/rplaut/tally/internal/user"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Tally server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// meteredPRLister records fetch outcomes and latency around the GitHub
// client.
type meteredPRLister struct {
	client  *github.Client
	metrics *metrics.Metrics
}

func (l *meteredPRLister) ListPullRequests(ctx context.Context, owner, repo string) ([]github.PullRequest, error) {
	start := time.Now()
	prs, err := l.client.ListPullRequests(ctx, owner, repo)
	status := "ok"
	if err != nil {
		status = "error"
	}
	l.metrics.ObserveGitHubFetch(status, time.Since(start).Seconds())
	return prs, err
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	userStore := user.NewStore(pool)
	noteStore := note.NewStore(pool)
	ghClient := github.NewClient(cfg.GitHub.APIBase, cfg.GitHub.Token, cfg.GitHub.Timeout)

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		st := pool.Stat()
		return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
	})

	prLister := &meteredPRLister{client: ghClient, metrics: m}

	registry := session.NewRegistry(func() *session.Session {
		return session.New(userStore, noteStore, prLister, session.Options{
			Owner:      cfg.GitHub.Owner,
			Repo:       cfg.GitHub.Repo,
			FlashDelay: cfg.Session.FlashDelay,
			Logger:     logger,
		})
	}, cfg.Session.TTL)
	m.RegisterSessionGauge(registry.Len)
	go registry.Start(ctx, cfg.Session.CleanupInterval)

	router := api.NewRouter(api.RouterDeps{
		Registry: registry,
		Metrics:  m,
		UI:       ui.Handler(),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
