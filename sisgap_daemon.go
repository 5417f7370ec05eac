package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"sisgap-scraper/googlecalendar"
	"sisgap-scraper/metrics"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Syncs the timetable on the daemon.schedule cron expression and serves /metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Google.Recipient == "" {
			return errors.New("google.recipient is required to sync")
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		store, err := newGoogleStore(ctx)
		if err != nil {
			return err
		}

		cl := cronLogger{log: logger.With("component", "cron")}
		c := cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		)
		_, err = c.AddFunc(cfg.Daemon.Schedule, func() {
			if err := syncPass(ctx, store); err != nil {
				logger.Error("sync pass failed", "err", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid daemon.schedule %q: %w", cfg.Daemon.Schedule, err)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		server := &http.Server{
			Addr:              cfg.Daemon.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "err", err)
			}
		}()

		c.Start()
		logger.Info("daemon started", "schedule", cfg.Daemon.Schedule, "lapse", cfg.Daemon.Lapse)

		// first pass right away, the schedule may be hours off
		if err := syncPass(ctx, store); err != nil {
			logger.Error("sync pass failed", "err", err)
		}

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		select {
		case <-c.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn("sync pass still running at shutdown")
		}
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

// syncPass scrapes the configured lapse around today, mirrors it into the
// calendar and, when a repository is configured, republishes the ICS export.
func syncPass(ctx context.Context, store googlecalendar.Store) error {
	start, end, err := dateRange("", cfg.Daemon.Lapse)
	if err != nil {
		return err
	}
	service, err := newTimetableService()
	if err != nil {
		return err
	}
	timetable, err := service.FetchTimetable(ctx, start, end)
	if err != nil {
		return err
	}

	report, syncErr := syncTimetable(ctx, store, timetable, cfg.Google.Recipient)
	logger.Info("sync pass done",
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
		"inserted", report.Inserted,
		"updated", report.Updated,
		"failed", report.Failed,
	)

	if cfg.Publish.GithubRepo == "" {
		return syncErr
	}
	dir, err := os.MkdirTemp("", "sisgap")
	if err != nil {
		return errors.Join(syncErr, err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(cfg.Publish.GithubPath))
	if err := exportICS(path, timetable, cfg.Google.Recipient); err != nil {
		return errors.Join(syncErr, err)
	}
	return errors.Join(syncErr, publishICS(path))
}

// cronLogger routes cron's logr-style calls into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
