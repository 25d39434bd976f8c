package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/leech-actions/internal/common"
	"github.com/Veraticus/leech-actions/internal/config"
	"github.com/Veraticus/leech-actions/internal/engine"
	"github.com/Veraticus/leech-actions/internal/model"
	"github.com/Veraticus/leech-actions/internal/service"
	"github.com/Veraticus/leech-actions/internal/storage"
)

// initStorage opens the collection database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError("could not open collection at "+dbPath, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// openConfig loads the leech configuration, migrating and persisting it if
// needed. Every later save is logged.
func openConfig(ctx context.Context, store config.Store) (*config.Manager, error) {
	mgr, err := config.Open(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to load leech configuration: %w", err)
	}
	mgr.Subscribe(logConfigSaved)
	return mgr, nil
}

func logConfigSaved(cfg model.Configuration) {
	slog.Info("Saved leech configuration",
		"version", cfg.Version,
		"leech_tag", cfg.LeechTag,
		"rules", len(cfg.Rules),
		"auto_run_on_tag", cfg.AutoRunOnTag,
		"auto_run_after_sync", cfg.AutoRunAfterSync)
}

func retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  viper.GetInt("retry.max_attempts"),
		InitialDelay: viper.GetDuration("retry.initial_delay"),
		MaxDelay:     viper.GetDuration("retry.max_delay"),
	}
}

// newProcessor wires the batch processor with run history, retries, and the
// pre-commit checkpoint when run.checkpoint is on.
func newProcessor(store *storage.SQLiteStorage, opts ...engine.Option) (*engine.Processor, error) {
	base := []engine.Option{
		engine.WithRecorder(store),
		engine.WithRetry(retryOptions()),
	}

	if viper.GetBool("run.checkpoint") {
		checkpoints, err := store.NewCheckpointManager()
		if err != nil {
			return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
		}
		base = append(base, engine.WithBeforeCommit(func(ctx context.Context, mode model.RunMode) error {
			_, err := checkpoints.AutoCheckpoint(ctx, string(mode))
			return err
		}))
	}

	return engine.NewProcessor(store, append(base, opts...)...), nil
}

// parseRuleNumber converts a 1-based rule number argument to an index.
func parseRuleNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid rule number %q: rules are numbered from 1", arg)
	}
	return n - 1, nil
}

func parseCardID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid card id %q", arg)
	}
	return id, nil
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.Format("2006-01-02")
}
