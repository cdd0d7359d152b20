package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"sabercon-migrate/internal/config"
	"sabercon-migrate/internal/engine"
	"sabercon-migrate/internal/target"
)

func newLogger(lc config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(lc.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openSource connects to the legacy database.
func openSource(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(cfg.Source.Driver, cfg.Source.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open source database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to source database %s: %w", cfg.Source.Redacted(), err)
	}
	logger.Info("connected to source", "driver", cfg.Source.Driver, "dsn", cfg.Source.Redacted())
	return db, nil
}

// openTarget returns the portal store without checking the connection; the
// import pipeline pings it itself.
func openTarget() (*target.Postgres, error) {
	store, err := target.Open(cfg.Target.Driver, cfg.Target.ConnString(), cfg.Import.MappingTable)
	if err != nil {
		return nil, err
	}
	logger.Info("using target", "driver", cfg.Target.Driver, "dsn", cfg.Target.Redacted())
	return store, nil
}

// selectedEntities applies the --entities flag, falling back to
// import.entities and then to every registered entity.
func selectedEntities(flagValue []string) ([]*engine.Entity, error) {
	names := flagValue
	if len(names) == 0 {
		names = cfg.Import.Entities
	}
	return engine.Select(engine.Registry(), names)
}
