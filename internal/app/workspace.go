package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"minetrack/internal/config"
	"minetrack/internal/db"
	"minetrack/internal/engine"
	"minetrack/internal/logger"
	"minetrack/internal/migrate"
	"minetrack/internal/repo"
)

// Options override the log settings of minetrack.yml. Empty fields keep the
// file values.
type Options struct {
	LogLevel  string
	LogFormat string
}

// Workspace bundles everything a command needs against one state directory.
type Workspace struct {
	Dir    string
	Config *config.Config
	DB     *sql.DB
	Log    *zap.Logger
	Engine engine.Engine
}

// Open loads config, opens and migrates the database and seeds the equipment
// registry when the store has none.
func Open(ctx context.Context, dir string, opts Options) (*Workspace, error) {
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	level, format := cfg.Log.Level, cfg.Log.Format
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		format = opts.LogFormat
	}
	log, err := logger.New(level, format)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		return nil, err
	}
	if err := migrate.MigrateContext(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	r := repo.Repo{DB: conn}
	seeded, err := SeedRegistry(ctx, r, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if seeded {
		log.Info("equipment registry seeded", zap.Int("equipment", len(cfg.Seed.Equipment)), zap.String("site", cfg.Site.Name))
	}
	return &Workspace{
		Dir:    dir,
		Config: cfg,
		DB:     conn,
		Log:    log,
		Engine: engine.New(conn, cfg, log),
	}, nil
}

// Close flushes the logger and closes the database.
func (w *Workspace) Close() error {
	if w == nil {
		return nil
	}
	_ = w.Log.Sync()
	return w.DB.Close()
}

// SeedRegistry writes the configured seed equipment when no registry blob
// exists yet. A malformed blob is left for the engine to discard on read.
func SeedRegistry(ctx context.Context, r repo.Repo, cfg *config.Config) (bool, error) {
	_, err := r.Equipment(ctx)
	switch {
	case err == nil, errors.Is(err, repo.ErrMalformed):
		return false, nil
	case !errors.Is(err, repo.ErrNotFound):
		return false, fmt.Errorf("load equipment: %w", err)
	}
	if err := r.SaveEquipment(ctx, cfg.SeedRegistry()); err != nil {
		return false, fmt.Errorf("seed equipment: %w", err)
	}
	return true, nil
}
