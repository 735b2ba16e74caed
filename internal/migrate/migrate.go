// Package migrate applies the embedded schema migrations with Goose.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Cloutiere/mermaid/internal/config"
	"github.com/Cloutiere/mermaid/migrations"
)

// Module provides the migrator and, when DB_AUTO_MIGRATE is set, applies
// pending migrations before the server starts.
var Module = fx.Module("migrate",
	fx.Provide(NewZapLogger, NewMigrator),
	fx.Invoke(autoMigrate),
)

// NewZapLogger builds the logger used by the migrator.
func NewZapLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Migrator handles database migrations.
type Migrator struct {
	db     *sql.DB
	fsys   fs.FS
	logger *zap.Logger
}

// NewMigrator creates a Migrator over the bun connection.
func NewMigrator(db *bun.DB, logger *zap.Logger) *Migrator {
	return NewMigratorWithDB(db.DB, logger)
}

// NewMigratorWithDB creates a Migrator over a plain database handle.
func NewMigratorWithDB(db *sql.DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		fsys:   migrations.FS,
		logger: logger.Named("migrator"),
	}
}

func (m *Migrator) prepare() error {
	goose.SetBaseFS(m.fsys)
	goose.SetLogger(zap.NewStdLog(m.logger))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Up runs all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	m.logger.Info("running database migrations")
	if err := m.prepare(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.logger.Info("migrations completed successfully")
	return nil
}

// UpTo runs migrations up to a specific version.
func (m *Migrator) UpTo(ctx context.Context, version int64) error {
	m.logger.Info("running database migrations up to version", zap.Int64("version", version))
	if err := m.prepare(); err != nil {
		return err
	}
	if err := goose.UpToContext(ctx, m.db, ".", version); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Down rolls back the last migration.
func (m *Migrator) Down(ctx context.Context) error {
	m.logger.Info("rolling back last migration")
	if err := m.prepare(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	m.logger.Info("rollback completed successfully")
	return nil
}

// Status prints the state of every migration through the goose logger.
func (m *Migrator) Status(ctx context.Context) error {
	if err := m.prepare(); err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

// Version returns the current database version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	if err := m.prepare(); err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

func autoMigrate(lc fx.Lifecycle, cfg *config.Config, m *Migrator) {
	if !cfg.Database.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return m.Up(ctx)
		},
	})
}
