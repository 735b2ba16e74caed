// Package testutil provides database fixtures for integration tests.
//
// Tests that need PostgreSQL call RequireDB (or embed DBSuite) and are
// skipped unless TEST_POSTGRES is set, so `go test ./...` stays green on
// machines without a database.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"go.uber.org/zap"

	"github.com/Cloutiere/mermaid/internal/config"
	"github.com/Cloutiere/mermaid/internal/migrate"
)

const templateDBName = "narrative_test_template"

var (
	templateOnce sync.Once
	templateErr  error
)

// Enabled reports whether database-backed tests should run.
func Enabled() bool {
	return os.Getenv("TEST_POSTGRES") != ""
}

// RequireDB skips the test when no test database is configured.
func RequireDB(t testing.TB) {
	t.Helper()
	if !Enabled() {
		t.Skip("TEST_POSTGRES not set; skipping database test")
	}
}

// TestDB holds test database resources
type TestDB struct {
	Config  *config.Config
	Pool    *pgxpool.Pool
	DB      *bun.DB
	Name    string
	cleanup func()

	tx    bun.Tx
	hasTx bool
}

// Close releases test database resources
func (t *TestDB) Close() {
	if t.cleanup != nil {
		t.cleanup()
	}
}

// GetDB returns the active test transaction, or the base DB when none is open.
func (t *TestDB) GetDB() bun.IDB {
	if t.hasTx {
		return t.tx
	}
	return t.DB
}

// BeginTestTx starts a transaction that RollbackTestTx discards.
// Code under test that opens its own transactions gets savepoints.
func (t *TestDB) BeginTestTx(ctx context.Context) error {
	if t.hasTx {
		return fmt.Errorf("transaction already started")
	}
	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	t.tx = tx
	t.hasTx = true
	return nil
}

// RollbackTestTx rolls back the current transaction, discarding all changes.
func (t *TestDB) RollbackTestTx() error {
	if !t.hasTx {
		return nil
	}
	err := t.tx.Rollback()
	t.hasTx = false
	return err
}

// SetupTestDB creates an isolated database cloned from a migrated template.
//
// The template is built once per test run by applying the embedded
// migrations; each call then runs CREATE DATABASE ... TEMPLATE, which is
// much faster than migrating from scratch. The clone is dropped by Close.
func SetupTestDB(ctx context.Context, suffix string) (*TestDB, error) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	baseCfg, err := config.NewConfig(log)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	templateOnce.Do(func() {
		templateErr = ensureTemplateDB(ctx, baseCfg, log)
	})
	if templateErr != nil {
		return nil, fmt.Errorf("ensure template db: %w", templateErr)
	}

	testDBName := fmt.Sprintf("narrative_test_%s_%d", suffix, time.Now().UnixNano())

	adminCfg := *baseCfg
	adminCfg.Database.Database = "postgres"
	adminPool, err := createPool(ctx, &adminCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	_, err = adminPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s TEMPLATE %s", testDBName, templateDBName))
	adminPool.Close()
	if err != nil {
		return nil, fmt.Errorf("create test db from template: %w", err)
	}

	testCfg := *baseCfg
	testCfg.Database.Database = testDBName

	testPool, err := createPool(ctx, &testCfg)
	if err != nil {
		dropTestDB(ctx, baseCfg, testDBName)
		return nil, fmt.Errorf("connect to test db: %w", err)
	}

	bunDB := bun.NewDB(stdlib.OpenDBFromPool(testPool), pgdialect.New())

	cleanup := func() {
		bunDB.Close()
		testPool.Close()
		dropTestDB(context.Background(), baseCfg, testDBName)
	}

	return &TestDB{
		Config:  &testCfg,
		Pool:    testPool,
		DB:      bunDB,
		Name:    testDBName,
		cleanup: cleanup,
	}, nil
}

func ensureTemplateDB(ctx context.Context, baseCfg *config.Config, log *slog.Logger) error {
	adminCfg := *baseCfg
	adminCfg.Database.Database = "postgres"

	adminPool, err := createPool(ctx, &adminCfg)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer adminPool.Close()

	// A stale template would hide new migrations, so always rebuild it.
	dropTestDB(ctx, baseCfg, templateDBName)
	if _, err := adminPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", templateDBName)); err != nil {
		return fmt.Errorf("create template db: %w", err)
	}

	templateCfg := *baseCfg
	templateCfg.Database.Database = templateDBName
	templatePool, err := createPool(ctx, &templateCfg)
	if err != nil {
		dropTestDB(ctx, baseCfg, templateDBName)
		return fmt.Errorf("connect to template db: %w", err)
	}

	sqldb := stdlib.OpenDBFromPool(templatePool)
	err = migrate.NewMigratorWithDB(sqldb, zap.NewNop()).Up(ctx)
	sqldb.Close()
	templatePool.Close()
	if err != nil {
		dropTestDB(ctx, baseCfg, templateDBName)
		return fmt.Errorf("migrate template db: %w", err)
	}

	log.Info("template database created", slog.String("name", templateDBName))
	return nil
}

func createPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = 5
	return pgxpool.NewWithConfig(ctx, poolConfig)
}

func dropTestDB(ctx context.Context, baseCfg *config.Config, dbName string) {
	adminCfg := *baseCfg
	adminCfg.Database.Database = "postgres"

	pool, err := createPool(ctx, &adminCfg)
	if err != nil {
		return
	}
	defer pool.Close()

	_, _ = pool.Exec(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, dbName)
	_, _ = pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName))
}
