// Command migrate applies or inspects the narrative schema migrations.
//
// Usage: migrate [-to VERSION] up|down|status|version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/Cloutiere/mermaid/internal/config"
	"github.com/Cloutiere/mermaid/internal/migrate"
	"github.com/Cloutiere/mermaid/pkg/logger"
)

func main() {
	to := flag.Int64("to", 0, "Target version for up (0 = latest)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: migrate [-to VERSION] up|down|status|version")
		os.Exit(1)
	}

	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg, err := config.NewConfig(logger.NewLogger())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, flag.Arg(0), *to, *timeout); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, command string, to int64, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	sqldb := stdlib.OpenDBFromPool(pool)
	defer sqldb.Close()

	zl, err := migrate.NewZapLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	m := migrate.NewMigratorWithDB(sqldb, zl)

	switch command {
	case "up":
		if to > 0 {
			return m.UpTo(ctx, to)
		}
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "status":
		return m.Status(ctx)
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
