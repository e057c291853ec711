// Command migrate applies, inspects and rolls back the database schema.
//
//	migrate up              apply pending SQL migrations
//	migrate auto            run GORM AutoMigrate for every registered model
//	migrate status          print the schema plan, pending migrations and missing tables
//	migrate down [version]  roll back one migration, the latest applied by default
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"fellowship/internal/config"
	"fellowship/internal/database"
	"fellowship/internal/middleware"

	"gorm.io/gorm"
)

var errUsage = errors.New("usage: migrate <up|auto|status|down> [version]")

func main() {
	if err := run(os.Args[1:]); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		middleware.Logger.Info("SQL migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		middleware.Logger.Info("AutoMigrate applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		printStatus(status)
	case "down":
		version, err := rollbackTarget(ctx, db, args[1:])
		if err != nil {
			return err
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
	default:
		return errUsage
	}
	return nil
}

func printStatus(status *database.SchemaStatus) {
	fmt.Printf("mode:        %s\n", status.Mode)
	fmt.Printf("env:         %s\n", status.Environment)
	fmt.Printf("run sql:     %t\n", status.WillRunSQL)
	fmt.Printf("run auto:    %t\n", status.WillRunAutoMigrate)
	fmt.Printf("applied:     %d\n", len(status.AppliedVersions))
	for _, m := range status.PendingMigrations {
		fmt.Printf("pending:     %s\n", m.String())
	}
	for _, table := range status.MissingTables {
		fmt.Printf("missing:     %s\n", table)
	}
}

// rollbackTarget returns the version named in args, or the latest applied one.
func rollbackTarget(ctx context.Context, db *gorm.DB, args []string) (int, error) {
	if len(args) > 0 {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return version, nil
	}
	applied, err := database.NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}
	if len(applied) == 0 {
		return 0, errors.New("no applied migrations to roll back")
	}
	return applied[len(applied)-1], nil
}
