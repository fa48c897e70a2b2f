// Package main provides a small CLI utility to reset the dashboard database
// to a clean state. It is intended for local development and testing only and
// will permanently delete all data when run.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"csdash/internal/config"
	"csdash/internal/database"
	"csdash/internal/observability"
)

func fatalIfErr(ctx context.Context, logger *observability.Logger, msg string, err error) {
	logger.Error(ctx, msg, err)
	os.Exit(1)
}

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "reset-db")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if tp != nil {
			if err := tp.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error()})
			}
		}
	}()

	fmt.Println("DATABASE RESET UTILITY")
	fmt.Println("======================")
	fmt.Println("This will PERMANENTLY DELETE ALL DATA in the database:")
	fmt.Println("- All projects")
	fmt.Println("- All generated questions and answers")
	fmt.Println("- All bookmarks")
	fmt.Println("")

	if cfg.Database.URL == "" {
		fatalIfErr(ctx, logger, "Database URL is empty, cannot proceed with reset", nil)
	}

	fmt.Printf("Database: %s\n\n", maskDatabaseURL(cfg.Database.URL))

	if !confirmReset() {
		fmt.Println("Reset cancelled.")
		return
	}

	dm := database.NewManager(logger)
	db, err := dm.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		fatalIfErr(ctx, logger, "Failed to connect to database", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn(ctx, "Failed to close database", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	for _, table := range []string{"bookmarks", "cs_questions", "projects", "schema_migrations"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			fatalIfErr(ctx, logger, "Failed to drop table "+table, err)
		}
		fmt.Printf("Dropped %s\n", table)
	}

	if err := dm.RunMigrations(cfg.Database.URL); err != nil {
		fatalIfErr(ctx, logger, "Failed to re-apply migrations", err)
	}

	logger.Info(ctx, "Database reset completed")
	fmt.Println("Database reset complete.")
}

func confirmReset() bool {
	fmt.Print("Type 'reset' to confirm: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "reset"
}

// maskDatabaseURL hides credentials when echoing the target database
func maskDatabaseURL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "(unparseable database URL)"
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.Redacted()
}
