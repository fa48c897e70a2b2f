//go:build integration

package services

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"csdash/internal/config"
	"csdash/internal/database"
	"csdash/internal/observability"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/stretchr/testify/require"
)

// SharedTestDBSetup connects to the integration test database, applies
// migrations, and truncates the dashboard tables so each test starts clean.
// Tests are skipped when TEST_DATABASE_URL is not set.
func SharedTestDBSetup(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	dm := database.NewManager(logger)
	db, err := dm.InitDB(config.DatabaseConfig{
		URL:             url,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err, "integration database must be reachable")

	_, err = db.Exec(`TRUNCATE bookmarks, cs_questions, projects RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

func testLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
}
