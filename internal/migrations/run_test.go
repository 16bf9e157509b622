package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)
	return filepath.Join(projectRoot, "migrations")
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestRunMigrations(t *testing.T) {
	db := getTestDB(t)

	require.NoError(t, Run(db, getMigrationsPath(t)))

	assert.True(t, tableExists(t, db, "users"), "Table 'users' should exist")
	assert.True(t, tableExists(t, db, "subscriptions"), "Table 'subscriptions' should exist")

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'subscriptions'
			AND indexname = 'uniq_subscriptions_one_active'
		)`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "partial unique index should exist")
}

func TestMigrationIdempotency(t *testing.T) {
	db := getTestDB(t)
	path := getMigrationsPath(t)

	require.NoError(t, Run(db, path))
	require.NoError(t, Run(db, path), "Running migrations twice should not fail")
}

func TestOneActiveSubscriptionPerUser(t *testing.T) {
	db := getTestDB(t)
	require.NoError(t, Run(db, getMigrationsPath(t)))

	var userID string
	err := db.QueryRow(`INSERT INTO users (name, email, password) VALUES ('A', 'a@example.com', 'x') RETURNING id`).Scan(&userID)
	require.NoError(t, err)

	insert := `INSERT INTO subscriptions (user_id, user_email, status, start_date, expiry_date)
	           VALUES ($1, 'a@example.com', $2, NOW(), NOW() + INTERVAL '1 day')`
	_, err = db.Exec(insert, userID, "active")
	require.NoError(t, err)
	_, err = db.Exec(insert, userID, "inactive")
	require.NoError(t, err)

	_, err = db.Exec(insert, userID, "active")
	assert.Error(t, err, "second active row must violate the partial unique index")

	_, err = db.Exec(insert, userID, "expired")
	assert.Error(t, err, "unknown status must violate the check constraint")
}
