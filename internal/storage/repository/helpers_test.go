package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/clevers-schools/internal/config"
	"github.com/magabrotheeeer/clevers-schools/internal/migrations"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, config.Storage{
		StorageConnectionString: dsn,
		DatabaseName:            "testdb",
		MinConns:                1,
		MaxConns:                4,
		ConnectTimeout:          10 * time.Second,
	})
	require.NoError(t, err, "failed to create storage")
	t.Cleanup(storage.Close)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.RunWithPool(storage.Pool, migrationsPath))

	return storage
}

// TestDataFactory создаёт тестовые данные напрямую через пул.
type TestDataFactory struct {
	pool *pgxpool.Pool
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{pool: storage.Pool}
}

// CreateUser создаёт пользователя с заданной датой регистрации.
func (f *TestDataFactory) CreateUser(t *testing.T, name, email string, createdAt time.Time) string {
	t.Helper()
	var id string
	err := f.pool.QueryRow(context.Background(),
		`INSERT INTO users (name, email, password, created_at) VALUES ($1, $2, 'hash', $3) RETURNING id`,
		name, email, createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSubscription вставляет подписку в обход бизнес-логики.
func (f *TestDataFactory) CreateSubscription(t *testing.T, userID, email, status string, expiry time.Time) string {
	t.Helper()
	var id string
	err := f.pool.QueryRow(context.Background(),
		`INSERT INTO subscriptions (user_id, user_email, status, plan, start_date, expiry_date)
		 VALUES ($1, $2, $3, 'premium', $4, $5) RETURNING id`,
		userID, email, status, expiry.AddDate(0, 0, -30), expiry).Scan(&id)
	require.NoError(t, err)
	return id
}

// CountByStatus число подписок пользователя с указанным статусом.
func (f *TestDataFactory) CountByStatus(t *testing.T, userID, status string) int {
	t.Helper()
	var n int
	err := f.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1 AND status = $2`, userID, status).Scan(&n)
	require.NoError(t, err)
	return n
}

func manualGrant(userID, email string, now time.Time, days int) models.Subscription {
	return models.Subscription{
		UserID:     userID,
		UserEmail:  email,
		Plan:       models.PlanPremium,
		StartDate:  now,
		ExpiryDate: now.AddDate(0, 0, days),
		Currency:   models.CurrencyKES,
		Reference:  "MANUAL_GRANT_BY_admin@example.com",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
