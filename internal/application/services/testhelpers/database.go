package testhelpers

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestDatabase struct {
	Container testcontainers.Container
	DB        *postgres.DB
	Config    *config.DatabaseConfig
}

// SetupTestDatabase starts a throwaway Postgres and applies the embedded migrations.
// Tests calling it are skipped under -short.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	if testing.Short() {
		t.Skip("skipping Postgres-backed test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbConfig := &config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Name:            "testdb",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}

	logger := Logger()

	require.NoError(t, postgres.Migrate(dbConfig, postgres.Up, logger))

	db, err := postgres.Connect(ctx, dbConfig, logger)
	require.NoError(t, err)

	return &TestDatabase{
		Container: container,
		DB:        db,
		Config:    dbConfig,
	}
}

func (td *TestDatabase) Cleanup(t *testing.T) {
	ctx := context.Background()
	td.DB.Close()
	require.NoError(t, td.Container.Terminate(ctx))
}

func (td *TestDatabase) CleanTables(t *testing.T) {
	ctx := context.Background()

	_, err := td.DB.Pool.Exec(ctx, `TRUNCATE TABLE webhook_events, refunds, payment_transactions, registrations, events RESTART IDENTITY CASCADE;`)
	require.NoError(t, err)
}

func (td *TestDatabase) AddEvent(t *testing.T, e domain.Event) {
	_, err := td.DB.Pool.Exec(context.Background(),
		`INSERT INTO events (id, name, capacity, occupancy) VALUES ($1, $2, $3, $4)`,
		e.ID, e.Name, e.Capacity, e.Occupancy,
	)
	require.NoError(t, err)
}

func (td *TestDatabase) AddRegistration(t *testing.T, r domain.Registration) {
	_, err := td.DB.Pool.Exec(context.Background(),
		`INSERT INTO registrations (id, event_id, status) VALUES ($1, $2, $3)`,
		r.ID, r.EventID, r.Status,
	)
	require.NoError(t, err)
}

func (td *TestDatabase) Occupancy(t *testing.T, eventID string) int {
	var occupancy int
	err := td.DB.Pool.QueryRow(context.Background(), `SELECT occupancy FROM events WHERE id = $1`, eventID).Scan(&occupancy)
	require.NoError(t, err)
	return occupancy
}

// Logger returns a logger that only reports errors, keeping test output quiet.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}
