package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	serrors "github.com/abgdnv/stocktrack/internal/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "STOCKTRACK_SKIP_INTEGRATION_TESTS"

// PgStoreSuite is a test suite for the PgStore implementation.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       *PgStore
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts a PostgreSQL container, connects and applies migrations.
func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "stocktrack_db"
	dbUser := "user"
	dbPassword := "password"

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../migrations")
	sourceURL := "file://" + migrationsPath
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for PgStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *PgStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
		s.logger.Info("DB pool closed.")
	}
	if s.pgContainer != nil {
		s.logger.Info("Terminating PostgreSQL container...")
		err := s.pgContainer.Terminate(s.ctx)
		if err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		} else {
			s.logger.Info("PostgreSQL container terminated.")
		}
	}
}

// SetupTest prepares the database for each test by truncating the documents table.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE documents")
	require.NoError(s.T(), err, "Failed to truncate documents table")
}

// TestPgStoreIntegration runs the PgStore integration tests.
func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

// seedRecord is a helper that inserts one document row directly.
func (s *PgStoreSuite) seedRecord(collection string, fields Fields) Ref {
	s.T().Helper()
	raw, err := json.Marshal(fields)
	require.NoError(s.T(), err, "seedRecord helper failed to marshal fields")
	var id uuid.UUID
	err = s.dbPool.QueryRow(s.ctx,
		`INSERT INTO documents (collection, fields) VALUES ($1, $2::jsonb) RETURNING id`,
		collection, raw).Scan(&id)
	require.NoError(s.T(), err, "seedRecord helper failed to insert document")
	return Ref{Collection: collection, ID: id}
}

func (s *PgStoreSuite) TestReadAll() {
	s.SetupTest()
	// given
	s.seedRecord("categories", Fields{"name": "Dairy"})
	s.seedRecord("categories", Fields{"name": "Meat"})
	s.seedRecord("items", Fields{"barcode": "A1", "category": "Dairy"})

	// when
	records, err := s.store.ReadAll(s.ctx, "categories")

	// then
	require.NoError(s.T(), err, "ReadAll should not return an error")
	require.Len(s.T(), records, 2, "Should read both category records")
	names := make(map[string]bool)
	for _, rec := range records {
		name, ok := rec.Fields["name"].(string)
		require.True(s.T(), ok, "name field should decode as a string")
		names[name] = true
	}
	assert.True(s.T(), names["Dairy"], "Should contain the Dairy category")
	assert.True(s.T(), names["Meat"], "Should contain the Meat category")
}

func (s *PgStoreSuite) TestReadAll_EmptyCollection() {
	s.SetupTest()
	// given (no documents seeded)

	// when
	records, err := s.store.ReadAll(s.ctx, "categories")

	// then
	require.NoError(s.T(), err, "ReadAll should not return an error for an empty collection")
	require.Empty(s.T(), records, "Should read no records")
}

func (s *PgStoreSuite) TestReadWhere() {
	s.SetupTest()
	// given
	refA1 := s.seedRecord("items", Fields{"barcode": "A1", "name": "Milk", "category": "Dairy"})
	s.seedRecord("items", Fields{"barcode": "B1", "name": "Chicken", "category": "Meat"})
	refA2 := s.seedRecord("items", Fields{"barcode": "A2", "name": "Butter", "category": "Dairy"})

	// when
	records, err := s.store.ReadWhere(s.ctx, "items", "category", "Dairy")

	// then
	require.NoError(s.T(), err, "ReadWhere should not return an error")
	require.Len(s.T(), records, 2, "Should match both Dairy items")
	ids := []uuid.UUID{records[0].Ref.ID, records[1].Ref.ID}
	assert.ElementsMatch(s.T(), []uuid.UUID{refA1.ID, refA2.ID}, ids, "Should match the seeded Dairy records")

	// when
	none, err := s.store.ReadWhere(s.ctx, "items", "category", "Frozen")

	// then
	require.NoError(s.T(), err, "ReadWhere should not return an error for zero matches")
	require.Empty(s.T(), none, "Should match no records")
}

func (s *PgStoreSuite) TestWriteField() {
	s.SetupTest()
	// given
	ref := s.seedRecord("items", Fields{"barcode": "A1", "name": "Milk", "quantity": "2", "category": "Dairy"})

	// when
	err := s.store.WriteField(s.ctx, ref, "name", "Whole Milk")

	// then
	require.NoError(s.T(), err, "WriteField should not return an error")
	records, err := s.store.ReadWhere(s.ctx, "items", "barcode", "A1")
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), "Whole Milk", records[0].Fields["name"], "Written field should carry the new value")
	assert.Equal(s.T(), "2", records[0].Fields["quantity"], "Other fields should be untouched")
	assert.Equal(s.T(), "Dairy", records[0].Fields["category"], "Other fields should be untouched")
}

func (s *PgStoreSuite) TestWriteField_AddsMissingField() {
	s.SetupTest()
	// given
	ref := s.seedRecord("items", Fields{"barcode": "A1"})

	// when
	err := s.store.WriteField(s.ctx, ref, "expiryDate", "15 June 2025")

	// then
	require.NoError(s.T(), err, "WriteField should create a missing field")
	records, err := s.store.ReadWhere(s.ctx, "items", "barcode", "A1")
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), "15 June 2025", records[0].Fields["expiryDate"])
}

func (s *PgStoreSuite) TestWriteField_NotFound() {
	s.SetupTest()
	// given (no documents seeded)

	// when
	err := s.store.WriteField(s.ctx, Ref{Collection: "items", ID: uuid.New()}, "name", "Milk")

	// then
	require.ErrorIs(s.T(), err, serrors.ErrRecordNotFound, "Expected ErrRecordNotFound for non-existent record")
}

func (s *PgStoreSuite) TestDelete() {
	s.SetupTest()
	// given
	refA := s.seedRecord("items", Fields{"barcode": "A1", "category": "Dairy"})
	s.seedRecord("items", Fields{"barcode": "A2", "category": "Dairy"})

	// when
	err := s.store.Delete(s.ctx, refA)

	// then
	require.NoError(s.T(), err, "Delete should not return an error")
	records, err := s.store.ReadAll(s.ctx, "items")
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1, "Only the referenced record should be removed")
	assert.Equal(s.T(), "A2", records[0].Fields["barcode"])
}

func (s *PgStoreSuite) TestDelete_NotFound() {
	s.SetupTest()
	// given
	ref := s.seedRecord("items", Fields{"barcode": "A1"})
	require.NoError(s.T(), s.store.Delete(s.ctx, ref))

	// when
	err := s.store.Delete(s.ctx, ref)

	// then
	require.ErrorIs(s.T(), err, serrors.ErrRecordNotFound, "Expected ErrRecordNotFound for already-deleted record")
}
