package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/clinicstock/backend/pkg/database"
	"github.com/clinicstock/backend/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the shared container and applies the
// migrations found in dir of fsys.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    s, err := testutil.NewIntegrationSuite(ctx, postgres.Migrations, postgres.MigrationsDir)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    suite = s
//	    code := m.Run()
//	    testutil.TerminateContainer(ctx)
//	    os.Exit(code)
//	}
func NewIntegrationSuite(ctx context.Context, fsys fs.FS, dir string) (*IntegrationSuite, error) {
	container, db, err := getOrCreateContainer(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.New("test", "test")
	if err := database.Migrate(container.DSN, fsys, dir, log); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return &IntegrationSuite{
		Container: container,
		RawDB:     db,
		DB:        database.Wrap(db, log),
		Fixtures:  NewFixtureFactory(),
		Logger:    log,
	}, nil
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})

	return globalContainer, globalDB, containerErr
}

// ledgerTables lists every table in dependency order, children first.
var ledgerTables = []string{
	"inventory_alerts",
	"inventory_movements",
	"purchase_order_items",
	"purchase_orders",
	"inventory_batches",
	"products",
	"suppliers",
	"users",
}

// Reset empties every table so each test starts from a clean ledger.
func (s *IntegrationSuite) Reset(t *testing.T, ctx context.Context) {
	t.Helper()
	for _, table := range ledgerTables {
		if _, err := s.RawDB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to reset %s: %v", table, err)
		}
	}
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}

// UnitTestSuite provides a base for unit tests with mocked dependencies
type UnitTestSuite struct {
	MockDB   *MockDB
	Fixtures *FixtureFactory
	t        *testing.T
}

// NewUnitTestSuite creates a new unit test suite
func NewUnitTestSuite(t *testing.T) *UnitTestSuite {
	return &UnitTestSuite{
		MockDB:   NewMockDB(t),
		Fixtures: NewFixtureFactory(),
		t:        t,
	}
}

// Cleanup verifies expectations and cleans up
func (s *UnitTestSuite) Cleanup() {
	s.MockDB.ExpectationsWereMet(s.t)
	s.MockDB.Close()
}
