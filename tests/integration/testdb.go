// Package integration runs the storefront against a real PostgreSQL
// database started with testcontainers. Set INTEGRATION=1 to enable it.
package integration

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inkthread/storefront/internal/infrastructure/migration"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const postgresImage = "postgres:16-alpine"

// pg is started on first use and shared by every test in the package.
var pg struct {
	sync.Mutex
	container *tcpostgres.PostgresContainer
	dsn       string
}

// TestDB is a connection to the migrated, freshly truncated database.
type TestDB struct {
	DB  *gorm.DB
	SQL *sql.DB
}

// NewSharedTestDB returns a connection to the shared container, starting
// and migrating it when no test has yet.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() || os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run tests against PostgreSQL")
	}

	pg.Lock()
	defer pg.Unlock()
	if pg.container == nil {
		startPostgres(t)
	}

	tdb := connect(t, pg.dsn)
	t.Cleanup(func() { _ = tdb.SQL.Close() })
	tdb.truncate(t)
	return tdb
}

func startPostgres(t *testing.T) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	bootstrap := connect(t, dsn)
	defer bootstrap.SQL.Close()

	m, err := migration.New(bootstrap.SQL, "", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "apply embedded migrations")
	status, err := m.Status()
	require.NoError(t, err)
	require.False(t, status.Dirty, "schema dirty at version %d", status.Version)
	require.Zero(t, status.Pending)

	pg.container, pg.dsn = container, dsn
}

func connect(t *testing.T, dsn string) *TestDB {
	t.Helper()
	level := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.Info
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	require.NoError(t, err, "connect to postgres")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	return &TestDB{DB: db, SQL: sqlDB}
}

// truncate empties every application table in one statement.
func (tdb *TestDB) truncate(t *testing.T) {
	t.Helper()
	var tables []string
	require.NoError(t, tdb.DB.Raw(
		`SELECT quote_ident(tablename) FROM pg_tables
		 WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`,
	).Scan(&tables).Error)
	if len(tables) == 0 {
		return
	}
	require.NoError(t, tdb.DB.Exec("TRUNCATE TABLE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE").Error)
}

// CleanupSharedContainer terminates the shared container. TestMain calls it.
func CleanupSharedContainer() {
	pg.Lock()
	defer pg.Unlock()
	if pg.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = pg.container.Terminate(ctx)
	pg.container, pg.dsn = nil, ""
}
