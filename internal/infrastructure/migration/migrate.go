// Package migration applies the versioned SQL schema with golang-migrate and
// scaffolds new migration files.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/inkthread/storefront/migrations"
	"go.uber.org/zap"
)

const migrationsTable = "schema_migrations"

// Migrator runs schema migrations against PostgreSQL
type Migrator struct {
	m      *migrate.Migrate
	dir    string
	logger *zap.Logger
}

// Status describes where the schema stands relative to the available files
type Status struct {
	Version uint
	Dirty   bool
	Latest  uint
	Pending int
}

// New creates a Migrator. An empty dir selects the SQL embedded in the binary.
func New(db *sql.DB, dir string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("open postgres driver: %w", err)
	}

	var m *migrate.Migrate
	if dir == "" {
		src, srcErr := iofs.New(migrations.FS, ".")
		if srcErr != nil {
			return nil, fmt.Errorf("open embedded migrations: %w", srcErr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
	} else {
		m, err = migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = migrateLogger{logger.Named("migrate")}

	return &Migrator{m: m, dir: dir, logger: logger}, nil
}

// run executes a migrate operation, treating ErrNoChange as success, and
// logs the resulting version
func (mg *Migrator) run(action string, fn func() error) error {
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("Schema already current", zap.String("action", action))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.logger.Info("Migration finished",
		zap.String("action", action),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up applies every pending migration
func (mg *Migrator) Up() error {
	return mg.run("up", mg.m.Up)
}

// Down rolls every migration back
func (mg *Migrator) Down() error {
	return mg.run("down", mg.m.Down)
}

// Steps applies n migrations; negative n rolls back
func (mg *Migrator) Steps(n int) error {
	return mg.run("step "+strconv.Itoa(n), func() error { return mg.m.Steps(n) })
}

// GoTo migrates up or down to version
func (mg *Migrator) GoTo(version uint) error {
	return mg.run(fmt.Sprintf("goto %d", version), func() error { return mg.m.Migrate(version) })
}

// Version reports the applied version; 0 means nothing has run
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Status compares the applied version with the migration files
func (mg *Migrator) Status() (Status, error) {
	version, dirty, err := mg.Version()
	if err != nil {
		return Status{}, err
	}
	names, err := mg.available()
	if err != nil {
		return Status{}, err
	}
	st := Status{Version: version, Dirty: dirty}
	for _, name := range names {
		v, ok := versionOf(name)
		if !ok {
			continue
		}
		if v > st.Latest {
			st.Latest = v
		}
		if v > version {
			st.Pending++
		}
	}
	return st, nil
}

func (mg *Migrator) available() ([]string, error) {
	if mg.dir == "" {
		return EmbeddedMigrations()
	}
	return ListMigrations(mg.dir)
}

// Force records version as applied and clears the dirty flag left by a
// failed migration
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn("Forcing schema version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table in the database
func (mg *Migrator) Drop() error {
	mg.logger.Warn("Dropping all tables")
	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	return nil
}

// Close releases the source and database handles
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// versionOf parses the numeric prefix of "000002_campaigns"
func versionOf(name string) (uint, bool) {
	prefix, _, _ := strings.Cut(name, "_")
	v, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

type migrateLogger struct {
	*zap.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.Core().Enabled(zap.DebugLevel)
}

func embeddedNames(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if base, ok := strings.CutSuffix(e.Name(), suffix); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}

// EmbeddedMigrations returns the base names of the migrations compiled in
func EmbeddedMigrations() ([]string, error) {
	return embeddedNames(".up.sql")
}
