// Package migration applies the embedded schema migrations for the
// analytical store.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql
var migrationFS embed.FS

// dialect binds a database.driver value to its migration tree
type dialect struct {
	dir  string
	name string
	open func(*sql.DB) (database.Driver, error)
}

var dialects = map[string]dialect{
	"postgres": {
		dir:  "sql/postgres",
		name: "postgres",
		open: func(db *sql.DB) (database.Driver, error) { return postgres.WithInstance(db, &postgres.Config{}) },
	},
	"sqlite": {
		dir:  "sql/sqlite3",
		name: "sqlite3",
		open: func(db *sql.DB) (database.Driver, error) { return sqlite3.WithInstance(db, &sqlite3.Config{}) },
	},
}

// Status is the schema version recorded in schema_migrations
type Status struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// Migrator runs the embedded migrations of one dialect over an open
// connection.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// SourceDir returns the embedded directory holding the migrations for driver
func SourceDir(driver string) (string, error) {
	d, ok := dialects[driver]
	if !ok {
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
	return d.dir, nil
}

// New wraps db. driver is the configured database.driver value.
func New(db *sql.DB, driver string, log *zap.Logger) (*Migrator, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
	target, err := d.open(db)
	if err != nil {
		return nil, fmt.Errorf("open %s migration driver: %w", d.name, err)
	}
	src, err := iofs.New(migrationFS, d.dir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, d.name, target)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return &Migrator{m: m, log: log.With(zap.String("dialect", d.name))}, nil
}

// apply runs op and logs the resulting version. An already current schema
// is not an error.
func (mg *Migrator) apply(op string, run func() error) error {
	err := run()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Info("Schema already current", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	st, err := mg.Status()
	if err != nil {
		return err
	}
	mg.log.Info("Schema migrated",
		zap.String("op", op),
		zap.Uint("version", st.Version),
		zap.Bool("dirty", st.Dirty),
	)
	return nil
}

// Up applies every pending migration
func (mg *Migrator) Up() error { return mg.apply("up", mg.m.Up) }

// Down rolls every migration back
func (mg *Migrator) Down() error { return mg.apply("down", mg.m.Down) }

// Steps moves n migrations; negative n rolls back
func (mg *Migrator) Steps(n int) error {
	return mg.apply(fmt.Sprintf("steps %d", n), func() error { return mg.m.Steps(n) })
}

// GoTo migrates up or down to version
func (mg *Migrator) GoTo(version uint) error {
	return mg.apply(fmt.Sprintf("goto %d", version), func() error { return mg.m.Migrate(version) })
}

// Status reports the current version; an unmigrated store is version 0
func (mg *Migrator) Status() (Status, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("read schema version: %w", err)
	}
	return Status{Version: version, Dirty: dirty}, nil
}

// Force records version without running anything. It clears the dirty
// flag left by a failed migration.
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
