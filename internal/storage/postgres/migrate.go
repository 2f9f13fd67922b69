package postgres

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationStatus reports the schema version after Migrate.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	// Changed is false when the schema was already at the requested version.
	Changed bool
}

// Migrate applies the migrations in dir to the database at dsn. steps > 0
// applies that many up migrations, steps < 0 rolls back that many, and
// steps == 0 migrates all the way up.
//
// Precondition: dir holds golang-migrate style NNN_name.up.sql/.down.sql files.
// Postcondition: Returns the resulting status, or an error if a migration failed.
func Migrate(dsn, dir string, steps int) (MigrationStatus, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("resolving migrations dir: %w", err)
	}
	m, err := migrate.New("file://"+filepath.ToSlash(abs), dsn)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	changed := true
	if errors.Is(err, migrate.ErrNoChange) {
		changed = false
		err = nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, fmt.Errorf("reading schema version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty, Changed: changed}, nil
}
