package migration

import (
	"context"
	"fmt"
	"regexp"

	"launchdash/internal/errors"

	"github.com/jmoiron/sqlx"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the launch records schema
type MigrationRunner struct {
	version string
	table   string
}

// NewRunner creates a migration runner for the given launch table
func NewRunner(table string) (*MigrationRunner, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, errors.ConfigInvalid(fmt.Sprintf("invalid launch table name %q", table))
	}
	return &MigrationRunner{
		version: "1.0.0",
		table:   table,
	}, nil
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statements returns the DDL executed by Run, in order
func (r *MigrationRunner) Statements() []string {
	return []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			launch_site VARCHAR(100),
			payload_mass_kg DOUBLE PRECISION CHECK (payload_mass_kg IS NULL OR payload_mass_kg >= 0),
			booster_version_category VARCHAR(50),
			class SMALLINT CHECK (class IS NULL OR class IN (0, 1))
		)`, r.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_launch_site_idx ON %s (launch_site)`, indexPrefix(r.table), r.table),
	}
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range r.Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to migrate %s", r.table))
		}
	}
	return nil
}

// indexPrefix drops the schema qualifier, which index names cannot carry
func indexPrefix(table string) string {
	for i := len(table) - 1; i >= 0; i-- {
		if table[i] == '.' {
			return table[i+1:]
		}
	}
	return table
}
