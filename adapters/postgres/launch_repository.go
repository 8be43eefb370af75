package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"

	"launchdash/domain/launch"
	"launchdash/internal/errors"
	"launchdash/ports"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// launchRow mirrors one row of the launch records table
type launchRow struct {
	LaunchSite      sql.NullString  `db:"launch_site"`
	PayloadMassKg   sql.NullFloat64 `db:"payload_mass_kg"`
	BoosterCategory sql.NullString  `db:"booster_version_category"`
	Class           sql.NullInt64   `db:"class"`
}

// LaunchRepository loads launch records from a Postgres table
type LaunchRepository struct {
	db    *sqlx.DB
	table string
}

var _ ports.LaunchSource = (*LaunchRepository)(nil)

// NewLaunchRepository creates a launch source reading from table
func NewLaunchRepository(db *sqlx.DB, table string) (*LaunchRepository, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, errors.ConfigInvalid(fmt.Sprintf("invalid launch table name %q", table))
	}
	return &LaunchRepository{db: db, table: table}, nil
}

// SelectQuery returns the statement used to load the table
func (r *LaunchRepository) SelectQuery() string {
	return fmt.Sprintf(`SELECT
		launch_site, payload_mass_kg, booster_version_category, class
	FROM %s ORDER BY id`, r.table)
}

// Load reads every row of the table in id order
func (r *LaunchRepository) Load(ctx context.Context) (*launch.Dataset, error) {
	var rows []launchRow
	if err := r.db.SelectContext(ctx, &rows, r.SelectQuery()); err != nil {
		return nil, errors.DatasetLoad("postgres table "+r.table, err)
	}

	records := make([]launch.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return launch.NewDataset("postgres:"+r.table, records), nil
}

func (row launchRow) toRecord() launch.Record {
	record := launch.Record{
		LaunchSite:             row.LaunchSite.String,
		BoosterVersionCategory: row.BoosterCategory.String,
	}
	if row.PayloadMassKg.Valid {
		record.PayloadMassKg = row.PayloadMassKg.Float64
		record.PayloadKnown = true
	}
	if row.Class.Valid {
		record.Outcome = launch.OutcomeFromClass(int(row.Class.Int64))
	}
	return record
}

// InsertQuery returns the named statement used by Insert
func (r *LaunchRepository) InsertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s
		(launch_site, payload_mass_kg, booster_version_category, class)
	VALUES
		(:launch_site, :payload_mass_kg, :booster_version_category, :class)`, r.table)
}

// Insert appends records to the table in a single transaction, preserving their order
func (r *LaunchRepository) Insert(ctx context.Context, records []launch.Record) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to begin transaction"))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := r.InsertQuery()
	for i, record := range records {
		if _, err = tx.NamedExecContext(ctx, query, fromRecord(record)); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to insert launch record %d", i))
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to commit launch records"))
	}
	return nil
}

func fromRecord(record launch.Record) launchRow {
	row := launchRow{
		LaunchSite:      sql.NullString{String: record.LaunchSite, Valid: record.LaunchSite != ""},
		BoosterCategory: sql.NullString{String: record.BoosterVersionCategory, Valid: record.BoosterVersionCategory != ""},
	}
	if payload, ok := record.Payload(); ok {
		row.PayloadMassKg = sql.NullFloat64{Float64: payload, Valid: true}
	}
	if class, ok := record.Outcome.Class(); ok {
		row.Class = sql.NullInt64{Int64: int64(class), Valid: true}
	}
	return row
}
