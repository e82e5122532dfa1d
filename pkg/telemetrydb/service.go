// TelemetryDB stores the raw operational records ingested from per-plant
// CSV files. The (plant_id, timestamp) primary key makes repeat ingestion
// idempotent and enforces the keep-first duplicate-timestamp policy.
package telemetrydb

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/NotCoffee418/dbmigrator"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type TelemetryDB struct {
	db *sql.DB
}

// Open opens (creating if needed) the telemetry database and applies
// pending migrations.
func Open(dbPath string) (*TelemetryDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping telemetry db: %w", err)
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(db, migrationFS, "migrations")

	return &TelemetryDB{db: db}, nil
}

func (t *TelemetryDB) Close() error {
	return t.db.Close()
}
