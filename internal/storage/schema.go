package storage

import (
	"database/sql"

	"codeberg.org/mutker/homemon/internal/errors"
	"codeberg.org/mutker/homemon/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	CREATE TABLE IF NOT EXISTS schema_versions (
	    version    INTEGER PRIMARY KEY,
	    applied_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sensors (
	    id          INTEGER PRIMARY KEY AUTOINCREMENT,
	    mac_address TEXT UNIQUE NOT NULL,
	    alias       TEXT
	);
	CREATE TABLE IF NOT EXISTS measurements (
	    id              INTEGER PRIMARY KEY AUTOINCREMENT,
	    sensor_id       INTEGER NOT NULL,
	    timestamp       DATETIME NOT NULL,
	    temperature     REAL NOT NULL,
	    humidity        INTEGER NOT NULL,
	    battery_voltage REAL NOT NULL,
	    FOREIGN KEY (sensor_id) REFERENCES sensors (id)
	);
	CREATE INDEX IF NOT EXISTS idx_measurements_sensor_id
	    ON measurements(sensor_id);
	CREATE INDEX IF NOT EXISTS idx_measurements_timestamp
	    ON measurements(timestamp);
	CREATE INDEX IF NOT EXISTS idx_measurements_sensor_timestamp
	    ON measurements(sensor_id, timestamp);`
)

// InitSchema creates the tables and indexes if they do not exist and
// records the schema version.
func InitSchema(db *sql.DB) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				logger.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
        INSERT OR IGNORE INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	logger.Debug().Int("version", SchemaVersion).Msg("Schema initialized")

	return nil
}
