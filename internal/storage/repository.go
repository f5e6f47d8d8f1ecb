package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/homemon/internal/errors"
	"codeberg.org/mutker/homemon/internal/logger"
	"codeberg.org/mutker/homemon/internal/sensor"

	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db  *sql.DB
	cfg Config
	mu  sync.Mutex
}

// NewRepository opens (and if needed creates) the sensor database.
func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var dsn string
	if cfg.ReadOnly {
		dsn = "file:" + cfg.DBPath + "?mode=ro"
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
			return nil, errFactory.Wrap(ErrStorageInit, err)
		}
		dsn = cfg.DBPath + "?_journal=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if !cfg.ReadOnly {
		if err := InitSchema(db); err != nil {
			db.Close()
			return nil, errFactory.Wrap(ErrStorageInit, err)
		}
	}

	logger.Debug().Str("path", cfg.DBPath).Bool("read_only", cfg.ReadOnly).Msg("Storage repository initialized")

	return &repository{db: db, cfg: cfg}, nil
}

// newRepositoryWithDB wires a repository over an existing handle.
// Used by tests.
func newRepositoryWithDB(db *sql.DB, cfg Config) *repository {
	return &repository{db: db, cfg: cfg}
}

func (r *repository) GetOrCreateSensor(ctx context.Context, macAddress, alias string) (int64, error) {
	errFactory := errors.New()

	if r.cfg.ReadOnly {
		return 0, errFactory.New(ErrReadOnly)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var id int64
	var current sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, alias FROM sensors WHERE mac_address = ?", macAddress,
	).Scan(&id, &current)

	switch {
	case err == nil:
		if current.String != alias || current.Valid != (alias != "") {
			if _, err := r.db.ExecContext(ctx,
				"UPDATE sensors SET alias = ? WHERE id = ?", nullable(alias), id,
			); err != nil {
				return 0, errFactory.Wrap(ErrStorageAccess, err)
			}
		}

		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		res, err := r.db.ExecContext(ctx,
			"INSERT INTO sensors (mac_address, alias) VALUES (?, ?)", macAddress, nullable(alias),
		)
		if err != nil {
			return 0, errFactory.Wrap(ErrStorageAccess, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, errFactory.Wrap(ErrStorageAccess, err)
		}

		return id, nil
	default:
		return 0, errFactory.Wrap(ErrStorageAccess, err)
	}
}

func (r *repository) StoreMeasurement(ctx context.Context, sensorID int64, m sensor.Measurement, observedAt time.Time) error {
	errFactory := errors.New()

	if r.cfg.ReadOnly {
		return errFactory.New(ErrReadOnly)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO measurements (
            sensor_id, timestamp, temperature, humidity, battery_voltage
        ) VALUES (?, ?, ?, ?, ?)
    `,
		sensorID,
		observedAt.UTC().Format(time.RFC3339),
		m.TemperatureC,
		m.HumidityPct,
		m.BatteryVolts,
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *repository) ListSensors(ctx context.Context) ([]Sensor, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, "SELECT id, mac_address, alias FROM sensors ORDER BY id")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var sensors []Sensor
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		sensors = append(sensors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return sensors, nil
}

func (r *repository) GetSensor(ctx context.Context, id int64) (Sensor, error) {
	errFactory := errors.New()

	row := r.db.QueryRowContext(ctx, "SELECT id, mac_address, alias FROM sensors WHERE id = ?", id)

	s, err := scanSensor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Sensor{}, errFactory.WithData(ErrSensorNotFound, id)
	}
	if err != nil {
		return Sensor{}, errFactory.Wrap(ErrStorageAccess, err)
	}

	return s, nil
}

func (r *repository) RecentMeasurements(ctx context.Context) ([]Measurement, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, `
        WITH ranked AS (
            SELECT
                sensor_id, timestamp, temperature, humidity, battery_voltage,
                ROW_NUMBER() OVER (PARTITION BY sensor_id ORDER BY timestamp DESC, id DESC) AS rn
            FROM measurements
        )
        SELECT sensor_id, timestamp, temperature, humidity, battery_voltage
        FROM ranked
        WHERE rn = 1
    `)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	return collectMeasurements(rows)
}

func (r *repository) Measurements(ctx context.Context, sensorID int64, tr TimeRange, ascending bool) ([]Measurement, error) {
	errFactory := errors.New()

	query := `
        SELECT sensor_id, timestamp, temperature, humidity, battery_voltage
        FROM measurements
        WHERE sensor_id = ?`
	args := []any{sensorID}
	query, args = applyTimeRange(query, args, tr)

	if ascending {
		query += " ORDER BY timestamp ASC"
	} else {
		query += " ORDER BY timestamp DESC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	return collectMeasurements(rows)
}

func (r *repository) Stats(ctx context.Context, sensorID int64, tr TimeRange) (Stats, error) {
	errFactory := errors.New()

	query := `
        SELECT
            AVG(temperature), AVG(humidity),
            MIN(temperature), MAX(temperature),
            MIN(humidity), MAX(humidity)
        FROM measurements
        WHERE sensor_id = ?`
	args := []any{sensorID}
	query, args = applyTimeRange(query, args, tr)

	var avgTemp, avgHum, minTemp, maxTemp sql.NullFloat64
	var minHum, maxHum sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&avgTemp, &avgHum, &minTemp, &maxTemp, &minHum, &maxHum)
	if err != nil {
		return Stats{}, errFactory.Wrap(ErrStorageAccess, err)
	}

	if !avgTemp.Valid {
		return Stats{}, errFactory.WithData(ErrNoMeasurements, sensorID)
	}

	return Stats{
		AverageTemperature: avgTemp.Float64,
		AverageHumidity:    avgHum.Float64,
		MinTemperature:     minTemp.Float64,
		MaxTemperature:     maxTemp.Float64,
		MinHumidity:        int(minHum.Int64),
		MaxHumidity:        int(maxHum.Int64),
	}, nil
}

func (r *repository) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}

func applyTimeRange(query string, args []any, tr TimeRange) (string, []any) {
	if tr.Start != nil {
		query += " AND timestamp >= ?"
		args = append(args, tr.Start.UTC().Format(time.RFC3339))
	}
	if tr.End != nil {
		query += " AND timestamp <= ?"
		args = append(args, tr.End.UTC().Format(time.RFC3339))
	}

	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSensor(row rowScanner) (Sensor, error) {
	var s Sensor
	var alias sql.NullString
	if err := row.Scan(&s.ID, &s.MACAddress, &alias); err != nil {
		return Sensor{}, err
	}
	if alias.Valid {
		s.Alias = &alias.String
	}

	return s, nil
}

func collectMeasurements(rows *sql.Rows) ([]Measurement, error) {
	errFactory := errors.New()

	var out []Measurement
	for rows.Next() {
		var m Measurement
		var ts string
		if err := rows.Scan(&m.SensorID, &ts, &m.Temperature, &m.Humidity, &m.BatteryVoltage); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		parsed, err := parseTimestamp(ts)
		if err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		m.Timestamp = parsed
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return out, nil
}

func parseTimestamp(value string) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}

func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}
