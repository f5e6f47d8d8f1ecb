package storage

import (
	"context"
	"time"

	"codeberg.org/mutker/homemon/internal/sensor"
)

// Sensor is a registered sensor row.
type Sensor struct {
	ID         int64
	MACAddress string
	Alias      *string
}

// Measurement is a stored reading for one sensor.
type Measurement struct {
	SensorID       int64
	Timestamp      time.Time
	Temperature    float64
	Humidity       int
	BatteryVoltage float64
}

// Stats summarizes a sensor's measurements over a time range.
type Stats struct {
	AverageTemperature float64
	AverageHumidity    float64
	MinTemperature     float64
	MaxTemperature     float64
	MinHumidity        int
	MaxHumidity        int
}

// TimeRange bounds a measurement query; nil endpoints are unbounded.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Repository defines the interface for sensor data storage.
type Repository interface {
	// GetOrCreateSensor returns the id for the sensor with the given
	// hardware address, registering it first if unknown. A changed
	// alias is persisted.
	GetOrCreateSensor(ctx context.Context, macAddress, alias string) (int64, error)

	// StoreMeasurement records one successful reading.
	StoreMeasurement(ctx context.Context, sensorID int64, m sensor.Measurement, observedAt time.Time) error

	ListSensors(ctx context.Context) ([]Sensor, error)
	GetSensor(ctx context.Context, id int64) (Sensor, error)

	// RecentMeasurements returns the latest measurement of every sensor.
	RecentMeasurements(ctx context.Context) ([]Measurement, error)

	// Measurements returns a sensor's readings within the range,
	// newest first unless ascending is set.
	Measurements(ctx context.Context, sensorID int64, tr TimeRange, ascending bool) ([]Measurement, error)

	// Stats aggregates a sensor's readings within the range.
	Stats(ctx context.Context, sensorID int64, tr TimeRange) (Stats, error)

	Close() error
}
