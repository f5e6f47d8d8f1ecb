package sensor

import (
	"context"
	"time"
)

// MeasurementCharacteristic is the GATT characteristic exposing the
// temperature/humidity/battery payload on the LYWSD03MMC.
const MeasurementCharacteristic = "ebe0ccc1-7a0a-4b0c-8a1a-6ff2997da3a6"

// DeviceLink is the radio-facing capability used to reach a sensor.
// Implementations wrap the underlying Bluetooth stack; tests substitute
// instrumented fakes.
type DeviceLink interface {
	// Connect opens a link to the sensor at the given hardware address.
	// It must return within the timeout, successfully or not.
	Connect(ctx context.Context, address string, timeout time.Duration) (Connection, error)
}

// Connection is an established link to a single sensor.
type Connection interface {
	// ReadCharacteristic reads the raw payload of a GATT characteristic.
	ReadCharacteristic(uuid string) ([]byte, error)
	Close() error
}

// Gate serializes radio transactions. The radio interface cannot
// reliably run two transactions at once, so every poll task holds the
// gate for the duration of its connect+read critical section.
//
// Wakeup order among blocked waiters is unspecified.
type Gate interface {
	Acquire(ctx context.Context) error
	Release()
}
