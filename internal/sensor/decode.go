package sensor

import (
	"encoding/binary"

	"codeberg.org/mutker/homemon/internal/errors"
)

const payloadSize = 5

// Decode converts the raw LYWSD03MMC characteristic payload into a
// Measurement. The payload is exactly 5 bytes: temperature as a
// little-endian centidegree pair, humidity as a direct percentage byte,
// battery as a little-endian millivolt pair.
//
// Out-of-range values (e.g. humidity above 100) pass through unmodified;
// the device is trusted.
func Decode(raw []byte) (Measurement, error) {
	if len(raw) != payloadSize {
		return Measurement{}, errors.New().WithData(ErrDecode, struct {
			Expected int
			Got      int
		}{
			Expected: payloadSize,
			Got:      len(raw),
		})
	}

	return Measurement{
		TemperatureC: float64(binary.LittleEndian.Uint16(raw[0:2])) * 0.01,
		HumidityPct:  int(raw[2]),
		BatteryVolts: float64(binary.LittleEndian.Uint16(raw[3:5])) * 0.001,
	}, nil
}
