package sensor

import (
	"testing"

	"codeberg.org/mutker/homemon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	m, err := Decode([]byte{0xE8, 0x03, 0x3C, 0x0F, 0x0B})
	require.NoError(t, err)

	assert.InDelta(t, 10.00, m.TemperatureC, 0.0001)
	assert.Equal(t, 60, m.HumidityPct)
	assert.InDelta(t, 2.831, m.BatteryVolts, 0.0001)
}

func TestDecodeZeroPayload(t *testing.T) {
	m, err := Decode([]byte{0x00, 0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)

	assert.Zero(t, m.TemperatureC)
	assert.Zero(t, m.HumidityPct)
	assert.Zero(t, m.BatteryVolts)
}

func TestDecodeNoClamping(t *testing.T) {
	// Out-of-range humidity passes through unmodified
	m, err := Decode([]byte{0xE8, 0x03, 0xFF, 0x0F, 0x0B})
	require.NoError(t, err)

	assert.Equal(t, 255, m.HumidityPct)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	payloads := [][]byte{
		nil,
		{},
		{0x01},
		{0x01, 0x02, 0x03, 0x04},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06},
	}

	for _, raw := range payloads {
		_, err := Decode(raw)
		require.Error(t, err, "payload of %d bytes should be rejected", len(raw))
		assert.Equal(t, ErrDecode, errors.CodeOf(err))
	}
}
