package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/mutker/homemon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSensors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sensors", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"mac_address":"A4:C1:38:00:00:01","alias":"Living room"}]`))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL + "/api")

	sensors, err := client.Sensors(context.Background())
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	assert.Equal(t, "Living room", sensors[0].Name())
}

func TestClientSensorMeasurementsQuery(t *testing.T) {
	var gotPath, gotStart, gotEnd string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStart = r.URL.Query().Get("start_time")
		gotEnd = r.URL.Query().Get("end_time")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"timestamp":"2025-03-01T12:00:00Z","temperature":21.5,"humidity":40,"battery_voltage":2.9}]`))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL + "/api")
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	measurements, err := client.SensorMeasurements(context.Background(), 7, start, end)
	require.NoError(t, err)
	require.Len(t, measurements, 1)
	assert.Equal(t, "/api/measurements/7/trend", gotPath)
	assert.Equal(t, "2025-03-01T00:00:00Z", gotStart)
	assert.Equal(t, "2025-03-02T00:00:00Z", gotEnd)
	assert.Equal(t, 21.5, measurements[0].Temperature)
}

func TestClientStatsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"no measurements"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL + "/api")

	_, err := client.SensorStats(context.Background(), 1, time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.Equal(t, ErrNoData, errors.CodeOf(err))
}

func TestClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL + "/api")

	_, err := client.Sensors(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrAPIStatus, errors.CodeOf(err))
}
