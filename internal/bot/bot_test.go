package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/homemon/internal/errors"
	"codeberg.org/mutker/homemon/internal/logger"
	"codeberg.org/mutker/homemon/internal/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init("error", true)
	m.Run()
}

type fakeClient struct {
	sensors      []Sensor
	recent       []RecentMeasurement
	measurements map[int64][]Measurement
	stats        map[int64]Stats
}

func (f *fakeClient) Sensors(context.Context) ([]Sensor, error) {
	return f.sensors, nil
}

func (f *fakeClient) RecentMeasurements(context.Context) ([]RecentMeasurement, error) {
	return f.recent, nil
}

func (f *fakeClient) SensorMeasurements(_ context.Context, sensorID int64, _, _ time.Time) ([]Measurement, error) {
	return f.measurements[sensorID], nil
}

func (f *fakeClient) SensorStats(_ context.Context, sensorID int64, _, _ time.Time) (Stats, error) {
	stats, ok := f.stats[sensorID]
	if !ok {
		return Stats{}, errors.New().New(ErrNoData)
	}

	return stats, nil
}

type fakeRunner struct {
	outputs map[string][]byte
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)

	return f.outputs[key], nil
}

func strPtr(s string) *string { return &s }

func testBot(client APIClient, runner system.Runner) *Bot {
	if runner == nil {
		runner = &fakeRunner{}
	}

	return &Bot{
		client:   client,
		sys:      system.NewService(runner),
		allowed:  map[int64]struct{}{100: {}},
		services: []string{"homemon"},
	}
}

func TestUnauthorizedChatRejected(t *testing.T) {
	b := testBot(&fakeClient{}, nil)

	msgs := b.handleCommand(context.Background(), 999, "recent", nil)
	require.Len(t, msgs, 1)
	assert.Equal(t, "You are not authorized to use this bot.", msgs[0].text)
}

func TestHelpListsCommands(t *testing.T) {
	b := testBot(&fakeClient{}, nil)

	for _, cmd := range []string{"help", "commands"} {
		msgs := b.handleCommand(context.Background(), 100, cmd, nil)
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].text, "/recent")
		assert.Contains(t, msgs[0].text, "/restart_homemon")
	}
}

func TestUnknownCommand(t *testing.T) {
	b := testBot(&fakeClient{}, nil)

	msgs := b.handleCommand(context.Background(), 100, "frobnicate", nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Unknown command")
}

func TestRecentUsesAlias(t *testing.T) {
	client := &fakeClient{
		sensors: []Sensor{
			{ID: 1, MACAddress: "A4:C1:38:00:00:01", Alias: strPtr("Living room")},
			{ID: 2, MACAddress: "A4:C1:38:00:00:02"},
		},
		recent: []RecentMeasurement{
			{SensorID: 1, Measurement: Measurement{
				Timestamp: time.Now(), Temperature: 21.5, Humidity: 40, BatteryVoltage: 2.9,
			}},
			{SensorID: 2, Measurement: Measurement{
				Timestamp: time.Now(), Temperature: 18, Humidity: 55, BatteryVoltage: 3.0,
			}},
		},
	}
	b := testBot(client, nil)

	msgs := b.handleCommand(context.Background(), 100, "recent", nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Living room:")
	assert.Contains(t, msgs[0].text, "A4:C1:38:00:00:02:")
	assert.Contains(t, msgs[0].text, "Temperature: 21.5°C")
	assert.Contains(t, msgs[0].text, "Humidity: 40%")
	assert.Contains(t, msgs[0].text, "Battery: 2.9V")
}

func TestAverage(t *testing.T) {
	client := &fakeClient{
		sensors: []Sensor{{ID: 1, MACAddress: "A4:C1:38:00:00:01", Alias: strPtr("Bedroom")}},
		stats: map[int64]Stats{
			1: {AverageTemperature: 20.62, AverageHumidity: 44.2},
		},
		measurements: map[int64][]Measurement{
			1: make([]Measurement, 96),
		},
	}
	b := testBot(client, nil)

	msgs := b.handleCommand(context.Background(), 100, "average", nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Averages over last 24h:")
	assert.Contains(t, msgs[0].text, "Average Temperature: 20.6°C")
	assert.Contains(t, msgs[0].text, "Average Humidity: 44.2%")
	assert.Contains(t, msgs[0].text, "Number of measurements: 96")
}

func TestAverageNoData(t *testing.T) {
	client := &fakeClient{
		sensors: []Sensor{{ID: 1, MACAddress: "A4:C1:38:00:00:01"}},
	}
	b := testBot(client, nil)

	msgs := b.handleCommand(context.Background(), 100, "average", []string{"6"})
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "No measurements found for sensor A4:C1:38:00:00:01 in the last 6 hours")
}

func TestAverageInvalidHours(t *testing.T) {
	b := testBot(&fakeClient{}, nil)

	for _, arg := range []string{"zero", "0", "-3"} {
		msgs := b.handleCommand(context.Background(), 100, "average", []string{arg})
		require.Len(t, msgs, 1)
		assert.Equal(t, "Invalid number of hours specified.", msgs[0].text)
	}
}

func TestGraphsProducesThreeCharts(t *testing.T) {
	start := time.Now().Add(-2 * time.Hour)
	measurements := make([]Measurement, 8)
	for i := range measurements {
		measurements[i] = Measurement{
			Timestamp:      start.Add(time.Duration(i) * 15 * time.Minute),
			Temperature:    20 + float64(i)*0.1,
			Humidity:       40 + i,
			BatteryVoltage: 2.9,
		}
	}

	client := &fakeClient{
		sensors:      []Sensor{{ID: 1, MACAddress: "A4:C1:38:00:00:01"}},
		measurements: map[int64][]Measurement{1: measurements},
	}
	b := testBot(client, nil)

	msgs := b.handleCommand(context.Background(), 100, "graphs", nil)
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, m.photo[:4])
	}
}

func TestGraphsPartialData(t *testing.T) {
	client := &fakeClient{
		sensors: []Sensor{
			{ID: 1, MACAddress: "A4:C1:38:00:00:01", Alias: strPtr("Living room")},
			{ID: 2, MACAddress: "A4:C1:38:00:00:02", Alias: strPtr("Attic")},
		},
		measurements: map[int64][]Measurement{
			1: {
				{Timestamp: time.Now().Add(-time.Hour), Temperature: 21, Humidity: 40, BatteryVoltage: 2.9},
				{Timestamp: time.Now(), Temperature: 21.4, Humidity: 41, BatteryVoltage: 2.9},
			},
		},
	}
	b := testBot(client, nil)

	msgs := b.handleCommand(context.Background(), 100, "graphs", nil)
	require.Len(t, msgs, 4)
	assert.Contains(t, msgs[0].text, "No data available for sensor Attic")
	assert.NotNil(t, msgs[1].photo)
}

func TestPingExplicitAddress(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"ping -c 5 example.com": []byte("5 packets transmitted"),
	}}
	b := testBot(&fakeClient{}, runner)

	msgs := b.handleCommand(context.Background(), 100, "ping", []string{"example.com"})
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "5 packets transmitted")
}

func TestPingDefaultsToGateway(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"nmcli -t -f DEVICE,TYPE,STATE device":            []byte("wlan0:wifi:connected\n"),
		"nmcli -t -f SIGNAL,SSID,IN-USE device wifi list": []byte("82:HomeNet:*\n"),
		"ip addr show wlan0":                              []byte("inet 192.168.1.50/24\n"),
		"ip route":                                        []byte("default via 192.168.1.1 dev wlan0\n"),
		"ping -c 5 192.168.1.1":                           []byte("pong"),
	}}
	b := testBot(&fakeClient{}, runner)

	msgs := b.handleCommand(context.Background(), 100, "ping", nil)
	require.Len(t, msgs, 1)
	assert.Equal(t, "pong", msgs[0].text)
	assert.Contains(t, runner.calls, "ping -c 5 192.168.1.1")
}

func TestRestartServices(t *testing.T) {
	runner := &fakeRunner{}
	b := testBot(&fakeClient{}, runner)

	msgs := b.handleCommand(context.Background(), 100, "restart_homemon", nil)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Restarted: homemon", msgs[0].text)
	assert.Equal(t, []string{"sudo systemctl restart homemon"}, runner.calls)
}
