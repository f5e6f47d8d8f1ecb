package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/mutker/homemon/internal/errors"
)

// Sensor mirrors the API's sensor resource.
type Sensor struct {
	ID         int64   `json:"id"`
	MACAddress string  `json:"mac_address"`
	Alias      *string `json:"alias"`
}

// Name prefers the alias over the hardware address.
func (s Sensor) Name() string {
	if s.Alias != nil && *s.Alias != "" {
		return *s.Alias
	}

	return s.MACAddress
}

type Measurement struct {
	Timestamp      time.Time `json:"timestamp"`
	Temperature    float64   `json:"temperature"`
	Humidity       int       `json:"humidity"`
	BatteryVoltage float64   `json:"battery_voltage"`
}

type RecentMeasurement struct {
	SensorID int64 `json:"sensor_id"`
	Measurement
}

type Stats struct {
	AverageTemperature float64 `json:"average_temperature"`
	AverageHumidity    float64 `json:"average_humidity"`
	MinTemperature     float64 `json:"min_temperature"`
	MaxTemperature     float64 `json:"max_temperature"`
	MinHumidity        int     `json:"min_humidity"`
	MaxHumidity        int     `json:"max_humidity"`
}

// APIClient reads measurement data from the query API.
type APIClient interface {
	Sensors(ctx context.Context) ([]Sensor, error)
	RecentMeasurements(ctx context.Context) ([]RecentMeasurement, error)
	SensorMeasurements(ctx context.Context, sensorID int64, start, end time.Time) ([]Measurement, error)
	SensorStats(ctx context.Context, sensorID int64, start, end time.Time) (Stats, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient returns an APIClient for the given base URL, e.g.
// "http://localhost:8000/api".
func NewAPIClient(baseURL string) APIClient {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *httpClient) Sensors(ctx context.Context) ([]Sensor, error) {
	var sensors []Sensor
	if err := c.get(ctx, "/sensors", &sensors); err != nil {
		return nil, err
	}

	return sensors, nil
}

func (c *httpClient) RecentMeasurements(ctx context.Context) ([]RecentMeasurement, error) {
	var measurements []RecentMeasurement
	if err := c.get(ctx, "/measurements/recent", &measurements); err != nil {
		return nil, err
	}

	return measurements, nil
}

func (c *httpClient) SensorMeasurements(ctx context.Context, sensorID int64, start, end time.Time) ([]Measurement, error) {
	path := fmt.Sprintf("/measurements/%d/trend?%s", sensorID, rangeQuery(start, end))

	var measurements []Measurement
	if err := c.get(ctx, path, &measurements); err != nil {
		return nil, err
	}

	return measurements, nil
}

func (c *httpClient) SensorStats(ctx context.Context, sensorID int64, start, end time.Time) (Stats, error) {
	path := fmt.Sprintf("/measurements/%d/stats?%s", sensorID, rangeQuery(start, end))

	var stats Stats
	if err := c.get(ctx, path, &stats); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func rangeQuery(start, end time.Time) string {
	q := url.Values{}
	q.Set("start_time", start.UTC().Format(time.RFC3339))
	q.Set("end_time", end.UTC().Format(time.RFC3339))

	return q.Encode()
}

func (c *httpClient) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.New().Wrap(ErrAPIRequest, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.New().Wrap(ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.New().New(ErrNoData)
	case resp.StatusCode != http.StatusOK:
		return errors.New().WithMessage(ErrAPIStatus, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.New().Wrap(ErrAPIRequest, err)
	}

	return nil
}
