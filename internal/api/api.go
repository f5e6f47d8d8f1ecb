// Package api serves the read-only HTTP query surface over the sensor
// database.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/mutker/homemon/internal/errors"
	"codeberg.org/mutker/homemon/internal/logger"
	"codeberg.org/mutker/homemon/internal/observability"
	"codeberg.org/mutker/homemon/internal/storage"
	"github.com/gorilla/mux"
)

type Server struct {
	repo    storage.Repository
	handler http.Handler
}

// Response models mirror the database field names.
type sensorResponse struct {
	ID         int64   `json:"id"`
	MACAddress string  `json:"mac_address"`
	Alias      *string `json:"alias"`
}

type measurementResponse struct {
	Timestamp      time.Time `json:"timestamp"`
	Temperature    float64   `json:"temperature"`
	Humidity       int       `json:"humidity"`
	BatteryVoltage float64   `json:"battery_voltage"`
}

type recentMeasurementResponse struct {
	SensorID int64 `json:"sensor_id"`
	measurementResponse
}

type statsResponse struct {
	AverageTemperature float64 `json:"average_temperature"`
	AverageHumidity    float64 `json:"average_humidity"`
	MinTemperature     float64 `json:"min_temperature"`
	MaxTemperature     float64 `json:"max_temperature"`
	MinHumidity        int     `json:"min_humidity"`
	MaxHumidity        int     `json:"max_humidity"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func NewServer(repo storage.Repository) *Server {
	s := &Server{repo: repo}

	r := mux.NewRouter()

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/sensors", s.listSensors).Methods(http.MethodGet)
	apiRouter.HandleFunc("/sensors/{id:[0-9]+}", s.getSensor).Methods(http.MethodGet)
	apiRouter.HandleFunc("/measurements/recent", s.recentMeasurements).Methods(http.MethodGet)
	apiRouter.HandleFunc("/measurements/{sensor_id:[0-9]+}", s.measurements).Methods(http.MethodGet)
	apiRouter.HandleFunc("/measurements/{sensor_id:[0-9]+}/stats", s.stats).Methods(http.MethodGet)
	apiRouter.HandleFunc("/measurements/{sensor_id:[0-9]+}/trend", s.trend).Methods(http.MethodGet)

	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	// Preflight OPTIONS requests never match the GET-only routes, so
	// the CORS wrapper sits outside the router.
	s.handler = corsMiddleware(r)

	return s
}

func (s *Server) Router() http.Handler {
	return s.handler
}

// ListenAndServe runs the API server until it fails.
func (s *Server) ListenAndServe(addr string) error {
	logger.Info().Str("listen", addr).Msg("API server listening")

	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}

func (s *Server) listSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := s.repo.ListSensors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]sensorResponse, 0, len(sensors))
	for _, sn := range sensors {
		out = append(out, sensorResponse{ID: sn.ID, MACAddress: sn.MACAddress, Alias: sn.Alias})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSensor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid sensor id"})
		return
	}

	sn, err := s.repo.GetSensor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sensorResponse{ID: sn.ID, MACAddress: sn.MACAddress, Alias: sn.Alias})
}

func (s *Server) recentMeasurements(w http.ResponseWriter, r *http.Request) {
	measurements, err := s.repo.RecentMeasurements(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]recentMeasurementResponse, 0, len(measurements))
	for _, m := range measurements {
		out = append(out, recentMeasurementResponse{
			SensorID: m.SensorID,
			measurementResponse: measurementResponse{
				Timestamp:      m.Timestamp,
				Temperature:    m.Temperature,
				Humidity:       m.Humidity,
				BatteryVoltage: m.BatteryVoltage,
			},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) measurements(w http.ResponseWriter, r *http.Request) {
	s.measurementsOrdered(w, r, false)
}

// trend returns the same rows as measurements but oldest first, for
// plotting.
func (s *Server) trend(w http.ResponseWriter, r *http.Request) {
	s.measurementsOrdered(w, r, true)
}

func (s *Server) measurementsOrdered(w http.ResponseWriter, r *http.Request, ascending bool) {
	sensorID, err := strconv.ParseInt(mux.Vars(r)["sensor_id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid sensor id"})
		return
	}

	tr, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	measurements, err := s.repo.Measurements(r.Context(), sensorID, tr, ascending)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]measurementResponse, 0, len(measurements))
	for _, m := range measurements {
		out = append(out, measurementResponse{
			Timestamp:      m.Timestamp,
			Temperature:    m.Temperature,
			Humidity:       m.Humidity,
			BatteryVoltage: m.BatteryVoltage,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	sensorID, err := strconv.ParseInt(mux.Vars(r)["sensor_id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid sensor id"})
		return
	}

	tr, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	stats, err := s.repo.Stats(r.Context(), sensorID, tr)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		AverageTemperature: stats.AverageTemperature,
		AverageHumidity:    stats.AverageHumidity,
		MinTemperature:     stats.MinTemperature,
		MaxTemperature:     stats.MaxTemperature,
		MinHumidity:        stats.MinHumidity,
		MaxHumidity:        stats.MaxHumidity,
	})
}

func parseTimeRange(r *http.Request) (storage.TimeRange, error) {
	var tr storage.TimeRange

	for param, dest := range map[string]**time.Time{
		"start_time": &tr.Start,
		"end_time":   &tr.End,
	} {
		value := r.URL.Query().Get(param)
		if value == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return storage.TimeRange{}, errors.New().WithMessage(errors.ErrInvalidArgument, "invalid "+param)
		}
		*dest = &t
	}

	return tr, nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case storage.ErrSensorNotFound, storage.ErrNoMeasurements:
		status = http.StatusNotFound
	case errors.ErrInvalidArgument:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	}

	writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug().Err(err).Msg("response encode failed")
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
