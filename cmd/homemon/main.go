package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/homemon/internal/ble"
	"codeberg.org/mutker/homemon/internal/config"
	"codeberg.org/mutker/homemon/internal/logger"
	"codeberg.org/mutker/homemon/internal/observability"
	"codeberg.org/mutker/homemon/internal/pid"
	"codeberg.org/mutker/homemon/internal/sensor"
	"codeberg.org/mutker/homemon/internal/storage"
)

var (
	cfg     *config.Config
	link    sensor.DeviceLink
	poller  *sensor.Poller
	repo    storage.Repository
	metrics *observability.PollMetrics
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}

	link, err = ble.NewLink()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize Bluetooth adapter")
	}

	pollCfg := sensor.DefaultConfig()
	pollCfg.ConnectTimeout = time.Duration(cfg.ConnectTimeout) * time.Second
	pollCfg.QuietPeriod = time.Duration(cfg.QuietPeriodMS) * time.Millisecond

	poller, err = sensor.NewPoller(link, sensor.NewGate(), pollCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize poller")
	}

	repo, err = storage.NewRepository(storage.Config{DBPath: cfg.Database})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}

	metrics = observability.NewPollMetrics()
}

func main() {
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.MetricsListen != "" {
		go serveMetrics(cfg.MetricsListen)
	}

	if err := loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
}

func loop(ctx context.Context) error {
	if len(cfg.Sensors) == 0 {
		logger.Warn().Msg("No sensors configured. Nothing to poll.")
	}

	descriptors := make([]sensor.Descriptor, 0, len(cfg.Sensors))
	for _, s := range cfg.Sensors {
		descriptors = append(descriptors, sensor.Descriptor{Address: s.MACAddress, Alias: s.Alias})
	}

	interval := time.Duration(cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First round runs immediately, the ticker paces the rest.
	pollRound(ctx, descriptors)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pollRound(ctx, descriptors)
		}
	}
}

func pollRound(ctx context.Context, descriptors []sensor.Descriptor) {
	started := time.Now()
	outcomes := poller.PollAll(ctx, descriptors)
	metrics.ObserveRound(outcomes, time.Since(started))

	for _, out := range outcomes {
		if !out.OK() {
			logger.Warn().
				Str("sensor", out.Descriptor.Name()).
				Str("error", out.Err).
				Msg("Poll failed")

			continue
		}

		store(ctx, out)
	}
}

func store(ctx context.Context, out sensor.Outcome) {
	sensorID, err := repo.GetOrCreateSensor(ctx, out.Descriptor.Address, out.Descriptor.Alias)
	if err != nil {
		logger.Error().Err(err).Str("sensor", out.Descriptor.Name()).Msg("failed to register sensor")
		return
	}

	if err := repo.StoreMeasurement(ctx, sensorID, *out.Measurement, time.Now()); err != nil {
		logger.Error().Err(err).Str("sensor", out.Descriptor.Name()).Msg("failed to store measurement")
		return
	}

	logger.Info().
		Str("sensor", out.Descriptor.Name()).
		Float64("temperature", out.Measurement.TemperatureC).
		Int("humidity", out.Measurement.HumidityPct).
		Float64("battery_voltage", out.Measurement.BatteryVolts).
		Msg("Measurement stored")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().Str("listen", addr).Msg("Metrics endpoint listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server failed")
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup() {
	if repo != nil {
		if err := repo.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}
	if err := pid.Remove(); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}
	logger.Info().Msg("Exiting...")
}
