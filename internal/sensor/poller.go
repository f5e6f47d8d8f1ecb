package sensor

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/homemon/internal/errors"
	"codeberg.org/mutker/homemon/internal/logger"
)

// Poller drives polling rounds across the configured sensors. All
// tasks in a round run concurrently and contend only on the radio
// gate.
type Poller struct {
	link DeviceLink
	gate Gate
	cfg  Config
}

func NewPoller(link DeviceLink, gate Gate, cfg Config) (*Poller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Poller{
		link: link,
		gate: gate,
		cfg:  cfg,
	}, nil
}

// PollAll performs one polling round. It returns exactly one outcome
// per descriptor, in input order, regardless of the success/failure
// mix and of the order in which tasks finish.
func (p *Poller) PollAll(ctx context.Context, sensors []Descriptor) []Outcome {
	outcomes := make([]Outcome, len(sensors))
	if len(sensors) == 0 {
		return outcomes
	}

	var wg sync.WaitGroup
	for i, d := range sensors {
		wg.Add(1)
		go func(i int, d Descriptor) {
			defer wg.Done()
			outcomes[i] = p.pollSensor(ctx, d)
		}(i, d)
	}
	wg.Wait()

	return outcomes
}

// pollSensor runs the retry loop for a single sensor. Any panic from
// the link implementation becomes a Failure outcome rather than
// aborting the round.
func (p *Poller) pollSensor(ctx context.Context, d Descriptor) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			fault := errors.New().WithData(ErrFault, r)
			logger.ErrorWithCode(fault).Str("sensor", d.Address).Msg("poll task fault")
			out = Failed(d, fault.Error())
		}
	}()

	var lastErr error
	for attempt, delay := range p.cfg.AttemptDelays {
		if delay > 0 {
			logger.Info().
				Str("sensor", d.Address).
				Dur("delay", delay).
				Msgf("Attempt %d failed, retrying", attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Failed(d, lastErr.Error())
			}
		}

		m, err := p.attempt(ctx, d)
		if err == nil {
			logger.Debug().
				Str("sensor", d.Address).
				Float64("temperature", m.TemperatureC).
				Int("humidity", m.HumidityPct).
				Float64("battery", m.BatteryVolts).
				Msg("Sensor read")

			return Succeeded(d, m)
		}
		lastErr = err
		logger.Warn().
			Str("sensor", d.Address).
			Err(err).
			Msgf("Attempt %d failed", attempt+1)
	}

	return Failed(d, lastErr.Error())
}

// attempt performs one full poll attempt: gate, quiet period, connect,
// read, decode. The gate is released on every exit path, including
// panics from the link, which surface as ordinary attempt errors.
func (p *Poller) attempt(ctx context.Context, d Descriptor) (m Measurement, err error) {
	errFactory := errors.New()

	defer func() {
		if r := recover(); r != nil {
			m, err = Measurement{}, errFactory.WithData(ErrFault, r)
		}
	}()

	if err := p.gate.Acquire(ctx); err != nil {
		return Measurement{}, errFactory.Wrap(ErrGateAcquire, err)
	}
	defer p.gate.Release()

	// Let the radio settle from the previous transaction before
	// opening a new link.
	if p.cfg.QuietPeriod > 0 {
		time.Sleep(p.cfg.QuietPeriod)
	}

	conn, err := p.link.Connect(ctx, d.Address, p.cfg.ConnectTimeout)
	if err != nil {
		return Measurement{}, errFactory.Wrap(ErrConnect, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debug().Str("sensor", d.Address).Err(err).Msg("close failed")
		}
	}()

	raw, err := conn.ReadCharacteristic(MeasurementCharacteristic)
	if err != nil {
		return Measurement{}, errFactory.Wrap(ErrRead, err)
	}

	m, err = Decode(raw)
	if err != nil {
		return Measurement{}, err
	}

	return m, nil
}
