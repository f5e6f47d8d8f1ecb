package sensor

import "codeberg.org/mutker/homemon/internal/errors"

const (
	ErrConnect = errors.ErrSensorConnect
	ErrRead    = errors.ErrSensorRead
	ErrDecode  = errors.ErrSensorDecode
	ErrFault   = errors.ErrSensorFault

	ErrInvalidConfig = errors.ErrorCode("sensor_invalid_config")
	ErrGateAcquire   = errors.ErrorCode("sensor_gate_acquire_failed")
)
