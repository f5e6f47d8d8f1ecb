package storage

import "codeberg.org/mutker/homemon/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("storage_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("storage_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed  = errors.ErrorCode("storage_schema_init_failed")
	ErrTransactionFailed = errors.ErrorCode("storage_transaction_failed")

	// Storage Errors
	ErrStorageAccess = errors.ErrorCode("storage_access_failed")
	ErrStorageInit   = errors.ErrorCode("storage_init_failed")
	ErrStorageClose  = errors.ErrorCode("storage_close_failed")
	ErrReadOnly      = errors.ErrorCode("storage_read_only")

	// Query Errors
	ErrSensorNotFound = errors.ErrorCode("storage_sensor_not_found")
	ErrNoMeasurements = errors.ErrorCode("storage_no_measurements")
)
