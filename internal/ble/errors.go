package ble

import "codeberg.org/mutker/homemon/internal/errors"

const (
	ErrAdapterInit      = errors.ErrorCode("ble_adapter_init_failed")
	ErrInvalidAddress   = errors.ErrorCode("ble_invalid_address")
	ErrInvalidUUID      = errors.ErrorCode("ble_invalid_uuid")
	ErrConnectFailed    = errors.ErrorCode("ble_connect_failed")
	ErrDiscoverFailed   = errors.ErrorCode("ble_discover_failed")
	ErrCharacteristic   = errors.ErrorCode("ble_characteristic_not_found")
	ErrReadFailed       = errors.ErrorCode("ble_read_failed")
	ErrDisconnectFailed = errors.ErrorCode("ble_disconnect_failed")
)
