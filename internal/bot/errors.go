package bot

import "codeberg.org/mutker/homemon/internal/errors"

const (
	ErrAPIRequest errors.ErrorCode = "api_request_failed"
	ErrAPIStatus  errors.ErrorCode = "api_unexpected_status"
	ErrNoData     errors.ErrorCode = "api_no_data"
)
