package system

import "codeberg.org/mutker/homemon/internal/errors"

const (
	ErrCommandFailed  errors.ErrorCode = "system_command_failed"
	ErrNoWiFi         errors.ErrorCode = "no_wifi_connection"
	ErrInvalidAddress errors.ErrorCode = "invalid_ping_address"
	ErrInvalidCount   errors.ErrorCode = "invalid_ping_count"
	ErrNotGitRepo     errors.ErrorCode = "not_a_git_repository"
)
