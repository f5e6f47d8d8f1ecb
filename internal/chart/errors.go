package chart

import "codeberg.org/mutker/homemon/internal/errors"

const (
	ErrNoData errors.ErrorCode = "chart_no_data"
	ErrRender errors.ErrorCode = "chart_render_failed"
)
