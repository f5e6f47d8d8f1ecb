// Package system shells out to host utilities for network diagnostics
// and maintenance actions.
package system

import (
	"context"
	"os/exec"
)

// Runner executes a host command and returns its combined output.
// Injected so command handling is testable without a live host.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return execRunner{}
}
