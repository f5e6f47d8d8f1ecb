package system

import (
	"context"
	"net"
	"regexp"
	"strconv"
	"strings"

	"codeberg.org/mutker/homemon/internal/errors"
)

const (
	maxAddressLen = 255
	minPingCount  = 1
	maxPingCount  = 20
)

// RFC 1123 label rules.
var hostnameRegex = regexp.MustCompile(
	`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

type Service struct {
	runner Runner
}

func NewService(runner Runner) *Service {
	return &Service{runner: runner}
}

// Ping validates the target before handing it to the ping binary.
// Output is returned even when ping exits non-zero, since unreachable
// hosts still produce a useful summary.
func (s *Service) Ping(ctx context.Context, address string, count int) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" || len(address) > maxAddressLen {
		return "", errors.New().New(ErrInvalidAddress)
	}
	if net.ParseIP(address) == nil && !hostnameRegex.MatchString(address) {
		return "", errors.New().New(ErrInvalidAddress)
	}
	if count < minPingCount || count > maxPingCount {
		return "", errors.New().New(ErrInvalidCount)
	}

	out, err := s.runner.Run(ctx, "ping", "-c", strconv.Itoa(count), address)
	if len(out) > 0 {
		return string(out), nil
	}
	if err != nil {
		return "", errors.New().Wrap(ErrCommandFailed, err)
	}

	return string(out), nil
}

// GitPull updates the working tree from its remote.
func (s *Service) GitPull(ctx context.Context) (string, error) {
	if out, err := s.runner.Run(ctx, "git", "rev-parse", "--git-dir"); err != nil {
		if strings.Contains(string(out), "not a git repository") {
			return "", errors.New().New(ErrNotGitRepo)
		}

		return "", errors.New().Wrap(ErrCommandFailed, err)
	}

	out, err := s.runner.Run(ctx, "git", "pull")
	if err != nil {
		return "", errors.New().WithMessage(ErrCommandFailed, strings.TrimSpace(string(out)))
	}

	return string(out), nil
}

func (s *Service) Reboot(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, "sudo", "reboot"); err != nil {
		return errors.New().Wrap(ErrCommandFailed, err)
	}

	return nil
}

func (s *Service) Shutdown(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, "sudo", "shutdown", "-h", "now"); err != nil {
		return errors.New().Wrap(ErrCommandFailed, err)
	}

	return nil
}

// RestartServices restarts the given systemd units one by one and
// returns the first failure.
func (s *Service) RestartServices(ctx context.Context, units []string) error {
	for _, unit := range units {
		if _, err := s.runner.Run(ctx, "sudo", "systemctl", "restart", unit); err != nil {
			return errors.New().Wrap(ErrCommandFailed, err)
		}
	}

	return nil
}
