package storage

import "codeberg.org/mutker/homemon/internal/errors"

const (
	defaultDirPerm = 0o755
)

type Config struct {
	DBPath   string
	ReadOnly bool
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New().New(ErrInvalidDBPath)
	}

	return nil
}
