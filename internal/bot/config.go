package bot

import "codeberg.org/mutker/homemon/internal/errors"

type Config struct {
	Token          string
	AllowedChatIDs []int64
	APIURL         string
	Services       []string
}

func (c Config) Validate() error {
	if c.Token == "" {
		return errors.New().WithMessage(errors.ErrInvalidConfig, "bot token is required")
	}
	if len(c.AllowedChatIDs) == 0 {
		return errors.New().WithMessage(errors.ErrInvalidConfig, "at least one allowed chat id is required")
	}
	if c.APIURL == "" {
		return errors.New().WithMessage(errors.ErrInvalidConfig, "API URL is required")
	}

	return nil
}
