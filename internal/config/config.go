package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/homemon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel       = "info"
	defaultInterval       = 900 // seconds between poll rounds
	defaultDatabase       = "sensor_data.db"
	defaultConnectTimeout = 20  // seconds
	defaultQuietPeriodMS  = 500 // radio settle time after gate acquisition
	defaultAPIListen      = ":8000"
	defaultAPIURL         = "http://localhost:8000/api"
)

// SensorConfig identifies a single sensor to poll.
type SensorConfig struct {
	MACAddress string `mapstructure:"mac_address"`
	Alias      string `mapstructure:"alias"`
}

// APIConfig holds settings for the HTTP query API.
type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

// BotConfig holds settings for the Telegram bot.
type BotConfig struct {
	Token          string   `mapstructure:"token"`
	AllowedChatIDs []int64  `mapstructure:"allowed_chat_ids"`
	APIURL         string   `mapstructure:"api_url"`
	Services       []string `mapstructure:"services"`
}

type Config struct {
	Interval       int            `mapstructure:"interval"`
	Database       string         `mapstructure:"database"`
	LogLevel       string         `mapstructure:"log_level"`
	ConnectTimeout int            `mapstructure:"connect_timeout"`
	QuietPeriodMS  int            `mapstructure:"quiet_period_ms"`
	MetricsListen  string         `mapstructure:"metrics_listen"`
	Sensors        []SensorConfig `mapstructure:"sensors"`
	API            APIConfig      `mapstructure:"api"`
	Bot            BotConfig      `mapstructure:"bot"`
}

// Load reads configuration from flags, environment and the YAML config
// file, in that order of precedence.
func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("homemon", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	configFile := flags.String("config", "", "Path to config file")
	flags.String("log-level", "", "Log level (debug, info, warning, error)")
	flags.Int("interval", 0, "Seconds between poll rounds")
	flags.String("database", "", "Path to the SQLite database file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("database", defaultDatabase)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("connect_timeout", defaultConnectTimeout)
	v.SetDefault("quiet_period_ms", defaultQuietPeriodMS)
	v.SetDefault("api.listen", defaultAPIListen)
	v.SetDefault("bot.api_url", defaultAPIURL)
	v.SetDefault("bot.services", []string{"homemon"})

	v.SetEnvPrefix("HOMEMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := *configFile
	if path == "" {
		path = os.Getenv("HOMEMON_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/homemon")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	if level := mustString(flags, "log-level"); level != "" {
		v.Set("log_level", level)
	}
	if interval, err := flags.GetInt("interval"); err == nil && interval != 0 {
		v.Set("interval", interval)
	}
	if database := mustString(flags, "database"); database != "" {
		v.Set("database", database)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if !isValidLogLevel(c.LogLevel) {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Database == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "database path must not be empty")
	}
	if c.ConnectTimeout <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "connect_timeout must be positive")
	}
	if c.QuietPeriodMS < 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "quiet_period_ms must not be negative")
	}
	for _, s := range c.Sensors {
		if s.MACAddress == "" {
			return errFactory.WithMessage(errors.ErrInvalidConfig, "sensor mac_address must not be empty")
		}
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warning", "error":
		return true
	default:
		return false
	}
}

func mustString(flags *pflag.FlagSet, name string) string {
	value, err := flags.GetString(name)
	if err != nil {
		return ""
	}

	return value
}
