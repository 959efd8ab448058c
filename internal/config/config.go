package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"support-band-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Universe  UniverseConfig  `mapstructure:"universe"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
	State     StateConfig     `mapstructure:"state"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// UniverseConfig selects and parameterises the symbol source.
type UniverseConfig struct {
	Source     string        `mapstructure:"source"`
	Symbols    []string      `mapstructure:"symbols"`
	BaseURL    string        `mapstructure:"base_url"`
	VsCurrency string        `mapstructure:"vs_currency"`
	Pages      int           `mapstructure:"pages"`
	PerPage    int           `mapstructure:"per_page"`
	ShardIndex int           `mapstructure:"shard_index"`
	ShardSize  int           `mapstructure:"shard_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ProviderConfig selects and parameterises the market data provider.
type ProviderConfig struct {
	Name           string        `mapstructure:"name"`
	BaseURL        string        `mapstructure:"base_url"`
	VsCurrency     string        `mapstructure:"vs_currency"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	LookbackDays   int           `mapstructure:"lookback_days"`
	Pacing         time.Duration `mapstructure:"pacing"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	RetryBackoff   float64       `mapstructure:"retry_backoff"`
}

// IndicatorConfig holds the band parameters. Depth and near threshold are
// deployment choices, not derived values.
type IndicatorConfig struct {
	Window           int     `mapstructure:"window"`
	DepthPct         float64 `mapstructure:"depth_pct"`
	NearThresholdPct float64 `mapstructure:"near_threshold_pct"`
}

// StateConfig selects the alert state backend.
type StateConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	DSN       string `mapstructure:"dsn"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisKey  string `mapstructure:"redis_key"`
	LockKey   int64  `mapstructure:"lock_key"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram delivery channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BANDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bandwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("universe.source", "coingecko")
	v.SetDefault("universe.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("universe.vs_currency", "usd")
	v.SetDefault("universe.pages", 4)
	v.SetDefault("universe.per_page", 100)
	v.SetDefault("universe.shard_index", 0)
	v.SetDefault("universe.shard_size", 0)
	v.SetDefault("universe.timeout", "10s")

	v.SetDefault("provider.name", "coingecko")
	v.SetDefault("provider.vs_currency", "usd")
	v.SetDefault("provider.request_timeout", "10s")
	v.SetDefault("provider.user_agent", "bandwatch/1.0")
	v.SetDefault("provider.lookback_days", 90)
	v.SetDefault("provider.pacing", "1s")
	v.SetDefault("provider.retry_attempts", 3)
	v.SetDefault("provider.retry_delay", "5s")
	v.SetDefault("provider.retry_backoff", 2.0)

	v.SetDefault("indicator.window", 12)
	v.SetDefault("indicator.depth_pct", 0.2558)
	v.SetDefault("indicator.near_threshold_pct", 3.0)

	v.SetDefault("state.backend", "file")
	v.SetDefault("state.path", "alert_state.json")
	v.SetDefault("state.redis_key", "bandwatch:alert_state")
	v.SetDefault("state.lock_key", int64(0x62616E64))

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Indicator.Window < 1 {
		return fmt.Errorf("indicator.window must be at least 1")
	}
	if c.Indicator.DepthPct < 0 || c.Indicator.DepthPct >= 1 {
		return fmt.Errorf("indicator.depth_pct must be in [0,1)")
	}
	if c.Indicator.NearThresholdPct < 0 {
		return fmt.Errorf("indicator.near_threshold_pct cannot be negative")
	}
	if c.Provider.LookbackDays < c.Indicator.Window {
		return fmt.Errorf("provider.lookback_days must cover the indicator window")
	}
	if c.Provider.RetryAttempts < 1 {
		return fmt.Errorf("provider.retry_attempts must be at least 1")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}

	switch c.Universe.Source {
	case "coingecko":
	case "static":
		if len(c.Universe.Symbols) == 0 {
			return fmt.Errorf("universe.symbols is required for the static source")
		}
	default:
		return fmt.Errorf("unknown universe.source %q", c.Universe.Source)
	}

	switch c.Provider.Name {
	case "coingecko", "binance":
	default:
		return fmt.Errorf("unknown provider.name %q", c.Provider.Name)
	}

	switch c.State.Backend {
	case "file":
		if c.State.Path == "" {
			return fmt.Errorf("state.path is required for the file backend")
		}
	case "postgres":
		if c.State.DSN == "" {
			return fmt.Errorf("state.dsn is required for the postgres backend")
		}
	case "redis":
		if c.State.RedisAddr == "" {
			return fmt.Errorf("state.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown state.backend %q", c.State.Backend)
	}

	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
