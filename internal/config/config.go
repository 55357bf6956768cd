package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Phone    PhoneConfig    `yaml:"phone" mapstructure:"phone"`
	Web      WebConfig      `yaml:"web" mapstructure:"web"`
	Fusion   FusionConfig   `yaml:"fusion" mapstructure:"fusion"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// RegistryConfig configures the NPI registry client.
type RegistryConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// GeocodeConfig configures the primary and fallback geocoding providers.
type GeocodeConfig struct {
	PrimaryBaseURL   string `yaml:"primary_base_url" mapstructure:"primary_base_url"`
	PrimaryKey       string `yaml:"primary_key" mapstructure:"primary_key"`
	SecondaryBaseURL string `yaml:"secondary_base_url" mapstructure:"secondary_base_url"`
	SecondaryKey     string `yaml:"secondary_key" mapstructure:"secondary_key"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PhoneConfig configures the phone-validation client.
type PhoneConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Key         string `yaml:"key" mapstructure:"key"`
	CountryCode string `yaml:"country_code" mapstructure:"country_code"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// WebConfig configures the web-presence probe.
type WebConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBodyKB   int    `yaml:"max_body_kb" mapstructure:"max_body_kb"`
}

// FusionConfig configures confidence fusion.
type FusionConfig struct {
	// WeightsFile optionally overrides the built-in weights and penalties.
	WeightsFile string `yaml:"weights_file" mapstructure:"weights_file"`
}

// RetryConfig configures retry behavior for source-client network calls.
type RetryConfig struct {
	MaxAttempts  int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMS  int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelaySecs int `yaml:"max_delay_secs" mapstructure:"max_delay_secs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentProviders int `yaml:"max_concurrent_providers" mapstructure:"max_concurrent_providers"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HEALTHVERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "healthverify.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_providers", 10)
	v.SetDefault("registry.base_url", "https://npiregistry.cms.hhs.gov/api/")
	v.SetDefault("registry.timeout_secs", 30)
	v.SetDefault("registry.rate_limit_rps", 10)
	v.SetDefault("geocode.primary_base_url", "https://api.tomtom.com/search/2/geocode")
	v.SetDefault("geocode.secondary_base_url", "https://us1.locationiq.com/v1/search.php")
	v.SetDefault("geocode.timeout_secs", 30)
	v.SetDefault("phone.base_url", "https://apilayer.net/api/validate")
	v.SetDefault("phone.country_code", "US")
	v.SetDefault("phone.timeout_secs", 30)
	v.SetDefault("web.user_agent", "Mozilla/5.0 (compatible; HealthVerifyBot/1.0)")
	v.SetDefault("web.timeout_secs", 15)
	v.SetDefault("web.max_body_kb", 512)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 2000)
	v.SetDefault("retry.max_delay_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given run mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Batch.MaxConcurrentProviders < 1 || c.Batch.MaxConcurrentProviders > 50 {
		problems = append(problems, "batch.max_concurrent_providers must be between 1 and 50")
	}
	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.max_attempts must be >= 1")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "validate", "batch", "import", "generate", "export":
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
		if c.Store.Driver == "sqlite" && c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
