package config

import (
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ImportConfig configures registration imports.
type ImportConfig struct {
	MaxTeamSize          int                    `yaml:"max_teamsize" mapstructure:"max_teamsize"`
	ReportOptionalErrors bool                   `yaml:"report_optional_errors" mapstructure:"report_optional_errors"`
	ResetExistingStore   bool                   `yaml:"reset_existing_store" mapstructure:"reset_existing_store"`
	DefaultTeam          string                 `yaml:"default_team" mapstructure:"default_team"`
	MappingFile          string                 `yaml:"mapping_file" mapstructure:"mapping_file"`
	RegistrationType     RegistrationTypeConfig `yaml:"registration_type" mapstructure:"registration_type"`
	Format               string                 `yaml:"format" mapstructure:"format"`
	Delimiter            string                 `yaml:"delimiter" mapstructure:"delimiter"`
	Charset              string                 `yaml:"charset" mapstructure:"charset"`
	Sheet                string                 `yaml:"sheet" mapstructure:"sheet"`
}

// RegistrationTypeConfig names the column telling single-pilot from team
// registrations and its two values.
type RegistrationTypeConfig struct {
	Field  string `yaml:"field" mapstructure:"field"`
	Single string `yaml:"single" mapstructure:"single"`
	Team   string `yaml:"team" mapstructure:"team"`
}

// StoreConfig configures the roster database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// FetchConfig configures loading payloads from remote locations.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional), environment
// variables prefixed with ROSTER_ and built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("import.max_teamsize", 2)
	v.SetDefault("import.report_optional_errors", false)
	v.SetDefault("import.reset_existing_store", false)
	v.SetDefault("import.default_team", "Z")
	v.SetDefault("import.mapping_file", "")
	v.SetDefault("import.registration_type.field", "registertype")
	v.SetDefault("import.registration_type.single", "as a singlepilot")
	v.SetDefault("import.registration_type.team", "as a teampilot")
	v.SetDefault("import.format", "csv")
	v.SetDefault("import.delimiter", ",")
	v.SetDefault("import.charset", "utf-8")
	v.SetDefault("import.sheet", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "roster.db")
	v.SetDefault("store.max_conns", 0)
	v.SetDefault("store.min_conns", 0)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings the given command mode depends on. Known
// modes are "import", "store" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "import":
		errs = append(errs, c.validateImport()...)
		errs = append(errs, c.validateStore()...)
	case "store":
		errs = append(errs, c.validateStore()...)
	case "serve":
		errs = append(errs, c.validateImport()...)
		errs = append(errs, c.validateStore()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateImport() []string {
	var errs []string
	if c.Import.MaxTeamSize < 1 {
		errs = append(errs, "import.max_teamsize must be >= 1")
	}
	if utf8.RuneCountInString(c.Import.Delimiter) != 1 {
		errs = append(errs, "import.delimiter must be a single character")
	}
	switch strings.ToLower(c.Import.Format) {
	case "csv", "xlsx":
	default:
		errs = append(errs, "import.format must be csv or xlsx")
	}
	return errs
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Store.MaxConns < 0 || c.Store.MinConns < 0 {
		errs = append(errs, "store.max_conns and store.min_conns must be >= 0")
	}
	return errs
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
