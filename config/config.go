// Package config loads the settings of the spanmarshal service from defaults, an
// optional YAML file and SPANMARSHAL_ environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"
)

// EnvPrefix prefixes every environment override, e.g. SPANMARSHAL_SERVER_PORT.
const EnvPrefix = "SPANMARSHAL"

// ConfigEnv names the environment variable holding the config file path.
const ConfigEnv = EnvPrefix + "_CONFIG"

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Negotiation NegotiationConfig `mapstructure:"negotiation"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig holds the settings of the HTTP service.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// PageLimit is the page size of listings when a request sets none. 0 turns
	// paging off by default.
	PageLimit int `mapstructure:"page_limit"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address is the host:port the service listens on.
func (server ServerConfig) Address() string {
	return server.Host + ":" + strconv.Itoa(server.Port)
}

// NegotiationConfig holds the defaults of the content engine.
type NegotiationConfig struct {
	// DefaultProducer is written when nothing a client accepts is available. Empty
	// answers such requests with 406.
	DefaultProducer string `mapstructure:"default_producer"`
	// DefaultConsumer reads bodies sent without a Content-Type.
	DefaultConsumer string `mapstructure:"default_consumer"`
	// Sniff tries every decoder on bodies of unknown type when no default consumer
	// is set.
	Sniff bool `mapstructure:"sniff"`
}

// Producer returns DefaultProducer as a media type, UNKNOWN when unset.
func (negotiation NegotiationConfig) Producer() mimetype.MediaType {
	return mimetype.FromString(negotiation.DefaultProducer)
}

// Consumer returns DefaultConsumer as a media type, UNKNOWN when unset.
func (negotiation NegotiationConfig) Consumer() mimetype.MediaType {
	return mimetype.FromString(negotiation.DefaultConsumer)
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with the service defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			PageLimit:       50,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Negotiation: NegotiationConfig{
			DefaultProducer: "",
			DefaultConsumer: "",
			Sniff:           true,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/spanmarshal.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

/*
Load reads configuration from path, or when path is empty from the file named by
SPANMARSHAL_CONFIG, or from spanmarshal.yaml in the working directory or
~/.spanmarshal. A missing file is not an error. Environment variables override the
file, with "." replaced by "_":

	SPANMARSHAL_SERVER_PORT=9090
	SPANMARSHAL_LOG_LEVEL=debug
*/
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Env overrides only apply to keys viper knows of.
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.page_limit", cfg.Server.PageLimit)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("negotiation.default_producer", cfg.Negotiation.DefaultProducer)
	v.SetDefault("negotiation.default_consumer", cfg.Negotiation.DefaultConsumer)
	v.SetDefault("negotiation.sniff", cfg.Negotiation.Sniff)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		path = os.Getenv(ConfigEnv)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("spanmarshal")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".spanmarshal"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !xerrors.As(err, &notFound) {
			return nil, xerrors.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, xerrors.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return xerrors.Errorf("invalid log.level: %q", cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = "console"
	case "console", "json":
	default:
		return xerrors.Errorf("invalid log.format: %q", cfg.Log.Format)
	}
	if len(cfg.Log.Outputs) == 0 {
		cfg.Log.Outputs = []string{"stderr"}
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return xerrors.Errorf("invalid server.port: %d", cfg.Server.Port)
	}
	if cfg.Server.PageLimit < 0 {
		return xerrors.Errorf("invalid server.page_limit: %d", cfg.Server.PageLimit)
	}

	if cfg.Negotiation.DefaultProducer != "" && cfg.Negotiation.Producer().IsZero() {
		return xerrors.Errorf(
			"invalid negotiation.default_producer: %q", cfg.Negotiation.DefaultProducer,
		)
	}
	if cfg.Negotiation.DefaultConsumer != "" && cfg.Negotiation.Consumer().IsZero() {
		return xerrors.Errorf(
			"invalid negotiation.default_consumer: %q", cfg.Negotiation.DefaultConsumer,
		)
	}
	return nil
}

// MustLoad is Load, panicking on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
