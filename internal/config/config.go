// Package config loads and validates the application configuration from
// environment variables (DI_ prefix) and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Upload     UploadConfig     `yaml:"upload" envconfig:"UPLOAD"`
	Session    SessionConfig    `yaml:"session" envconfig:"SESSION"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Chart      ChartConfig      `yaml:"chart" envconfig:"CHART"`
	Export     ExportConfig     `yaml:"export" envconfig:"EXPORT"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains CORS and rate limiting configuration.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// UploadConfig bounds incoming CSV uploads. Limits are enforced
// server-side regardless of any client-side checks.
type UploadConfig struct {
	MaxSize           int64    `yaml:"max_size" envconfig:"MAX_SIZE" default:"52428800"`
	AllowedExtensions []string `yaml:"allowed_extensions" envconfig:"ALLOWED_EXTENSIONS" default:".csv"`
}

// SessionConfig controls session lifetime and the expiry sweep.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl" envconfig:"TTL" default:"60m"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SWEEP_INTERVAL" default:"5m"`
}

// ProcessingConfig contains data pipeline constants.
//
// MonthsToDaysFactor converts fractional month offsets to day offsets.
// The default of 30.44 (average days per month) is a business decision
// pending product confirmation; it is surfaced here rather than hidden
// in the aligner so it can be overridden per deployment.
type ProcessingConfig struct {
	MonthsToDaysFactor float64 `yaml:"months_to_days_factor" envconfig:"MONTHS_TO_DAYS_FACTOR" default:"30.44"`
}

// ChartConfig contains chart layout defaults.
type ChartConfig struct {
	DefaultWidth  int `yaml:"default_width" envconfig:"DEFAULT_WIDTH" default:"900"`
	DefaultHeight int `yaml:"default_height" envconfig:"DEFAULT_HEIGHT" default:"600"`
}

// ExportConfig bounds static image export dimensions and the headless
// render step.
type ExportConfig struct {
	DefaultImageWidth  int           `yaml:"default_image_width" envconfig:"DEFAULT_IMAGE_WIDTH" default:"1200"`
	DefaultImageHeight int           `yaml:"default_image_height" envconfig:"DEFAULT_IMAGE_HEIGHT" default:"800"`
	MinWidth           int           `yaml:"min_width" envconfig:"MIN_WIDTH" default:"400"`
	MaxWidth           int           `yaml:"max_width" envconfig:"MAX_WIDTH" default:"3000"`
	MinHeight          int           `yaml:"min_height" envconfig:"MIN_HEIGHT" default:"300"`
	MaxHeight          int           `yaml:"max_height" envconfig:"MAX_HEIGHT" default:"2000"`
	RenderTimeout      time.Duration `yaml:"render_timeout" envconfig:"RENDER_TIMEOUT" default:"30s"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("DI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Upload.MaxSize == 0 {
		envConfig.Upload.MaxSize = fileConfig.Upload.MaxSize
	}
	if envConfig.Session.TTL == 0 {
		envConfig.Session.TTL = fileConfig.Session.TTL
	}
	if envConfig.Processing.MonthsToDaysFactor == 0 {
		envConfig.Processing.MonthsToDaysFactor = fileConfig.Processing.MonthsToDaysFactor
	}

	return envConfig
}

// validate validates the configuration.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload max size must be positive")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.Processing.MonthsToDaysFactor <= 0 {
		return fmt.Errorf("months-to-days factor must be positive, got %v", c.Processing.MonthsToDaysFactor)
	}

	if c.Export.MinWidth <= 0 || c.Export.MaxWidth < c.Export.MinWidth {
		return fmt.Errorf("invalid export width bounds [%d, %d]", c.Export.MinWidth, c.Export.MaxWidth)
	}

	if c.Export.MinHeight <= 0 || c.Export.MaxHeight < c.Export.MinHeight {
		return fmt.Errorf("invalid export height bounds [%d, %d]", c.Export.MinHeight, c.Export.MaxHeight)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	return nil
}

// AllowsExtension reports whether the given filename extension is accepted
// for upload. Comparison is case-insensitive.
func (c *UploadConfig) AllowsExtension(ext string) bool {
	for _, allowed := range c.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// getConfigFilePath returns the path to the config file, if any.
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Upload: UploadConfig{
			MaxSize:           50 << 20,
			AllowedExtensions: []string{".csv"},
		},
		Session: SessionConfig{
			TTL:           60 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Processing: ProcessingConfig{
			MonthsToDaysFactor: 30.44,
		},
		Chart: ChartConfig{
			DefaultWidth:  900,
			DefaultHeight: 600,
		},
		Export: ExportConfig{
			DefaultImageWidth:  1200,
			DefaultImageHeight: 800,
			MinWidth:           400,
			MaxWidth:           3000,
			MinHeight:          300,
			MaxHeight:          2000,
			RenderTimeout:      30 * time.Second,
		},
	}
}
