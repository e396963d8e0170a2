package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Security      SecurityConfig      `yaml:"security" envconfig:"SECURITY"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Paths         PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	Loader        LoaderConfig        `yaml:"loader" envconfig:"LOADER"`
	Forecast      ForecastConfig      `yaml:"forecast" envconfig:"FORECAST"`
	Dashboard     DashboardConfig     `yaml:"dashboard" envconfig:"DASHBOARD"`
	WebSocket     WebSocketConfig     `yaml:"websocket" envconfig:"WEBSOCKET"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
	Credentials   CredentialsConfig   `yaml:"credentials" envconfig:"CREDENTIALS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	ReloadTimeout   time.Duration `yaml:"reload_timeout" envconfig:"RELOAD_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// LoaderConfig controls how data files are imported
type LoaderConfig struct {
	Workers   int  `yaml:"workers" envconfig:"WORKERS"`
	Recursive bool `yaml:"recursive" envconfig:"RECURSIVE"`
}

// ForecastConfig controls the forecasting module
type ForecastConfig struct {
	MinHistory     int     `yaml:"min_history" envconfig:"MIN_HISTORY"`
	DefaultHorizon int     `yaml:"default_horizon" envconfig:"DEFAULT_HORIZON"`
	MaxHorizon     int     `yaml:"max_horizon" envconfig:"MAX_HORIZON"`
	Confidence     float64 `yaml:"confidence" envconfig:"CONFIDENCE"`
}

// DashboardConfig controls chart building
type DashboardConfig struct {
	MinRegionsPerGroup int `yaml:"min_regions_per_group" envconfig:"MIN_REGIONS_PER_GROUP"`
	MaxRows            int `yaml:"max_rows" envconfig:"MAX_ROWS"`
	ChartWidth         int `yaml:"chart_width" envconfig:"CHART_WIDTH"`
	ChartHeight        int `yaml:"chart_height" envconfig:"CHART_HEIGHT"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
}

// ObservabilityConfig selects the OpenTelemetry exporters
type ObservabilityConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// CredentialsConfig holds API keys for publisher APIs.
// Data is loaded from manually downloaded files; the keys are accepted and
// reported but no component calls the publisher APIs.
type CredentialsConfig struct {
	BLSAPIKey       string `yaml:"bls_api_key" envconfig:"BLS_API_KEY"`
	ILOAPIKey       string `yaml:"ilo_api_key" envconfig:"ILO_API_KEY"`
	WorldBankAPIKey string `yaml:"world_bank_api_key" envconfig:"WORLD_BANK_API_KEY"`
}

// Configured lists the publishers for which a key is present
func (c CredentialsConfig) Configured() []string {
	var out []string
	if c.BLSAPIKey != "" {
		out = append(out, "bls")
	}
	if c.ILOAPIKey != "" {
		out = append(out, "ilo")
	}
	if c.WorldBankAPIKey != "" {
		out = append(out, "worldbank")
	}
	return out
}

// Load loads configuration from the config file, .env and the environment
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration using an explicit config file path.
// An empty path skips the file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// .env never overrides variables that are already set
	if FileExists(".env") {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	// Fields without a matching variable keep their default or file value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// GetDataDir returns the resolved data directory path
func (c *Config) GetDataDir() string {
	paths, err := c.ResolvePaths()
	if err != nil {
		return c.Paths.DataDir
	}
	return paths.DataDir
}

// Address returns the listen address of the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// validate validates the configuration and normalizes enumerations
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

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	if c.Paths.DataDir == "" {
		return fmt.Errorf("data directory must be specified")
	}

	if c.Loader.Workers < 1 || c.Loader.Workers > MaxLoaderWorkers {
		return fmt.Errorf("loader workers must be between 1 and %d, got %d", MaxLoaderWorkers, c.Loader.Workers)
	}

	if c.Forecast.MinHistory < 3 {
		return fmt.Errorf("forecast min history must be at least 3, got %d", c.Forecast.MinHistory)
	}

	if c.Forecast.MaxHorizon < 1 {
		return fmt.Errorf("forecast max horizon must be positive")
	}

	if c.Forecast.DefaultHorizon < 1 || c.Forecast.DefaultHorizon > c.Forecast.MaxHorizon {
		return fmt.Errorf("forecast default horizon must be between 1 and %d", c.Forecast.MaxHorizon)
	}

	if c.Forecast.Confidence <= 0 || c.Forecast.Confidence >= 1 {
		return fmt.Errorf("forecast confidence must be in (0, 1), got %v", c.Forecast.Confidence)
	}

	if c.Dashboard.MinRegionsPerGroup < 1 {
		return fmt.Errorf("dashboard min regions per group must be positive")
	}

	// Logs are always structured JSON
	c.Logging.Format = "json"

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
		c.Logging.Output = strings.ToLower(c.Logging.Output)
	default:
		return fmt.Errorf("invalid logging output %q", c.Logging.Output)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			MaxHeaderBytes:  DefaultMaxHeaderBytes,
			ShutdownTimeout: DefaultShutdownTimeout,
			ReloadTimeout:   DefaultReloadTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "console",
			FilePath:    DefaultLogFile,
			Development: false,
		},
		Paths: PathsConfig{
			DataDir: DefaultDataDir,
			LogsDir: DefaultLogsDir,
		},
		Loader: LoaderConfig{
			Workers:   DefaultLoaderWorkers,
			Recursive: true,
		},
		Forecast: ForecastConfig{
			MinHistory:     DefaultMinHistory,
			DefaultHorizon: DefaultForecastPeriod,
			MaxHorizon:     DefaultMaxHorizon,
			Confidence:     DefaultConfidence,
		},
		Dashboard: DashboardConfig{
			MinRegionsPerGroup: DefaultMinRegionsPerGroup,
			MaxRows:            DefaultMaxRows,
			ChartWidth:         800,
			ChartHeight:        400,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Observability: ObservabilityConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
