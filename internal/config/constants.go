package config

import "time"

// Application constants
const (
	AppName   = "Labor Statistics Dashboard"
	AppBinary = "labordash"

	// EnvPrefix namespaces every environment variable
	EnvPrefix = "LABOR"

	// ConfigFileEnv names an explicit configuration file
	ConfigFileEnv = "LABOR_CONFIG_FILE"

	// File Paths (relative to the base directory)
	DefaultDataDir = "data"
	DefaultLogsDir = "logs"
	DefaultLogFile = "logs/labordash.log"

	// Loader
	DefaultLoaderWorkers = 4
	MaxLoaderWorkers     = 64

	// Forecasting
	DefaultMinHistory     = 8
	DefaultForecastPeriod = 5
	DefaultMaxHorizon     = 24
	DefaultConfidence     = 0.95

	// Dashboard
	DefaultMinRegionsPerGroup = 3
	DefaultMaxRows            = 50000

	// Server
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultReloadTimeout   = 2 * time.Minute
	DefaultRateLimitRPS    = 100
	DefaultRateLimitBurst  = 50
	DefaultMaxHeaderBytes  = 1 << 20
)

// SupportedExtensions lists the data file extensions the loader understands
var SupportedExtensions = []string{".csv", ".xlsx", ".xlsm"}
