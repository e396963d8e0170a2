// Package config provides configuration management for the labor statistics dashboard.
// It loads configuration from several sources, validates it and exposes
// typed sections to the rest of the application.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. A YAML configuration file (config.yaml, or the file named by LABOR_CONFIG_FILE)
//	3. A .env file in the working directory, loaded with godotenv
//	4. Environment variables
//
// # Environment Variables
//
// All environment variables use the LABOR_ prefix followed by the section name:
//
//	LABOR_SERVER_PORT=8080
//	LABOR_PATHS_DATA_DIR=/srv/labor/data
//	LABOR_LOADER_WORKERS=4
//	LABOR_FORECAST_MIN_HISTORY=8
//	LABOR_LOGGING_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dataDir := cfg.GetDataDir()
package config
