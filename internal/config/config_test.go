package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "data", cfg.Paths.DataDir)
				assert.Equal(t, 4, cfg.Loader.Workers)
				assert.Equal(t, 8, cfg.Forecast.MinHistory)
				assert.Equal(t, 0.95, cfg.Forecast.Confidence)
				assert.Equal(t, 3, cfg.Dashboard.MinRegionsPerGroup)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
			},
		},
		{
			name: "environment overrides defaults",
			env: map[string]string{
				"LABOR_SERVER_PORT":              "9191",
				"LABOR_LOADER_WORKERS":           "2",
				"LABOR_FORECAST_MIN_HISTORY":     "10",
				"LABOR_SECURITY_ALLOWED_ORIGINS": "http://a.test,http://b.test",
				"LABOR_SERVER_READ_TIMEOUT":      "5s",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9191, cfg.Server.Port)
				assert.Equal(t, 2, cfg.Loader.Workers)
				assert.Equal(t, 10, cfg.Forecast.MinHistory)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "file overlays defaults",
			file: `
server:
  port: 7000
paths:
  data_dir: /srv/labor
forecast:
  max_horizon: 12
  default_horizon: 6
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7000, cfg.Server.Port)
				assert.Equal(t, "/srv/labor", cfg.Paths.DataDir)
				assert.Equal(t, 12, cfg.Forecast.MaxHorizon)
				assert.Equal(t, 6, cfg.Forecast.DefaultHorizon)
				assert.Equal(t, 8, cfg.Forecast.MinHistory, "unset keys keep defaults")
			},
		},
		{
			name: "environment wins over file",
			env:  map[string]string{"LABOR_SERVER_PORT": "9000"},
			file: "server:\n  port: 7000\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"LABOR_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "too few workers",
			env:     map[string]string{"LABOR_LOADER_WORKERS": "0"},
			wantErr: "loader workers",
		},
		{
			name:    "confidence out of range",
			env:     map[string]string{"LABOR_FORECAST_CONFIDENCE": "1.5"},
			wantErr: "confidence",
		},
		{
			name:    "default horizon above max",
			file:    "forecast:\n  default_horizon: 30\n",
			wantErr: "default horizon",
		},
		{
			name:    "unknown logging output",
			env:     map[string]string{"LABOR_LOGGING_OUTPUT": "syslog"},
			wantErr: "invalid logging output",
		},
		{
			name:    "malformed file",
			file:    "server: [",
			wantErr: "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFrom_FileOutputGetsDefaultPath(t *testing.T) {
	path := writeConfigFile(t, "logging:\n  output: BOTH\n  file_path: \"\"\n")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.DataDir = "datasets"
	cfg.Paths.LogsDir = filepath.Join(base, "abs-logs")

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "datasets"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "abs-logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(base, DefaultLogFile), paths.LogFile)
	assert.Equal(t, filepath.Join(base, "datasets"), cfg.GetDataDir())

	require.NoError(t, paths.EnsureDirectories())
	assert.True(t, FileExists(paths.LogsDir))
	assert.False(t, FileExists(paths.DataDir), "data directory is never created")
}

func TestCredentialsConfigured(t *testing.T) {
	assert.Empty(t, CredentialsConfig{}.Configured())
	assert.Equal(t, []string{"bls", "worldbank"},
		CredentialsConfig{BLSAPIKey: "k1", WorldBankAPIKey: "k2"}.Configured())
}

func TestAddress(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "127.0.0.1"
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
}
