// Package api contains the HTTP API contracts of the labor statistics dashboard.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"labordash/pkg/contracts/domain"
)

// FilterRequest is the dashboard state as sent in query parameters.
// Multi-valued fields accept repeated parameters or comma-separated lists.
// Source tags are lowercased before validation.
type FilterRequest struct {
	Regions      []string `query:"region"`
	RegionGroups []string `query:"group"`
	AgeBands     []string `query:"age"`
	Genders      []string `query:"gender"`
	Educations   []string `query:"education"`
	Metrics      []string `query:"metric"`
	Sources      []string `query:"source" validate:"omitempty,dive,oneof=bls ilo ilostat wb worldbank world_bank world-bank wdi"`
	From         int      `query:"from" validate:"omitempty,min=1900,max=2100"`
	To           int      `query:"to" validate:"omitempty,min=1900,max=2100,gtefield=From"`
}

// ForecastRequest asks for a forecast of the series selected by the filter
type ForecastRequest struct {
	FilterRequest
	Horizon int `query:"horizon" validate:"min=1"`
}

// ObservationsResponse is the response of the observations endpoint
type ObservationsResponse struct {
	Data   []domain.Observation `json:"data"`
	Count  int                  `json:"count"`
	Filter domain.Filter        `json:"filter"`
}

// SummaryResponse is the response of the summary endpoint
type SummaryResponse struct {
	Summaries []domain.RegionSummary   `json:"summaries"`
	Regional  []domain.RegionalAverage `json:"regional"`
}

// ForecastResponse bundles the history, the forecast and its chart
type ForecastResponse struct {
	History  []domain.SeriesPoint  `json:"history"`
	Forecast domain.ForecastResult `json:"forecast"`
	Chart    domain.ChartSpec      `json:"chart"`
}

// FileReport describes the outcome of loading one file
type FileReport struct {
	Path           string   `json:"path"`
	Source         string   `json:"source"`
	Rows           int      `json:"rows"`
	Skipped        int      `json:"skipped"`
	DroppedColumns []string `json:"dropped_columns,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// ReloadResponse is the response of the reload endpoint
type ReloadResponse struct {
	Observations int          `json:"observations"`
	Files        []FileReport `json:"files"`
	LoadedAt     time.Time    `json:"loaded_at"`
	Duration     string       `json:"duration"`
}
