package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"labordash/internal/config"
	apperrors "labordash/internal/errors"
	"labordash/internal/infrastructure"
	"labordash/pkg/contracts/domain"
)

// MethodHolt names Holt's linear exponential smoothing in results
const MethodHolt = "holt_linear"

// sigmaFloorRatio keeps intervals open on perfectly fitted series
const sigmaFloorRatio = 0.01

// Forecaster projects a time series forward with confidence intervals.
// It keeps no model state between calls.
type Forecaster struct {
	minHistory int
	maxHorizon int
	confidence float64
	logger     *slog.Logger
	metrics    *infrastructure.BusinessMetrics
}

// New creates a forecaster. Zero config values fall back to the defaults; metrics may be nil.
func New(cfg config.ForecastConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Forecaster {
	if cfg.MinHistory < 3 {
		cfg.MinHistory = config.DefaultMinHistory
	}
	if cfg.MaxHorizon < 1 {
		cfg.MaxHorizon = config.DefaultMaxHorizon
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		cfg.Confidence = config.DefaultConfidence
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{
		minHistory: cfg.MinHistory,
		maxHorizon: cfg.MaxHorizon,
		confidence: cfg.Confidence,
		logger:     logger.With(slog.String("component", "forecaster")),
		metrics:    metrics,
	}
}

// MinHistory returns the number of points required to forecast
func (f *Forecaster) MinHistory() int {
	return f.minHistory
}

// MaxHorizon returns the largest accepted horizon
func (f *Forecaster) MaxHorizon() int {
	return f.maxHorizon
}

// Forecast fits Holt's linear model to series and predicts horizon future
// periods. series must be ordered by period with a single frequency. It
// fails with INSUFFICIENT_HISTORY when series is shorter than the configured
// minimum and with VALIDATION for a horizon outside 1..MaxHorizon.
func (f *Forecaster) Forecast(ctx context.Context, series []domain.SeriesPoint, horizon int) (result *domain.ForecastResult, err error) {
	start := time.Now()
	ctx, span := infrastructure.StartSpan(ctx, "forecast.Forecast",
		attribute.Int("history", len(series)),
		attribute.Int("horizon", horizon))
	defer func() {
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
		infrastructure.RecordForecast(ctx, f.metrics, horizon, time.Since(start), err)
		span.End()
	}()

	if horizon < 1 || horizon > f.maxHorizon {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("horizon must be between 1 and %d, got %d", f.maxHorizon, horizon)).
			WithContext("horizon", horizon)
	}
	if len(series) < f.minHistory {
		return nil, apperrors.NewInsufficientHistoryError(len(series), f.minHistory)
	}
	if err := checkOrdered(series); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	y := make([]float64, len(series))
	for i, p := range series {
		y[i] = p.Value
	}

	fit := bestHolt(y)
	sigma := math.Max(fit.sigma(), sigmaFloor(y))
	z := distuv.UnitNormal.Quantile(1 - (1-f.confidence)/2)

	last := series[len(series)-1].Period
	points := make([]domain.ForecastPoint, horizon)
	for h := 1; h <= horizon; h++ {
		value := fit.predict(h)
		half := z * sigma * math.Sqrt(fit.varianceFactor(h))
		points[h-1] = domain.ForecastPoint{
			Period: last.Next(h),
			Value:  value,
			Lower:  value - half,
			Upper:  value + half,
		}
	}

	f.logger.DebugContext(ctx, "Forecast computed",
		slog.Int("history", len(series)),
		slog.Int("horizon", horizon),
		slog.Float64("alpha", fit.alpha),
		slog.Float64("beta", fit.beta),
		slog.Float64("sigma", sigma))

	return &domain.ForecastResult{
		Method:     MethodHolt,
		Confidence: f.confidence,
		Horizon:    horizon,
		History:    len(series),
		Alpha:      fit.alpha,
		Beta:       fit.beta,
		Sigma:      sigma,
		Points:     points,
	}, nil
}

// sigmaFloor scales with the series so bounds never collapse onto the point forecast
func sigmaFloor(y []float64) float64 {
	scale := math.Max(math.Abs(stat.Mean(y, nil)), stat.StdDev(y, nil))
	if scale == 0 {
		scale = 1
	}
	return sigmaFloorRatio * scale
}

func checkOrdered(series []domain.SeriesPoint) error {
	freq := series[0].Period.Frequency
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1].Period, series[i].Period
		if cur.Frequency != freq {
			return apperrors.NewAppValidationError(
				fmt.Sprintf("series mixes %s and %s periods", freq, cur.Frequency))
		}
		if !prev.Before(cur) {
			return apperrors.NewAppValidationError(
				fmt.Sprintf("series is not strictly ordered: %s follows %s", cur, prev))
		}
	}
	for _, p := range series {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return apperrors.NewAppValidationError(fmt.Sprintf("series holds a non-finite value at %s", p.Period))
		}
	}
	return nil
}
