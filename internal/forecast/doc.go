// Package forecast projects labor series forward with prediction intervals.
//
// The model is Holt's linear exponential smoothing. Alpha and beta are chosen
// by a grid search over (0, 1) that minimizes the one-step-ahead squared
// error, and interval half-widths are z * sigma * sqrt(v(h)) where sigma is
// the RMSE of the one-step errors and v(h) is the Holt variance factor.
//
// Usage:
//
//	f := forecast.New(cfg.Forecast, logger, metrics)
//	result, err := f.Forecast(ctx, store.Series(filter), 5)
//	if errors.Is(err, apperrors.ErrInsufficientHistory) {
//		// too few points
//	}
//
// A Forecaster is stateless and safe for concurrent use.
package forecast
