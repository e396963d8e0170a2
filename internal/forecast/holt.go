package forecast

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Smoothing parameters are searched on a 0.05 grid inside (0, 1)
const (
	gridStep = 0.05
	gridMax  = 0.95
)

// holtFit is a fitted Holt linear model
type holtFit struct {
	alpha, beta  float64
	level, trend float64
	residuals    []float64
	sse          float64
}

// fitHolt runs double exponential smoothing over y with fixed parameters.
// Level starts at y[0] and trend at y[1]-y[0]; residuals are the one-step-ahead
// errors from the second point onward.
func fitHolt(y []float64, alpha, beta float64) holtFit {
	level := y[0]
	trend := y[1] - y[0]
	residuals := make([]float64, 0, len(y)-1)

	for _, obs := range y[1:] {
		predicted := level + trend
		residuals = append(residuals, obs-predicted)

		prevLevel := level
		level = alpha*obs + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}

	return holtFit{
		alpha:     alpha,
		beta:      beta,
		level:     level,
		trend:     trend,
		residuals: residuals,
		sse:       floats.Dot(residuals, residuals),
	}
}

// bestHolt grid-searches alpha and beta minimizing the one-step-ahead SSE.
// Ties keep the smallest parameters.
func bestHolt(y []float64) holtFit {
	var best holtFit
	found := false
	for a := 1; ; a++ {
		alpha := round2(float64(a) * gridStep)
		if alpha > gridMax {
			break
		}
		for b := 1; ; b++ {
			beta := round2(float64(b) * gridStep)
			if beta > gridMax {
				break
			}
			fit := fitHolt(y, alpha, beta)
			if !found || fit.sse < best.sse {
				best = fit
				found = true
			}
		}
	}
	return best
}

// predict returns the h-step-ahead point forecast
func (f holtFit) predict(h int) float64 {
	return f.level + float64(h)*f.trend
}

// varianceFactor is the h-step forecast variance in units of sigma squared:
// 1 + sum_{j=1}^{h-1} alpha^2 (1 + j beta)^2
func (f holtFit) varianceFactor(h int) float64 {
	v := 1.0
	for j := 1; j < h; j++ {
		c := f.alpha * (1 + float64(j)*f.beta)
		v += c * c
	}
	return v
}

// sigma is the root mean squared one-step-ahead error
func (f holtFit) sigma() float64 {
	if len(f.residuals) == 0 {
		return 0
	}
	return math.Sqrt(f.sse / float64(len(f.residuals)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
