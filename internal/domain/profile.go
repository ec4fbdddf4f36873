package domain

import (
	"fmt"
	"time"
)

// Fit parameter bounds and defaults.
const (
	MinSplineComplexity = 5
	MaxSplineComplexity = 50
	MinScalingFactor    = 0.5
	MaxScalingFactor    = 2.0

	DefaultSplineComplexity = 30
	DefaultScalingFactor    = 1.0

	// DefaultSmoothing is the fixed smoothness-penalty constant. Keeping it
	// fixed makes refits deterministic and fit flexibility monotonic in the
	// spline complexity.
	DefaultSmoothing = 1.0
)

// FitParameters controls the seasonal profile fit. SplineComplexity bounds
// the basis dimension of the smoother; ScalingFactor multiplies the fitted
// curve before the non-negativity clamp.
type FitParameters struct {
	SplineComplexity int     `json:"spline_complexity"`
	ScalingFactor    float64 `json:"scaling_factor"`
}

// DefaultFitParameters returns k=30, scaling factor 1.0.
func DefaultFitParameters() FitParameters {
	return FitParameters{
		SplineComplexity: DefaultSplineComplexity,
		ScalingFactor:    DefaultScalingFactor,
	}
}

// Validate checks both parameters against their domains.
func (p FitParameters) Validate() error {
	if p.SplineComplexity < MinSplineComplexity || p.SplineComplexity > MaxSplineComplexity {
		return &ValidationError{Reason: fmt.Sprintf("spline complexity %d outside [%d, %d]",
			p.SplineComplexity, MinSplineComplexity, MaxSplineComplexity)}
	}
	if p.ScalingFactor < MinScalingFactor || p.ScalingFactor > MaxScalingFactor {
		return &ValidationError{Reason: fmt.Sprintf("scaling factor %g outside [%g, %g]",
			p.ScalingFactor, MinScalingFactor, MaxScalingFactor)}
	}
	return nil
}

// PredictedObservation pairs an observed daily rainfall with the scaled
// seasonal profile value at that date. Predicted is nil for leap-day records,
// which are excluded from the fitting input but kept in the series.
type PredictedObservation struct {
	Date      time.Time `json:"date"`
	Rainfall  float64   `json:"rainfall"`
	Predicted *float64  `json:"gam_profile_scaled"`
}

// FitProfile fits the cyclic seasonal smoother to an observation set and
// predicts in-sample at each record's own day-of-year. Output cardinality and
// date ordering match the input exactly; the series is never resorted by
// seasonal index. Each prediction is multiplied by the scaling factor and
// then clamped to a floor of zero, in that order.
//
// On ModelFitError the caller's previously cached predictions must be kept;
// this function never returns a partial series alongside an error.
func FitProfile(records []ObservationRecord, params FitParameters, smoothing float64) ([]PredictedObservation, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NoDataError{Reason: "no cached observations to fit"}
	}

	// Leap-day rows (day 366) are dropped from the fitting input only; they
	// stay in the output with a nil prediction.
	days := make([]float64, 0, len(records))
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if IsLeapDay(rec.Date) {
			continue
		}
		days = append(days, float64(DayOfYear(rec.Date)))
		values = append(values, rec.Rainfall)
	}

	if len(days) < params.SplineComplexity {
		return nil, &ModelFitError{Reason: fmt.Sprintf("%d fitting records is insufficient for spline complexity %d",
			len(days), params.SplineComplexity)}
	}

	spline, err := FitCyclicSpline(days, values, params.SplineComplexity, smoothing)
	if err != nil {
		return nil, err
	}

	out := make([]PredictedObservation, len(records))
	for i, rec := range records {
		p := PredictedObservation{
			Date:     rec.Date,
			Rainfall: rec.Rainfall,
		}
		if !IsLeapDay(rec.Date) {
			v := spline.Predict(float64(DayOfYear(rec.Date))) * params.ScalingFactor
			if v < 0 {
				v = 0
			}
			p.Predicted = &v
		}
		out[i] = p
	}
	return out, nil
}
