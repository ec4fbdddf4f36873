// Package usecase orchestrates the rainfall retrieval-and-modeling pipeline:
// session state, the two explicit-trigger cache slots, and CSV export.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.ngs.io/rainfall-api/internal/adapter/source"
	"go.ngs.io/rainfall-api/internal/domain"
	"go.ngs.io/rainfall-api/internal/observability"
)

// State is the coarse pipeline state reported alongside the status message.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateReady    State = "ready"
	StateNoData   State = "no_data"
	StateError    State = "error"
)

// Status is the user-facing pipeline status.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message"`
}

// Session is the explicit request context threaded through fetch and fit:
// the active coordinate, date range, and fit parameters, plus the two cached
// artifacts. Recomputation happens only on explicit triggers - changing a
// parameter or re-selecting a coordinate never recomputes anything, so
// reading stale predictions after a parameter change is correct behavior.
type Session struct {
	id        string
	src       source.Source
	logger    *slog.Logger
	metrics   *observability.Metrics
	smoothing float64

	mu     sync.Mutex
	coord  *domain.Coordinate
	dates  domain.DateRange
	params domain.FitParameters

	// Cache slots. Each is replaced wholesale by its own trigger and only
	// by it; failures leave the previous contents untouched.
	observations []domain.ObservationRecord
	predictions  []domain.PredictedObservation

	status Status

	// Latest-trigger-wins fetch bookkeeping: a new fetch trigger cancels
	// the in-flight predecessor, and a superseded result is discarded when
	// it eventually resolves.
	fetchCancel context.CancelFunc
	fetchGen    uint64
}

func newSession(id string, src source.Source, logger *slog.Logger, metrics *observability.Metrics, smoothing float64) *Session {
	return &Session{
		id:        id,
		src:       src,
		logger:    logger.With("session", id),
		metrics:   metrics,
		smoothing: smoothing,
		dates:     domain.DefaultDateRange(),
		params:    domain.DefaultFitParameters(),
		status:    Status{State: StateIdle, Message: "select a location and fetch data"},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetCoordinate replaces the active coordinate. No recomputation occurs
// until the next fetch trigger.
func (s *Session) SetCoordinate(c domain.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord = &c
	return nil
}

// SetDateRange replaces the query window. No recomputation occurs until the
// next fetch trigger.
func (s *Session) SetDateRange(r domain.DateRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dates = r
	return nil
}

// SetFitParameters replaces the fit parameters. The cached predictions are
// deliberately not invalidated; only the next generate trigger reads the new
// values.
func (s *Session) SetFitParameters(p domain.FitParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	return nil
}

// Coordinate returns the active coordinate, or false if none is selected.
func (s *Session) Coordinate() (domain.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coord == nil {
		return domain.Coordinate{}, false
	}
	return *s.coord, true
}

// FitParameters returns the current fit parameters.
func (s *Session) FitParameters() domain.FitParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Status returns the current pipeline status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Observations returns the cached observation set, or NoDataError when no
// fetch has succeeded yet.
func (s *Session) Observations() ([]domain.ObservationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observations == nil {
		return nil, &domain.NoDataError{Reason: "no observations fetched"}
	}
	out := make([]domain.ObservationRecord, len(s.observations))
	copy(out, s.observations)
	return out, nil
}

// Predictions returns the cached predicted profile, or NoDataError when no
// generate trigger has succeeded yet.
func (s *Session) Predictions() ([]domain.PredictedObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.predictions == nil {
		return nil, &domain.NoDataError{Reason: "no profile generated"}
	}
	out := make([]domain.PredictedObservation, len(s.predictions))
	copy(out, s.predictions)
	return out, nil
}

// TriggerFetch retrieves and cleans the raw series for the active coordinate
// and date range, replacing the observation slot wholesale on success. The
// prediction slot is never touched by a fetch. If a previous fetch is still
// in flight it is cancelled and its late result discarded.
func (s *Session) TriggerFetch(ctx context.Context) error {
	s.mu.Lock()
	if s.coord == nil {
		s.mu.Unlock()
		return &domain.ValidationError{Reason: "no coordinate selected"}
	}
	if err := s.dates.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.fetchCancel != nil {
		s.fetchCancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	s.fetchCancel = cancel
	s.fetchGen++
	gen := s.fetchGen
	coord := *s.coord
	dates := s.dates
	s.status = Status{State: StateFetching, Message: "fetching rainfall data"}
	s.mu.Unlock()

	start := time.Now()
	raw, err := s.src.FetchDaily(fctx, coord, dates)
	var records []domain.ObservationRecord
	if err == nil {
		records, err = domain.Clean(raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.fetchGen {
		// A newer trigger superseded this one; keep only its output.
		s.metrics.FetchRequests.WithLabelValues("superseded").Inc()
		s.logger.Info("fetch superseded", "gen", gen)
		return nil
	}
	s.fetchCancel = nil
	s.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var nde *domain.NoDataError
		if errors.As(err, &nde) {
			s.metrics.FetchRequests.WithLabelValues("no_data").Inc()
			s.status = Status{State: StateNoData, Message: err.Error()}
		} else {
			s.metrics.FetchRequests.WithLabelValues("error").Inc()
			s.status = Status{State: StateError, Message: err.Error()}
		}
		s.logger.Warn("fetch failed", "error", err)
		return err
	}

	s.observations = records
	s.metrics.FetchRequests.WithLabelValues("success").Inc()
	s.metrics.CleanedRecords.Observe(float64(len(records)))
	s.status = Status{State: StateReady, Message: statusMessage(len(records))}
	s.logger.Info("observations cached", "records", len(records), "duration", time.Since(start))
	return nil
}

// TriggerGenerate fits the seasonal profile from whatever observation set is
// cached at this moment, using the fit parameters current at trigger time,
// and replaces the prediction slot wholesale on success. A failed fit leaves
// the previously cached predictions untouched.
func (s *Session) TriggerGenerate() error {
	s.mu.Lock()
	if s.observations == nil {
		s.mu.Unlock()
		return &domain.ValidationError{Reason: "no cached observations; fetch data first"}
	}
	records := s.observations
	params := s.params
	s.mu.Unlock()

	start := time.Now()
	predictions, err := domain.FitProfile(records, params, s.smoothing)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.ModelFitSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ModelFits.WithLabelValues("error").Inc()
		s.status = Status{State: StateError, Message: err.Error()}
		s.logger.Warn("profile fit failed", "error", err, "k", params.SplineComplexity)
		return err
	}

	s.predictions = predictions
	s.metrics.ModelFits.WithLabelValues("success").Inc()
	s.status = Status{State: StateReady, Message: "seasonal profile generated"}
	s.logger.Info("profile cached",
		"records", len(predictions),
		"k", params.SplineComplexity,
		"scaling_factor", params.ScalingFactor,
		"duration", time.Since(start),
	)
	return nil
}

func statusMessage(n int) string {
	if n == 1 {
		return "fetched 1 daily observation"
	}
	return fmt.Sprintf("fetched %d daily observations", n)
}
