// Package domain contains the rainfall data model and the seasonal profile
// fitting algorithm.
package domain

import (
	"fmt"
	"time"
)

// Coordinate is a point location in degrees. Exactly one coordinate is active
// per session at a time; it is immutable once selected.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Validate checks that the coordinate is within geographic bounds.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{Reason: "latitude must be between -90 and 90"}
	}
	if c.Lon < -180 || c.Lon > 180 {
		return &ValidationError{Reason: "longitude must be between -180 and 180"}
	}
	return nil
}

// DateRange is an inclusive calendar date interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DefaultDateRange returns the default query window, calendar year 2021.
func DefaultDateRange() DateRange {
	return DateRange{
		Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Validate checks the start <= end invariant.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return &ValidationError{Reason: "date range is not set"}
	}
	if r.Start.After(r.End) {
		return &ValidationError{Reason: "start date must not be after end date"}
	}
	return nil
}

// Days returns the number of calendar days in the inclusive range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// RawObservation is one calendar day of source data. Value is nil when the
// source has no usable reading for that day; gaps are represented, never
// omitted, so a raw series always has one entry per day in range.
type RawObservation struct {
	Date  time.Time
	Lon   float64
	Lat   float64
	Value *float64
}

// ObservationRecord is a cleaned daily rainfall record in canonical field
// order. Rainfall is always present and non-negative, and IDs within a set
// are exactly 1..n in ascending date order.
type ObservationRecord struct {
	ID       int       `json:"id"`
	Lon      float64   `json:"lon"`
	Lat      float64   `json:"lat"`
	Date     time.Time `json:"date"`
	Rainfall float64   `json:"rainfall"`
}

// NewObservationSet validates a candidate record set against the canonical
// invariants: IDs dense and 1-based in slice order, dates ascending, rainfall
// non-negative. Malformed input is rejected rather than silently repaired.
func NewObservationSet(records []ObservationRecord) ([]ObservationRecord, error) {
	if len(records) == 0 {
		return nil, &NoDataError{Reason: "observation set is empty"}
	}
	for i, rec := range records {
		if rec.ID != i+1 {
			return nil, &ValidationError{Reason: fmt.Sprintf("record %d has id %d, want %d", i, rec.ID, i+1)}
		}
		if rec.Rainfall < 0 {
			return nil, &ValidationError{Reason: fmt.Sprintf("record %d has negative rainfall %g", rec.ID, rec.Rainfall)}
		}
		if rec.Date.IsZero() {
			return nil, &ValidationError{Reason: fmt.Sprintf("record %d has no date", rec.ID)}
		}
		if i > 0 && rec.Date.Before(records[i-1].Date) {
			return nil, &ValidationError{Reason: fmt.Sprintf("record %d is out of date order", rec.ID)}
		}
	}
	return records, nil
}
