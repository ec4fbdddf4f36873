package domain

import "fmt"

// ValidationError indicates malformed user input: an inverted date range,
// out-of-bounds fit parameters, or a trigger fired before its inputs exist.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// FetchError indicates a network or service failure while retrieving the raw
// precipitation series. It wraps the underlying transport error.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NoDataError indicates the source returned zero usable rows for the
// requested range, or that cleaning filtered out every row. It is distinct
// from FetchError: the service responded, there is simply nothing there.
type NoDataError struct {
	Reason string
}

func (e *NoDataError) Error() string {
	return "no data: " + e.Reason
}

// ModelFitError indicates the seasonal fit was underdetermined or numerically
// singular for the chosen spline complexity and record count.
type ModelFitError struct {
	Reason string
}

func (e *ModelFitError) Error() string {
	return "model fit: " + e.Reason
}
