// Package source defines the daily precipitation source abstraction.
package source

import (
	"context"

	"go.ngs.io/rainfall-api/internal/domain"
)

// Source retrieves a point-location daily precipitation series.
//
// Implementations return one RawObservation per calendar day in the inclusive
// range, ascending by date, with gaps represented as nil values rather than
// omitted entries. They fail with domain.FetchError on transport or service
// failure, and with domain.NoDataError when the source has zero usable rows
// for the range. Implementations never retry automatically.
type Source interface {
	FetchDaily(ctx context.Context, coord domain.Coordinate, dates domain.DateRange) ([]domain.RawObservation, error)
}
