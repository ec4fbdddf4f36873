// Package chirps queries a remote CHIRPS-style gridded precipitation service
// by point geometry and date range.
package chirps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.ngs.io/rainfall-api/internal/domain"
)

const dateLayout = "2006-01-02"

// Client fetches daily precipitation series over HTTP. It performs no
// automatic retries: a failed fetch surfaces to the caller, who must
// re-trigger explicitly.
type Client struct {
	baseURL    string
	dataset    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a precipitation service client.
func NewClient(baseURL, dataset string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		dataset: dataset,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Service response types.

type seriesResponse struct {
	Dataset string      `json:"dataset"`
	Series  []seriesRow `json:"series"`
}

type seriesRow struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// FetchDaily retrieves the raw daily series at a coordinate. The response is
// aligned onto the full calendar range: every day in range gets exactly one
// entry, with a nil value where the service reported nothing for that day.
// Negative readings are fill values in CHIRPS-style grids and are treated as
// missing.
func (c *Client) FetchDaily(ctx context.Context, coord domain.Coordinate, dates domain.DateRange) ([]domain.RawObservation, error) {
	params := url.Values{
		"lon":     {fmt.Sprintf("%.6f", coord.Lon)},
		"lat":     {fmt.Sprintf("%.6f", coord.Lat)},
		"start":   {dates.Start.Format(dateLayout)},
		"end":     {dates.End.Format(dateLayout)},
		"dataset": {c.dataset},
	}
	fullURL := c.baseURL + "/v1/point-series?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("point-series request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &domain.NoDataError{Reason: "service has no coverage for this location"}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.FetchError{Err: fmt.Errorf("service status %d: %s", resp.StatusCode, body)}
	}

	var payload seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("decode response: %w", err)}
	}

	byDate := make(map[string]*float64, len(payload.Series))
	usable := 0
	for _, row := range payload.Series {
		if row.Value == nil || *row.Value < 0 {
			continue
		}
		v := *row.Value
		byDate[row.Date] = &v
		usable++
	}

	if usable == 0 {
		return nil, &domain.NoDataError{Reason: "service returned zero usable rows for the range"}
	}

	out := make([]domain.RawObservation, 0, dates.Days())
	for d := dates.Start; !d.After(dates.End); d = d.AddDate(0, 0, 1) {
		out = append(out, domain.RawObservation{
			Date:  d,
			Lon:   coord.Lon,
			Lat:   coord.Lat,
			Value: byDate[d.Format(dateLayout)],
		})
	}

	c.logger.Debug("point series fetched",
		"dataset", payload.Dataset,
		"days", len(out),
		"usable", usable,
	)
	return out, nil
}
