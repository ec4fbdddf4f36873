package usecase

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"go.ngs.io/rainfall-api/internal/domain"
)

const dateLayout = "2006-01-02"

// ExportObservations renders the cached observation set as CSV with columns
// id, lon, lat, date, rainfall and a dated filename. Export is rejected with
// NoDataError rather than producing an empty file.
func (s *Session) ExportObservations() ([]byte, string, error) {
	records, err := s.Observations()
	if err != nil {
		s.metrics.ExportRequests.WithLabelValues("observations", "no_data").Inc()
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "lon", "lat", "date", "rainfall"}); err != nil {
		return nil, "", fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.ID),
			formatFloat(rec.Lon),
			formatFloat(rec.Lat),
			rec.Date.Format(dateLayout),
			formatFloat(rec.Rainfall),
		}
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("write record %d: %w", rec.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	s.metrics.ExportRequests.WithLabelValues("observations", "success").Inc()
	filename := fmt.Sprintf("rainfall_data_%s.csv", domain.Now().Format(dateLayout))
	return buf.Bytes(), filename, nil
}

// ExportProfile renders the cached predicted profile as CSV with columns
// date, rainfall, gam_profile_scaled. Leap-day rows, which carry no
// prediction, get an empty profile cell.
func (s *Session) ExportProfile() ([]byte, string, error) {
	predictions, err := s.Predictions()
	if err != nil {
		s.metrics.ExportRequests.WithLabelValues("profile", "no_data").Inc()
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "rainfall", "gam_profile_scaled"}); err != nil {
		return nil, "", fmt.Errorf("write header: %w", err)
	}
	for _, p := range predictions {
		predicted := ""
		if p.Predicted != nil {
			predicted = formatFloat(*p.Predicted)
		}
		row := []string{p.Date.Format(dateLayout), formatFloat(p.Rainfall), predicted}
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("write row for %s: %w", p.Date.Format(dateLayout), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	s.metrics.ExportRequests.WithLabelValues("profile", "success").Inc()
	filename := fmt.Sprintf("rainfall_profile_%s.csv", domain.Now().Format(dateLayout))
	return buf.Bytes(), filename, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
