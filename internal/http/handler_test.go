package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/rainfall-api/internal/domain"
	"go.ngs.io/rainfall-api/internal/observability"
	"go.ngs.io/rainfall-api/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSource serves a canned year of daily data or a canned error.
type stubSource struct {
	err error
}

func (s *stubSource) FetchDaily(ctx context.Context, coord domain.Coordinate, dates domain.DateRange) ([]domain.RawObservation, error) {
	if s.err != nil {
		return nil, s.err
	}
	var raw []domain.RawObservation
	for d := dates.Start; !d.After(dates.End); d = d.AddDate(0, 0, 1) {
		v := 2.5
		raw = append(raw, domain.RawObservation{Date: d, Lon: coord.Lon, Lat: coord.Lat, Value: &v})
	}
	return raw, nil
}

func newTestRouter(t *testing.T, src *stubSource) *gin.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewManager(src, logger, observability.NewMetricsForTesting(), domain.DefaultSmoothing)
	return SetupRouter(manager, nil)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestCreateSession_Defaults(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	w := doJSON(t, router, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
		Status    struct {
			State string `json:"state"`
		} `json:"status"`
		Parameters domain.FitParameters `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "idle", resp.Status.State)
	assert.Equal(t, domain.DefaultFitParameters(), resp.Parameters)
}

func TestUnknownSession(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	w := doJSON(t, router, http.MethodGet, "/v1/sessions/nope/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFullPipeline(t *testing.T) {
	router := newTestRouter(t, &stubSource{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/location",
		gin.H{"lon": 36.8, "lat": -1.3})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/range",
		gin.H{"start": "2021-01-01", "end": "2021-12-31"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/fetch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status usecase.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, usecase.StateReady, status.State)
	assert.Equal(t, "fetched 365 daily observations", status.Message)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/observations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var obsResp struct {
		Count        int                        `json:"count"`
		Observations []domain.ObservationRecord `json:"observations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &obsResp))
	assert.Equal(t, 365, obsResp.Count)
	assert.Equal(t, 1, obsResp.Observations[0].ID)

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profResp struct {
		Count   int                           `json:"count"`
		Profile []domain.PredictedObservation `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profResp))
	assert.Equal(t, 365, profResp.Count)
	require.NotNil(t, profResp.Profile[0].Predicted)
	assert.InDelta(t, 2.5, *profResp.Profile[0].Predicted, 0.1)
}

func TestFetchBeforeLocation(t *testing.T) {
	router := newTestRouter(t, &stubSource{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/fetch", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateBeforeFetch(t *testing.T) {
	router := newTestRouter(t, &stubSource{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/profile", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestObservationsBeforeFetch(t *testing.T) {
	router := newTestRouter(t, &stubSource{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/observations", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"no_data":true`)
}

func TestFetchUpstreamFailure(t *testing.T) {
	router := newTestRouter(t, &stubSource{err: &domain.FetchError{Err: io.ErrUnexpectedEOF}})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/location",
		gin.H{"lon": 36.8, "lat": -1.3})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/fetch", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"error"`)
}

func TestFetchNoCoverage(t *testing.T) {
	router := newTestRouter(t, &stubSource{err: &domain.NoDataError{Reason: "no coverage"}})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/location",
		gin.H{"lon": 36.8, "lat": -1.3})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/fetch", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/status", nil)
	assert.Contains(t, w.Body.String(), `"state":"no_data"`)
}

func TestPutLocation_Invalid(t *testing.T) {
	router := newTestRouter(t, &stubSource{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/location",
		gin.H{"lon": 200.0, "lat": 0.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/location",
		gin.H{"lon": 36.8})
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing lat must be rejected")
}

func TestPutDateRange_Invalid(t *testing.T) {
	router := newTestRouter(t, &stubSource{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/range",
		gin.H{"start": "01/06/2021", "end": "2021-12-31"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/range",
		gin.H{"start": "2021-12-31", "end": "2021-01-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutParameters(t *testing.T) {
	router := newTestRouter(t, &stubSource{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/parameters",
		gin.H{"spline_complexity": 12, "scaling_factor": 1.5})
	require.Equal(t, http.StatusOK, w.Code)

	var params domain.FitParameters
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &params))
	assert.Equal(t, 12, params.SplineComplexity)
	assert.Equal(t, 1.5, params.ScalingFactor)

	w = doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/parameters",
		gin.H{"spline_complexity": 51, "scaling_factor": 1.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/parameters",
		gin.H{"spline_complexity": 30, "scaling_factor": 0.4})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileTooManyKnots(t *testing.T) {
	router := newTestRouter(t, &stubSource{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/location",
		gin.H{"lon": 36.8, "lat": -1.3})
	require.Equal(t, http.StatusOK, w.Code)

	// Ten days of data cannot support the default 30-dimensional basis.
	w = doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/range",
		gin.H{"start": "2021-01-01", "end": "2021-01-10"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/fetch", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/profile", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestExportEndpoints(t *testing.T) {
	router := newTestRouter(t, &stubSource{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/export/observations.csv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "export without data is rejected")

	doJSON(t, router, http.MethodPut, "/v1/sessions/"+id+"/location", gin.H{"lon": 36.8, "lat": -1.3})
	doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/fetch", nil)
	doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/profile", nil)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/export/observations.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "rainfall_data_"+time.Now().Format("2006-01-02")+".csv")
	require.True(t, strings.HasPrefix(w.Body.String(), "id,lon,lat,date,rainfall\n"))

	w = doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/export/profile.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "rainfall_profile_")
	require.True(t, strings.HasPrefix(w.Body.String(), "date,rainfall,gam_profile_scaled\n"))
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
