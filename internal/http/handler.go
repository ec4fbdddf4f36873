// Package http exposes the rainfall pipeline over a session-scoped REST API.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/rainfall-api/internal/domain"
	"go.ngs.io/rainfall-api/internal/usecase"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for the rainfall pipeline.
type Handler struct {
	manager *usecase.Manager
}

// NewHandler creates a new HTTP handler.
func NewHandler(manager *usecase.Manager) *Handler {
	return &Handler{manager: manager}
}

// CreateSession handles POST /v1/sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	s := h.manager.Create()
	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID(),
		"status":     s.Status(),
		"parameters": s.FitParameters(),
	})
}

// GetStatus handles GET /v1/sessions/:id/status.
func (h *Handler) GetStatus(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

type locationRequest struct {
	Lon *float64 `json:"lon" binding:"required"`
	Lat *float64 `json:"lat" binding:"required"`
}

// PutLocation handles PUT /v1/sessions/:id/location.
func (h *Handler) PutLocation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}
	if err := s.SetCoordinate(domain.Coordinate{Lon: *req.Lon, Lat: *req.Lat}); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lon": *req.Lon, "lat": *req.Lat})
}

type rangeRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// PutDateRange handles PUT /v1/sessions/:id/range.
func (h *Handler) PutDateRange(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req rangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}
	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start date (expected YYYY-MM-DD): %v", err)})
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end date (expected YYYY-MM-DD): %v", err)})
		return
	}
	if err := s.SetDateRange(domain.DateRange{Start: start, End: end}); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"start": req.Start, "end": req.End})
}

type parametersRequest struct {
	SplineComplexity *int     `json:"spline_complexity" binding:"required"`
	ScalingFactor    *float64 `json:"scaling_factor" binding:"required"`
}

// PutParameters handles PUT /v1/sessions/:id/parameters. Changing parameters
// never recomputes the cached profile; the next generate trigger reads them.
func (h *Handler) PutParameters(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req parametersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}
	params := domain.FitParameters{
		SplineComplexity: *req.SplineComplexity,
		ScalingFactor:    *req.ScalingFactor,
	}
	if err := s.SetFitParameters(params); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, params)
}

// TriggerFetch handles POST /v1/sessions/:id/fetch.
func (h *Handler) TriggerFetch(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.TriggerFetch(c.Request.Context()); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

// TriggerGenerate handles POST /v1/sessions/:id/profile.
func (h *Handler) TriggerGenerate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.TriggerGenerate(); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

// GetObservations handles GET /v1/sessions/:id/observations.
func (h *Handler) GetObservations(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	records, err := s.Observations()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"observations": records, "count": len(records)})
}

// GetProfile handles GET /v1/sessions/:id/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	predictions, err := s.Predictions()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": predictions, "count": len(predictions)})
}

// ExportObservations handles GET /v1/sessions/:id/export/observations.csv.
func (h *Handler) ExportObservations(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	data, filename, err := s.ExportObservations()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportProfile handles GET /v1/sessions/:id/export/profile.csv.
func (h *Handler) ExportProfile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	data, filename, err := s.ExportProfile()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) session(c *gin.Context) (*usecase.Session, bool) {
	id := c.Param("id")
	s, ok := h.manager.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown session %s", id)})
		return nil, false
	}
	return s, true
}

// renderError maps the domain error taxonomy onto HTTP status codes.
func (h *Handler) renderError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		noDataErr     *domain.NoDataError
		fetchErr      *domain.FetchError
		fitErr        *domain.ModelFitError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &noDataErr):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "no_data": true})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &fitErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
