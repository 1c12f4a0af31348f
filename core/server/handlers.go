package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/richd0tcom/powrmet/internal/domain"
	"github.com/richd0tcom/powrmet/internal/engine"
	"github.com/richd0tcom/powrmet/internal/metrics"
)

// handleIngest stores one sample.
// @Summary Submit a LoRa power sample
// @Description Validates the sample, stamps it with the server time and stores it.
// @Tags lora
// @Accept json
// @Produce json
// @Param data body domain.IngestRequest true "Sample reported by the device"
// @Success 200 {object} map[string]interface{} "message: Data stored successfully, key: insertion key, data: stored sample"
// @Failure 400 {object} map[string]string "error: Invalid data format. Missing one or more required fields."
// @Failure 500 {object} map[string]string "error: Failed to store data"
// @Router /lora [post]
func (s *Server) handleIngest(c *gin.Context) {
	start := time.Now()
	defer func() { s.obs.ObserveLatency("ingest", time.Since(start).Seconds()) }()

	var req domain.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.obs.IncRejected(metrics.SourceHTTP)
		c.JSON(http.StatusBadRequest, gin.H{"error": engine.InvalidPayloadMessage})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	sample, key, err := s.svc.Ingest(ctx, req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			s.obs.IncRejected(metrics.SourceHTTP)
		}
		s.writeError(c, "ingest", err, "Failed to store data",
			"deviceId", req.DeviceID.Text())
		return
	}

	s.obs.IncIngested(metrics.SourceHTTP, 1)
	c.JSON(http.StatusOK, gin.H{
		"message": "Data stored successfully",
		"key":     key,
		"data":    sample,
	})
}

// handleLatest returns the most recently inserted sample of any device.
// @Summary Get the latest sample
// @Tags lora
// @Produce json
// @Success 200 {object} domain.Sample
// @Failure 404 {object} map[string]string "error: No data found"
// @Failure 500 {object} map[string]string "error: Failed to retrieve data"
// @Router /lora/latest [get]
func (s *Server) handleLatest(c *gin.Context) {
	start := time.Now()
	defer func() { s.obs.ObserveLatency("latest", time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	sample, err := s.svc.Latest(ctx)
	if err != nil {
		s.writeError(c, "latest", err, "Failed to retrieve data")
		return
	}
	c.JSON(http.StatusOK, sample)
}

// handleHistory lists a device's samples inside the window.
// @Summary Get device history
// @Tags lora
// @Produce json
// @Param deviceId query string true "Device ID"
// @Param hours query number false "Window length in hours" default(24)
// @Success 200 {array} domain.Sample
// @Failure 400 {object} map[string]string "error: deviceId is required"
// @Failure 500 {object} map[string]string "error: Failed to retrieve data"
// @Router /lora/history [get]
func (s *Server) handleHistory(c *gin.Context) {
	start := time.Now()
	defer func() { s.obs.ObserveLatency("history", time.Since(start).Seconds()) }()

	deviceID := c.Query("deviceId")
	hours, err := engine.ParseHours(c.Query("hours"))
	if err != nil {
		s.writeError(c, "history", err, "Failed to retrieve data", "deviceId", deviceID)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	samples, err := s.svc.History(ctx, deviceID, hours)
	if err != nil {
		s.writeError(c, "history", err, "Failed to retrieve data",
			"deviceId", deviceID, "hours", hours)
		return
	}
	c.JSON(http.StatusOK, samples)
}

// handleSummary aggregates a device's samples inside the window.
// @Summary Get device summary
// @Description Energy consumed plus min/max/avg of voltage, current and power.
// @Tags lora
// @Produce json
// @Param deviceId query string true "Device ID"
// @Param hours query number false "Window length in hours" default(24)
// @Success 200 {object} domain.Summary
// @Failure 400 {object} map[string]string "error: deviceId is required"
// @Failure 500 {object} map[string]string "error: Failed to retrieve data"
// @Router /lora/summary [get]
func (s *Server) handleSummary(c *gin.Context) {
	start := time.Now()
	defer func() { s.obs.ObserveLatency("summary", time.Since(start).Seconds()) }()

	deviceID := c.Query("deviceId")
	hours, err := engine.ParseHours(c.Query("hours"))
	if err != nil {
		s.writeError(c, "summary", err, "Failed to retrieve data", "deviceId", deviceID)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	summary, err := s.svc.Summary(ctx, deviceID, hours)
	if err != nil {
		s.writeError(c, "summary", err, "Failed to retrieve data",
			"deviceId", deviceID, "hours", hours)
		return
	}

	s.obs.SetSummaryDataPoints(summary.DataPoints)
	c.JSON(http.StatusOK, summary)
}

// writeError maps the engine error taxonomy onto HTTP statuses. internal is
// the message sent for anything that is not the client's fault.
func (s *Server) writeError(c *gin.Context, op string, err error, internal string, attrs ...any) {
	var (
		verr *domain.ValidationError
		nerr *domain.NotFoundError
		serr *domain.StoreError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
	case errors.As(err, &nerr):
		c.JSON(http.StatusNotFound, gin.H{"error": "No data found"})
	default:
		if errors.As(err, &serr) {
			s.obs.IncStoreError(serr.Op)
		}
		args := append([]any{"op", op, "request_id", c.GetString(requestIDKey), "error", err}, attrs...)
		slog.Error("request failed", args...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": internal})
	}
}
