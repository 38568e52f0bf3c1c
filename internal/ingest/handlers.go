package ingest

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xscout-labs/xscout/internal/logging"
	"github.com/xscout-labs/xscout/internal/telemetry"
)

// SampleEventEmitter broadcasts accepted samples to realtime subscribers.
type SampleEventEmitter interface {
	EmitSample(sample *telemetry.Sample)
}

// Handler provides the telemetry HTTP endpoints.
//
// The wire contract matches what the agents and the dashboard already speak:
// POST /telemetry answers {"status":"saved"}, the read endpoints wrap their
// payload as {"status":"success","data":...}.
type Handler struct {
	service      *Service
	events       SampleEventEmitter
	historyLimit int
}

// NewHandler creates a telemetry handler. historyLimit caps the samples
// returned per history query.
func NewHandler(service *Service, historyLimit int) *Handler {
	return &Handler{service: service, historyLimit: historyLimit}
}

// WithEvents adds an event emitter for the websocket feed.
func (h *Handler) WithEvents(events SampleEventEmitter) *Handler {
	h.events = events
	return h
}

// RegisterRoutes sets up the telemetry routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/telemetry", h.SubmitSample)
	r.GET("/api/telemetry", h.GetLatest)
	r.GET("/api/history/:user", h.GetHistory)
	r.GET("/api/export", h.ExportCSV)
}

// SubmitSample handles POST /telemetry.
func (h *Handler) SubmitSample(c *gin.Context) {
	var sample telemetry.Sample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body",
		})
		return
	}

	ctx := logging.WithUserID(c.Request.Context(), sample.User)
	if err := h.service.Submit(ctx, &sample); err != nil {
		switch {
		case errors.Is(err, ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "Student ID is not authorized",
			})
		case errors.Is(err, telemetry.ErrNoUser),
			errors.Is(err, telemetry.ErrNoTimestamp),
			errors.Is(err, telemetry.ErrRiskOutOfRange),
			errors.Is(err, telemetry.ErrNegativeCounter),
			errors.Is(err, telemetry.ErrBadFlowState),
			errors.Is(err, telemetry.ErrDuplicateApp),
			errors.Is(err, telemetry.ErrTooManyTabs):
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
		default:
			logging.L(ctx).Error("sample ingestion failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to store sample",
			})
		}
		return
	}

	if h.events != nil {
		h.events.EmitSample(&sample)
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// GetLatest handles GET /api/telemetry. Returns every user's newest sample.
func (h *Handler) GetLatest(c *gin.Context) {
	samples, err := h.service.Latest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to load telemetry",
		})
		return
	}
	if samples == nil {
		samples = []*telemetry.Sample{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": samples})
}

// GetHistory handles GET /api/history/:user. Returns the user's series
// oldest first, capped at the configured history limit.
func (h *Handler) GetHistory(c *gin.Context) {
	user := c.Param("user")

	limit := h.historyLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}

	samples, err := h.service.History(c.Request.Context(), user, limit)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			c.JSON(http.StatusOK, gin.H{"status": "success", "data": []*telemetry.Sample{}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to load history",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": samples})
}

// ExportCSV handles GET /api/export. One row per user with their newest
// sample's behavioral counters.
func (h *Handler) ExportCSV(c *gin.Context) {
	samples, err := h.service.Latest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to load telemetry",
		})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="telemetry.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"user", "timestamp", "wpm", "keystrokes", "backspaces", "paste_count", "fatigue", "flow_state", "ai_risk"})
	for _, s := range samples {
		_ = w.Write([]string{
			s.User,
			s.Timestamp.Format(time.RFC3339),
			strconv.Itoa(s.Behavior.WPM),
			strconv.Itoa(s.Behavior.Keystrokes),
			strconv.Itoa(s.Behavior.Backspaces),
			strconv.Itoa(s.Behavior.PasteCount),
			strconv.Itoa(s.Behavior.Fatigue),
			string(s.Behavior.FlowState),
			strconv.FormatFloat(s.AI, 'f', -1, 64),
		})
	}
	w.Flush()
}
