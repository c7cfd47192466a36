package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "affiliate-registration/internal/common/errors"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/models"
	"affiliate-registration/internal/pipeline"
	relaysheet "affiliate-registration/internal/workers/registration/relay-sheet"

	"github.com/gin-gonic/gin"
)

const (
	msgRegistered       = "Affiliate registration successful"
	msgMethodNotAllowed = "Method not allowed"
	msgNotFound         = "Not found"
	msgInternalError    = "Internal server error"
	msgRunning          = "Affiliate API is running"
)

// Registrar is the registration pipeline as seen by the HTTP layer.
type Registrar interface {
	Register(ctx context.Context, raw interface{}) (*pipeline.Result, error)
	Count(ctx context.Context) (int64, error)
	PendingDeliveries(ctx context.Context) (int64, error)
	Mode() string
}

type Prober interface {
	Probe(ctx context.Context) (*relaysheet.ProbeReport, error)
}

// Info describes the running service for the status endpoints.
type Info struct {
	Service          string
	Version          string
	Environment      string
	Storage          string
	SheetsConfigured bool
	EmailConfigured  bool
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	registrar    Registrar
	prober       Prober
	errors       *apperrors.ErrorHandler
	logger       logger.Logger
	info         Info
	maxBodyBytes int64
	started      time.Time
	now          func() time.Time
}

func NewHandlers(registrar Registrar, prober Prober, info Info, maxBodyBytes int64, log logger.Logger) *Handlers {
	log = log.WithFields(map[string]interface{}{"component": "api"})
	return &Handlers{
		registrar:    registrar,
		prober:       prober,
		errors:       apperrors.NewErrorHandler(log),
		logger:       log,
		info:         info,
		maxBodyBytes: maxBodyBytes,
		started:      time.Now(),
		now:          time.Now,
	}
}

// RegisterAffiliate accepts a registration form. A body that cannot be read
// or decoded is handed on as nil and rejected by validation.
func (h *Handlers) RegisterAffiliate(c *gin.Context) {
	var raw interface{}

	reader := c.Request.Body
	if h.maxBodyBytes > 0 {
		reader = http.MaxBytesReader(c.Writer, reader, h.maxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		h.logger.Warn("unreadable request body", map[string]interface{}{
			"error":     err,
			"requestId": c.GetString("requestId"),
		})
	} else if err := json.Unmarshal(body, &raw); err != nil {
		raw = nil
	}

	result, err := h.registrar.Register(c.Request.Context(), raw)
	if err != nil {
		h.errors.HandleRequestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   msgRegistered,
		"affiliate": result.Record.Summary(),
	})
}

func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"environment": h.info.Environment,
		"timestamp":   models.FormatTimestamp(h.now()),
	})
}

func (h *Handlers) Status(c *gin.Context) {
	body := gin.H{
		"status":           "operational",
		"service":          h.info.Service,
		"version":          h.info.Version,
		"environment":      h.info.Environment,
		"uptime":           h.now().Sub(h.started).Round(time.Second).String(),
		"pipelineMode":     h.registrar.Mode(),
		"storage":          h.info.Storage,
		"sheetsConfigured": h.info.SheetsConfigured,
		"emailConfigured":  h.info.EmailConfigured,
		"timestamp":        models.FormatTimestamp(h.now()),
	}

	count, err := h.registrar.Count(c.Request.Context())
	if err != nil {
		h.logger.Warn("affiliate count unavailable", map[string]interface{}{"error": err})
		body["affiliates"] = nil
	} else {
		body["affiliates"] = count
	}

	pending, err := h.registrar.PendingDeliveries(c.Request.Context())
	if err != nil {
		h.logger.Warn("delivery queue depth unavailable", map[string]interface{}{"error": err})
		body["pendingDeliveries"] = nil
	} else {
		body["pendingDeliveries"] = pending
	}

	c.JSON(http.StatusOK, body)
}

func (h *Handlers) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": msgRunning,
		"endpoints": gin.H{
			"health":     "/api/health",
			"status":     "/api/status",
			"affiliates": "/api/affiliates",
		},
		"timestamp": models.FormatTimestamp(h.now()),
	})
}

// TestSheets posts a test entry to the spreadsheet webhook and reports the
// answer.
func (h *Handlers) TestSheets(c *gin.Context) {
	report, err := h.prober.Probe(c.Request.Context())
	if err != nil {
		if !errors.Is(err, relaysheet.ErrWebhookNotConfigured) {
			h.logger.Error("sheet probe failed", map[string]interface{}{"error": err})
		}
		c.JSON(http.StatusInternalServerError, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"message": msgMethodNotAllowed})
}

func (h *Handlers) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": msgNotFound})
}
