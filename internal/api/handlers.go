package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/instance"
)

// Handlers aggregates all HTTP handlers
type Handlers struct {
	registry  *instance.Registry
	logger    *zap.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(registry *instance.Registry, logger *zap.Logger) *Handlers {
	return &Handlers{
		registry:  registry,
		logger:    logger.Named("handlers"),
		startTime: time.Now(),
	}
}

// Health handles the /health endpoint
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "WhatsApp API server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// respondError renders the uniform error envelope with the status code
// implied by the error class.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, instance.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, instance.ErrInvalidArgument),
		errors.Is(err, instance.ErrConflict),
		errors.Is(err, instance.ErrNotReady),
		errors.Is(err, instance.ErrNotAGroup),
		errors.Is(err, instance.ErrNoQRCode):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// controllerFor resolves the instance named in the request body or path and
// renders the error envelope itself when resolution fails.
func (h *Handlers) controllerFor(c *gin.Context, instanceID string) (*instance.Controller, bool) {
	ctrl, err := h.registry.Get(domain.InstanceID(instanceID))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return ctrl, true
}

// CreateInstanceRequest is the body of POST /instance/create
type CreateInstanceRequest struct {
	InstanceID string `json:"instanceId"`
}

// CreateInstance registers a new session instance and starts its
// initialization in the background.
func (h *Handlers) CreateInstance(c *gin.Context) {
	var req CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "instanceId is required"})
		return
	}

	ctrl, err := h.registry.Create(c.Request.Context(), domain.InstanceID(req.InstanceID))
	if err != nil {
		h.logger.Error("Failed to create instance", zap.String("instance_id", req.InstanceID), zap.Error(err))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"instanceId": ctrl.ID().String(),
		"message":    "Instance created, poll status until ready",
	})
}

// InstanceStatus reports readiness and QR availability for one instance.
func (h *Handlers) InstanceStatus(c *gin.Context) {
	ctrl, ok := h.controllerFor(c, c.Param("id"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ctrl.Status(),
	})
}

// InstanceQR returns the pending QR code string for an instance.
func (h *Handlers) InstanceQR(c *gin.Context) {
	ctrl, ok := h.controllerFor(c, c.Param("id"))
	if !ok {
		return
	}

	code, err := ctrl.QRCode()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"qrCode":  code,
	})
}

// DeleteInstance disconnects an instance and purges its credentials.
func (h *Handlers) DeleteInstance(c *gin.Context) {
	id := c.Param("id")
	if err := h.registry.Remove(c.Request.Context(), domain.InstanceID(id)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Instance " + id + " deleted",
	})
}

// ListInstances returns the persisted records of all known instances.
func (h *Handlers) ListInstances(c *gin.Context) {
	records, err := h.registry.Records(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list instances", zap.Error(err))
		h.respondError(c, err)
		return
	}
	if records == nil {
		records = []*domain.InstanceRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
	})
}

// SendMessageRequest is the body of POST /message/send
type SendMessageRequest struct {
	InstanceID string `json:"instanceId"`
	To         string `json:"to"`
	Message    string `json:"message"`
}

// SendMessage sends a text message through a ready instance.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctrl, ok := h.controllerFor(c, req.InstanceID)
	if !ok {
		return
	}

	result, err := ctrl.SendMessage(c.Request.Context(), req.To, req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"messageId": result.MessageID,
		"timestamp": result.Timestamp.UTC().Format(time.RFC3339),
		"to":        result.To,
	})
}
