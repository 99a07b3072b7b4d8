// Package api provides the HTTP handlers for itinerary jobs.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

// JobService defines the job operations needed by the handler.
type JobService interface {
	Submit(ctx context.Context, destination string, durationDays int) (string, error)
	GetJob(ctx context.Context, jobID string) (*entity.Job, error)
}

// SubmitRequest is the POST body. DurationDays is decoded loosely so that
// fractional or non-numeric values are reported as input errors.
type SubmitRequest struct {
	Destination  string `json:"destination" binding:"required"`
	DurationDays any    `json:"durationDays" binding:"required"`
}

// SubmitResponse is returned with 202 Accepted
type SubmitResponse struct {
	JobID string `json:"jobId"`
}

// JobHandler handles itinerary job HTTP requests.
type JobHandler struct {
	svc           JobService
	exposeDetails bool
	logger        logger.Logger
}

// NewJobHandler creates a new job handler. With exposeDetails, 500 responses carry
// the underlying error text.
func NewJobHandler(svc JobService, exposeDetails bool, logger logger.Logger) *JobHandler {
	return &JobHandler{svc: svc, exposeDetails: exposeDetails, logger: logger}
}

// Register mounts the job routes on r
func (h *JobHandler) Register(r gin.IRoutes) {
	r.POST("/", h.Submit)
	r.GET("/", h.GetJob)
	r.POST("/jobs", h.Submit)
	r.GET("/jobs/:jobId", h.GetJob)
}

// Submit handles POST /.
func (h *JobHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + bindErr.Error()})
		return
	}

	days, ok := entity.AsInt(req.DurationDays)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": (&entity.ClientInputError{
			Field:  entity.FieldDurationDays,
			Reason: "must be an integer",
		}).Error()})
		return
	}

	jobID, err := h.svc.Submit(c.Request.Context(), req.Destination, days)
	if err != nil {
		h.respondError(c, err, "Failed to start itinerary generation")
		return
	}

	c.JSON(http.StatusAccepted, SubmitResponse{JobID: jobID})
}

// GetJob handles GET /?jobId= and GET /jobs/:jobId.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		jobID = c.Query("jobId")
	}
	if strings.TrimSpace(jobID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "jobId is required"})
		return
	}

	job, err := h.svc.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err, "Failed to get job status")
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) respondError(c *gin.Context, err error, message string) {
	var inputErr *entity.ClientInputError
	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Error()})
	case errors.Is(err, entity.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
	default:
		_ = c.Error(err)
		body := gin.H{"error": message}
		if h.exposeDetails {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}
