package api

import (
	"errors"
	"net/http"

	"github.com/fieldserve/jobrunner/common"
	"github.com/fieldserve/jobrunner/internal/dto"
	"github.com/fieldserve/jobrunner/internal/jobs"
	"github.com/fieldserve/jobrunner/internal/queue"
	"github.com/fieldserve/jobrunner/middleware"
	"github.com/gin-gonic/gin"
)

// JobHandler is the HTTP write path the rest of the application uses to
// submit background work.
type JobHandler struct {
	queue queue.Queue
}

func NewJobHandler(q queue.Queue) *JobHandler {
	return &JobHandler{queue: q}
}

// Enqueue handles POST /jobs. It validates and binds the request body,
// hands the payload to the queue, and returns 202 - the job runs later,
// out of band.
func (h *JobHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueueJobDTO

	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	payload := jobs.JobPayload{
		OrgID: req.OrgID,
		Type:  req.Type,
		Data:  req.Data,
	}

	if err := h.queue.Enqueue(c.Request.Context(), payload); err != nil {
		if errors.Is(err, queue.ErrMissingOrgID) {
			c.Error(common.Errf(http.StatusBadRequest, "orgId is required"))
		} else {
			c.Error(common.Errf(http.StatusInternalServerError, "failed to enqueue job"))
		}
		c.Abort()
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"jobId": jobs.JobID(payload),
	})
}

// Routes mounts the job endpoints on the router group.
func (h *JobHandler) Routes(r gin.IRoutes) {
	r.POST("/jobs", h.Enqueue)
}
