package handlers

import (
	"net/http"

	"github.com/jvorel/stockpilot/internal/scheduler"
	"github.com/jvorel/stockpilot/pkg/logger"
)

// JobsHandler exposes scheduler statistics.
type JobsHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(sched *scheduler.Scheduler, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		scheduler: sched,
		logger:    log,
	}
}

// Stats returns run statistics for all registered jobs.
// GET /api/jobs
func (h *JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.scheduler.GetJobStats(),
	})
}
