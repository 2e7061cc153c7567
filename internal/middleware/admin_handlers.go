package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/scheduler"
)

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// RunJob runs a background job immediately and waits for it.
func (h *Handler) RunJob(c *gin.Context) {
	name := c.Param("name")
	err := h.jobs.RunNow(c.Request.Context(), name)
	if errors.Is(err, scheduler.ErrUnknownJob) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "jobs": h.jobs.Jobs()})
		return
	}
	if err != nil {
		h.logFor(c).Error().Err(err).Str("job", name).Msg("job failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job completed", "job": name})
}
