package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/adcomb/app/apperr"
)

// RunScheduledUpdate is called by an external cron with the scheduler key.
func (h *Handler) RunScheduledUpdate(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if err := uuidParam(userID, "user_id"); err != nil {
		respondError(c, err)
		return
	}

	force := false
	if raw := c.Query("force_update"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, apperr.Validation("force_update must be a boolean"))
			return
		}
		force = parsed
	}

	summary, err := h.Updater.Run(c.Request.Context(), userID, force)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
