package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lysyi3m/adcomb/app/apperr"
)

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"version":   h.version,
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feeds, err := h.Repos.Feeds.ListFeeds(c.Request.Context()); err == nil {
		health["feeds"] = len(feeds)
	} else {
		health["status"] = "degraded"
		health["database_error"] = err.Error()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetMe(c *gin.Context) {
	profile, err := h.Repos.Profiles.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if profile == nil {
		respondError(c, apperr.NotFound("User profile not found"))
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.Repos.Feeds.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": nonNil(categories)})
}

// pathID returns a UUID path parameter. Anything else cannot name a row and
// is reported as not found.
func pathID(c *gin.Context, what string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, apperr.NotFound(what+" not found"))
		return "", false
	}
	return id, true
}

// uuidParam validates an id taken from a body or query string.
func uuidParam(value, name string) error {
	if value == "" {
		return apperr.Validation(name + " is required")
	}
	if _, err := uuid.Parse(value); err != nil {
		return apperr.Validation(name + " must be a valid UUID")
	}
	return nil
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "Invalid request body", err))
		return false
	}
	return true
}
