package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetLandingPage(c *gin.Context) {
	id, ok := pathID(c, "Content")
	if !ok {
		return
	}

	page, err := h.LandingPages.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"landing_page": page, "url": h.landingURL(page.Slug)})
}

func (h *Handler) GenerateLandingPage(c *gin.Context) {
	id, ok := pathID(c, "Content")
	if !ok {
		return
	}

	result, err := h.LandingPages.Generate(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) DeleteLandingPage(c *gin.Context) {
	id, ok := pathID(c, "Content")
	if !ok {
		return
	}

	if err := h.LandingPages.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "item_id": id})
}

func (h *Handler) landingURL(slug string) string {
	return h.baseURL + "/public/landing/" + slug
}
