package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.Repos.Feeds.ListFeeds(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if feeds == nil {
		feeds = []database.RssFeed{}
	}

	c.JSON(http.StatusOK, gin.H{"feeds": feeds, "total": len(feeds)})
}

func (h *Handler) GetFeed(c *gin.Context) {
	f, ok := h.feedByID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, f)
}

func (h *Handler) CreateFeed(c *gin.Context) {
	var req FeedRequest
	if !bindJSON(c, &req) {
		return
	}

	f := &database.RssFeed{}
	if err := req.apply(f); err != nil {
		respondError(c, err)
		return
	}

	if err := h.Repos.Feeds.CreateFeed(c.Request.Context(), f); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

func (h *Handler) UpdateFeed(c *gin.Context) {
	f, ok := h.feedByID(c)
	if !ok {
		return
	}

	var req FeedRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := req.apply(f); err != nil {
		respondError(c, err)
		return
	}

	if err := h.Repos.Feeds.UpdateFeed(c.Request.Context(), f); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, f)
}

func (h *Handler) DeleteFeed(c *gin.Context) {
	id, ok := pathID(c, "Feed")
	if !ok {
		return
	}

	deleted, err := h.Repos.Feeds.DeleteFeed(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		respondError(c, apperr.NotFound("Feed not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (h *Handler) feedByID(c *gin.Context) (*database.RssFeed, bool) {
	id, ok := pathID(c, "Feed")
	if !ok {
		return nil, false
	}

	f, err := h.Repos.Feeds.GetFeed(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if f == nil {
		respondError(c, apperr.NotFound("Feed not found"))
		return nil, false
	}
	return f, true
}
