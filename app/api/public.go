package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/content"
	"github.com/lysyi3m/adcomb/app/database"
)

func (h *Handler) GetPublicLandingPage(c *gin.Context) {
	page, err := h.LandingPages.View(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetCampaignFeed serves a campaign's published items as RSS 2.0.
func (h *Handler) GetCampaignFeed(c *gin.Context) {
	id, ok := pathID(c, "Campaign")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	campaign, err := h.Repos.Campaigns.GetCampaign(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if campaign == nil {
		respondError(c, apperr.NotFound("Campaign not found"))
		return
	}

	items, _, err := h.Repos.Items.QueryItems(ctx, database.ItemQuery{
		CampaignID: id,
		Status:     database.StatusPublished,
		Sort:       database.SortNewest,
		Limit:      content.FeedItemLimit,
	})
	if err != nil {
		respondError(c, apperr.Wrap(apperr.KindInternal, "Failed to load published content", err))
		return
	}

	rss, err := content.CampaignFeed(campaign, items, h.baseURL).ToRss()
	if err != nil {
		respondError(c, apperr.Wrap(apperr.KindInternal, "Failed to render feed", err))
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
