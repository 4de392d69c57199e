package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

func (h *Handler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.Repos.Campaigns.ListCampaigns(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if campaigns == nil {
		campaigns = []database.Campaign{}
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns, "total": len(campaigns)})
}

func (h *Handler) GetCampaign(c *gin.Context) {
	campaign, ok := h.ownedCampaign(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) CreateCampaign(c *gin.Context) {
	var req CampaignRequest
	if !bindJSON(c, &req) {
		return
	}

	campaign := &database.Campaign{UserID: currentUser(c)}
	if err := req.apply(campaign); err != nil {
		respondError(c, err)
		return
	}

	if err := h.Repos.Campaigns.CreateCampaign(c.Request.Context(), campaign); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

func (h *Handler) UpdateCampaign(c *gin.Context) {
	campaign, ok := h.ownedCampaign(c)
	if !ok {
		return
	}

	var req CampaignRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := req.apply(campaign); err != nil {
		respondError(c, err)
		return
	}

	if err := h.Repos.Campaigns.UpdateCampaign(c.Request.Context(), campaign); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) DeleteCampaign(c *gin.Context) {
	campaign, ok := h.ownedCampaign(c)
	if !ok {
		return
	}

	if _, err := h.Repos.Campaigns.DeleteCampaign(c.Request.Context(), campaign.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": campaign.ID})
}

// GetCampaignFeeds lists the catalog feeds matching the campaign filters.
func (h *Handler) GetCampaignFeeds(c *gin.Context) {
	campaign, ok := h.ownedCampaign(c)
	if !ok {
		return
	}

	feeds, err := h.Aggregator.FilteredFeedsFor(c.Request.Context(), campaign)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"feeds": feeds, "total": len(feeds)})
}

// GetCampaignNews returns the merged recent RSS items without generating
// anything.
func (h *Handler) GetCampaignNews(c *gin.Context) {
	campaign, ok := h.ownedCampaign(c)
	if !ok {
		return
	}

	result, err := h.Aggregator.LatestFor(c.Request.Context(), campaign)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) SuggestCampaign(c *gin.Context) {
	var req SuggestionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.URL == "" {
		respondError(c, apperr.Validation("url is required"))
		return
	}

	result, err := h.Suggester.Suggest(c.Request.Context(), currentUser(c), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ownedCampaign(c *gin.Context) (*database.Campaign, bool) {
	id, ok := pathID(c, "Campaign")
	if !ok {
		return nil, false
	}

	campaign, err := h.owned.Campaign(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return campaign, true
}
