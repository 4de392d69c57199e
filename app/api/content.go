package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (h *Handler) GenerateContent(c *gin.Context) {
	var req GenerateContentRequest
	if !bindJSON(c, &req) {
		return
	}
	req.CampaignID = strings.TrimSpace(req.CampaignID)
	if err := uuidParam(req.CampaignID, "campaign_id"); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.Generator.Generate(c.Request.Context(), currentUser(c), req.CampaignID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// QueryContent lists a campaign's generated items with filters and
// pagination.
func (h *Handler) QueryContent(c *gin.Context) {
	query, page, err := parseItemQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.owned.Campaign(c.Request.Context(), currentUser(c), query.CampaignID); err != nil {
		respondError(c, err)
		return
	}

	items, total, err := h.Repos.Items.QueryItems(c.Request.Context(), query)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.KindInternal, "Failed to query content", err))
		return
	}
	if items == nil {
		items = []database.AiItem{}
	}

	c.JSON(http.StatusOK, ContentPage{Items: items, Total: total, Page: page, PageSize: query.Limit})
}

func (h *Handler) GetContent(c *gin.Context) {
	item, ok := h.ownedItem(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) PublishContent(c *gin.Context) {
	item, ok := h.ownedItem(c)
	if !ok {
		return
	}

	var req PublishRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Published == nil {
		respondError(c, apperr.Validation("published is required"))
		return
	}

	updated, err := h.Repos.Items.SetPublished(c.Request.Context(), item.ID, *req.Published)
	if err != nil {
		respondError(c, err)
		return
	}
	if updated == nil {
		respondError(c, apperr.NotFound("Content not found"))
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteContent(c *gin.Context) {
	item, ok := h.ownedItem(c)
	if !ok {
		return
	}

	if _, err := h.Repos.Items.DeleteItem(c.Request.Context(), item.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": item.ID})
}

func (h *Handler) GenerateImage(c *gin.Context) {
	id, ok := pathID(c, "Content")
	if !ok {
		return
	}

	var req ImageRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.Images.Generate(c.Request.Context(), currentUser(c), id, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ownedItem(c *gin.Context) (*database.AiItem, bool) {
	id, ok := pathID(c, "Content")
	if !ok {
		return nil, false
	}

	item, _, err := h.owned.Item(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return item, true
}

func parseItemQuery(c *gin.Context) (database.ItemQuery, int, error) {
	query := database.ItemQuery{
		CampaignID: strings.TrimSpace(c.Query("campaign_id")),
		Status:     c.DefaultQuery("status", database.StatusAll),
		Sort:       c.DefaultQuery("sort", database.SortNewest),
	}

	if err := uuidParam(query.CampaignID, "campaign_id"); err != nil {
		return query, 0, err
	}
	if !lo.Contains([]string{database.StatusAll, database.StatusPublished, database.StatusDraft}, query.Status) {
		return query, 0, apperr.Validation("status must be one of all, published, draft")
	}
	if !lo.Contains([]string{database.SortNewest, database.SortOldest, database.SortScore}, query.Sort) {
		return query, 0, apperr.Validation("sort must be one of newest, oldest, score")
	}

	page, err := intParam(c, "page", 1, 1, 1<<20)
	if err != nil {
		return query, 0, err
	}
	pageSize, err := intParam(c, "page_size", defaultPageSize, 1, maxPageSize)
	if err != nil {
		return query, 0, err
	}
	query.Limit = pageSize
	query.Offset = (page - 1) * pageSize

	if query.MinScore, err = optionalScore(c, "min_score"); err != nil {
		return query, 0, err
	}
	if query.MaxScore, err = optionalScore(c, "max_score"); err != nil {
		return query, 0, err
	}
	if query.MinScore != nil && query.MaxScore != nil && *query.MinScore > *query.MaxScore {
		return query, 0, apperr.Validation("min_score cannot exceed max_score")
	}

	if query.From, err = optionalTime(c, "from", false); err != nil {
		return query, 0, err
	}
	if query.To, err = optionalTime(c, "to", true); err != nil {
		return query, 0, err
	}

	return query, page, nil
}

func intParam(c *gin.Context, name string, fallback, minValue, maxValue int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < minValue || value > maxValue {
		return 0, apperr.Newf(apperr.KindValidation, "%s must be an integer between %d and %d", name, minValue, maxValue)
	}
	return value, nil
}

func optionalScore(c *gin.Context, name string) (*int, error) {
	if c.Query(name) == "" {
		return nil, nil
	}
	value, err := intParam(c, name, 0, 0, 100)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// optionalTime accepts RFC 3339 timestamps or plain dates. A plain date used
// as an upper bound covers the whole day.
func optionalTime(c *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperr.Newf(apperr.KindValidation, "%s must be an RFC 3339 timestamp or a YYYY-MM-DD date", name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
