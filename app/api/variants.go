package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/adcomb/app/content"
)

func (h *Handler) ListVariants(c *gin.Context) {
	id, ok := pathID(c, "Content")
	if !ok {
		return
	}

	variants, err := h.Variants.List(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

func (h *Handler) GenerateVariants(c *gin.Context) {
	id, ok := pathID(c, "Content")
	if !ok {
		return
	}

	var req VariantRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.Variants.Generate(c.Request.Context(), currentUser(c), id, req.options())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) PatchVariant(c *gin.Context) {
	id, ok := pathID(c, "Variant")
	if !ok {
		return
	}

	var patch content.VariantPatch
	if !bindJSON(c, &patch) {
		return
	}

	variant, err := h.Variants.Patch(c.Request.Context(), currentUser(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, variant)
}

func (h *Handler) DeleteVariant(c *gin.Context) {
	id, ok := pathID(c, "Variant")
	if !ok {
		return
	}

	variant, err := h.Variants.Delete(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": variant.ID, "item_id": variant.ItemID})
}
