package api

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/adcomb/app/apperr"
)

type errorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details string      `json:"details,omitempty"`
	Kind    apperr.Kind `json:"kind"`
}

// respondError is the only place that writes an error envelope.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	body := errorResponse{Success: false, Kind: kind}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
		body.Details = appErr.Details
		if body.Details == "" && appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}
	} else {
		body.Error = "Internal server error"
		body.Details = err.Error()
	}

	if status >= 500 {
		slog.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "kind", kind, "error", err)
	} else {
		slog.Debug("Request rejected", "method", c.Request.Method, "path", c.FullPath(), "kind", kind, "error", err)
	}

	c.AbortWithStatusJSON(status, body)
}
