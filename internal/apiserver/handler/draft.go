package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cg-dump/datasrv/internal/apiserver/middleware"
	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/internal/dataset"
)

// GetOrCreateDraft returns the live draft of the selected scope, creating
// it when none exists. 201 signals this call created the draft.
func (h *Handler) GetOrCreateDraft(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	var input dataset.CreateDraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errorx.InvalidRequest("invalid request body"))
		return
	}

	result, errx := h.datasets.GetOrCreateDraft(c.Request.Context(), caller, input)
	if errx != nil {
		respondError(c, errx)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// GetDraft returns the live draft of the selected scope.
func (h *Handler) GetDraft(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	selector := dataset.DraftSelector{
		ProductCode: c.Query("productCode"),
		StateCode:   c.Query("stateCode"),
	}

	ds, errx := h.datasets.GetDraft(c.Request.Context(), caller, selector)
	if errx != nil {
		respondError(c, errx)
		return
	}
	c.JSON(http.StatusOK, ds)
}

// ReplaceDraftRows replaces the live draft's rows under a version token.
func (h *Handler) ReplaceDraftRows(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	var input dataset.ReplaceDraftRowsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errorx.InvalidRequest("invalid request body"))
		return
	}

	ds, errx := h.datasets.ReplaceDraftRows(c.Request.Context(), caller, input)
	if errx != nil {
		h.countValidationFailure(errx, input.ProductCode)
		respondError(c, errx)
		return
	}
	h.countRowsWritten(productCode(ds), len(input.Rows))
	c.JSON(http.StatusOK, ds)
}

// Publish freezes the live draft's rows into a new published snapshot.
func (h *Handler) Publish(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	var selector dataset.DraftSelector
	if err := c.ShouldBindJSON(&selector); err != nil {
		respondError(c, errorx.InvalidRequest("invalid request body"))
		return
	}

	start := time.Now()
	if h.metrics != nil {
		h.metrics.PublishStart(selector.ProductCode)
	}

	result, errx := h.datasets.Publish(c.Request.Context(), caller, selector)
	if errx != nil {
		if h.metrics != nil {
			h.metrics.PublishDone(selector.ProductCode, start, "error")
		}
		h.countValidationFailure(errx, selector.ProductCode)
		respondError(c, errx)
		return
	}
	if h.metrics != nil {
		h.metrics.PublishDone(selector.ProductCode, start, "success")
	}
	c.JSON(http.StatusCreated, result)
}
