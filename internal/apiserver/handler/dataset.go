package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cg-dump/datasrv/internal/apiserver/middleware"
	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/internal/dataset"
)

// CreateDataset creates an ad-hoc dataset under an explicit template.
func (h *Handler) CreateDataset(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	var input dataset.CreateDatasetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errorx.InvalidRequest("invalid request body"))
		return
	}

	ds, errx := h.datasets.CreateDataset(c.Request.Context(), caller, input)
	if errx != nil {
		respondError(c, errx)
		return
	}
	c.JSON(http.StatusCreated, ds)
}

// ListDatasets lists datasets in the caller's scope, optionally filtered
// by product and template code.
func (h *Handler) ListDatasets(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	filter := dataset.ListFilter{
		ProductCode:  c.Query("productCode"),
		TemplateCode: c.Query("templateCode"),
		StateCode:    c.Query("stateCode"),
	}

	datasets, errx := h.datasets.ListDatasets(c.Request.Context(), caller, filter)
	if errx != nil {
		respondError(c, errx)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// GetDataset returns one dataset with its rows.
func (h *Handler) GetDataset(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	ds, errx := h.datasets.GetDataset(c.Request.Context(), caller, c.Param("id"))
	if errx != nil {
		respondError(c, errx)
		return
	}
	c.JSON(http.StatusOK, ds)
}

// ReplaceRows replaces a dataset's full row set under a version token.
func (h *Handler) ReplaceRows(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	var input dataset.ReplaceRowsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errorx.InvalidRequest("invalid request body"))
		return
	}

	ds, errx := h.datasets.ReplaceRows(c.Request.Context(), caller, c.Param("id"), input)
	if errx != nil {
		h.countValidationFailure(errx, "")
		respondError(c, errx)
		return
	}
	h.countRowsWritten(productCode(ds), len(input.Rows))
	c.JSON(http.StatusOK, ds)
}
