package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/internal/platform"
)

// CreateState registers a new state.
func (h *Handler) CreateState(c *gin.Context) {
	var input platform.CreateStateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errorx.InvalidRequest("invalid request body"))
		return
	}
	state, errx := h.platform.CreateState(c.Request.Context(), input)
	if errx != nil {
		respondError(c, errx)
		return
	}
	c.JSON(http.StatusCreated, state)
}

// CreateProduct creates or reactivates a product.
func (h *Handler) CreateProduct(c *gin.Context) {
	var input platform.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errorx.InvalidRequest("invalid request body"))
		return
	}
	product, errx := h.platform.CreateProduct(c.Request.Context(), input)
	if errx != nil {
		respondError(c, errx)
		return
	}
	c.JSON(http.StatusCreated, product)
}

type setEnablementBody struct {
	Enabled     bool   `json:"enabled"`
	ProductName string `json:"productName,omitempty"`
}

// SetEnablement upserts a (state, product) enablement pair.
func (h *Handler) SetEnablement(c *gin.Context) {
	var body setEnablementBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, errorx.InvalidRequest("invalid request body"))
		return
	}

	sp, errx := h.platform.SetStateProductEnablement(c.Request.Context(), platform.SetEnablementInput{
		StateCode:   c.Param("stateCode"),
		ProductCode: c.Param("productCode"),
		ProductName: body.ProductName,
		Enabled:     body.Enabled,
	})
	if errx != nil {
		respondError(c, errx)
		return
	}
	c.JSON(http.StatusOK, sp)
}

// CreateStateUser creates or rebinds a state-bound user account.
func (h *Handler) CreateStateUser(c *gin.Context) {
	var input platform.CreateStateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errorx.InvalidRequest("invalid request body"))
		return
	}
	user, errx := h.platform.CreateStateUser(c.Request.Context(), input)
	if errx != nil {
		respondError(c, errx)
		return
	}
	c.JSON(http.StatusCreated, user)
}
