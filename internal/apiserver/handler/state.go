package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/apiserver/middleware"
	"github.com/cg-dump/datasrv/internal/common/errorx"
)

// ListStateProducts lists the products enabled for the caller's state.
// Admin callers select the state with the stateCode query parameter.
func (h *Handler) ListStateProducts(c *gin.Context) {
	caller := middleware.GetAuthContext(c)

	var stateID string
	if caller.IsAdmin() {
		stateCode := strings.ToUpper(strings.TrimSpace(c.Query("stateCode")))
		if stateCode == "" {
			respondError(c, errorx.InvalidRequest("stateCode is required for admin requests"))
			return
		}
		state, err := h.store.GetStateByCode(c.Request.Context(), stateCode)
		if err != nil {
			if database.IsNotFound(err) {
				respondError(c, errorx.NotFound("State not found").WithDetail("stateCode", stateCode))
				return
			}
			respondError(c, errorx.Internal("internal server error"))
			return
		}
		stateID = state.ID
	} else {
		if caller.StateID == nil {
			respondError(c, errorx.Forbidden("State users can only access their own state data"))
			return
		}
		stateID = *caller.StateID
	}

	products, errx := h.platform.ListEnabledProducts(c.Request.Context(), stateID)
	if errx != nil {
		respondError(c, errx)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
