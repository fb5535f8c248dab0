package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cg-dump/datasrv/internal/apiserver/middleware"
	"github.com/cg-dump/datasrv/internal/common/dto"
	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/pkg/version"
)

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errorx.InvalidRequest("username and password are required"))
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, errorx.Unauthorized("Invalid username or password"))
		return
	}

	if !user.IsActive {
		respondError(c, errorx.Forbidden("User is disabled"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(c, errorx.Unauthorized("Invalid username or password"))
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		respondError(c, errorx.Internal("Failed to generate token"))
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token: token,
		User: dto.UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Role:     string(user.Role),
			StateID:  user.StateID,
		},
	})
}

// Me returns the authenticated caller's identity.
func (h *Handler) Me(c *gin.Context) {
	caller := middleware.GetAuthContext(c)
	if caller == nil {
		respondError(c, errorx.Unauthorized("unauthorized"))
		return
	}
	c.JSON(http.StatusOK, dto.UserInfo{
		ID:       caller.UserID,
		Username: caller.Username,
		Role:     string(caller.Role),
		StateID:  caller.StateID,
	})
}

// Health reports liveness and the running version.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Get(),
	})
}
