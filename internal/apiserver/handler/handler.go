package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/auth/jwt"
	"github.com/cg-dump/datasrv/internal/common/dto"
	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/internal/dataset"
	"github.com/cg-dump/datasrv/internal/platform"
	"github.com/cg-dump/datasrv/pkg/metrics"
)

// Handler carries the API endpoints' shared dependencies.
type Handler struct {
	store      database.Store
	jwtService *jwt.Service
	datasets   *dataset.Service
	platform   *platform.Service
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewHandler creates the API handler. metrics may be nil when disabled.
func NewHandler(store database.Store, jwtService *jwt.Service, datasets *dataset.Service, platformSvc *platform.Service, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		store:      store,
		jwtService: jwtService,
		datasets:   datasets,
		platform:   platformSvc,
		metrics:    m,
		logger:     logger.Named("handler"),
	}
}

func productCode(ds *database.Dataset) string {
	if ds == nil || ds.Product == nil {
		return "unknown"
	}
	return ds.Product.Code
}

func (h *Handler) countRowsWritten(product string, count int) {
	if h.metrics != nil {
		h.metrics.RowsWritten(product, count)
	}
}

func (h *Handler) countValidationFailure(err *errorx.Error, product string) {
	if h.metrics == nil || err.Kind != errorx.KindValidationFailed {
		return
	}
	if product == "" {
		product = "unknown"
	}
	h.metrics.ValidationFailed(product)
}

func respondError(c *gin.Context, err *errorx.Error) {
	c.JSON(err.HTTPStatus(), dto.ErrorResponse{
		Error:   err.Message,
		Kind:    string(err.Kind),
		Details: err.Details,
	})
}
