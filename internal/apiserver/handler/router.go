package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/cg-dump/datasrv/internal/apiserver/middleware"
	"github.com/cg-dump/datasrv/internal/common/config"
)

// Router assembles the full API surface around the handler.
func Router(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if h.metrics != nil {
		r.Use(h.metrics.Middleware())
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit)
		api.Use(limiter.Middleware("api"))
	}

	api.GET("/health", h.Health)
	api.POST("/auth/login", h.Login)

	authed := api.Group("")
	authed.Use(middleware.JWTAuthMiddleware(h.jwtService, h.store))
	{
		authed.GET("/me", h.Me)

		authed.POST("/datasets", h.CreateDataset)
		authed.GET("/datasets", h.ListDatasets)
		authed.POST("/datasets/draft", h.GetOrCreateDraft)
		authed.GET("/datasets/draft", h.GetDraft)
		authed.PUT("/datasets/draft/rows", h.ReplaceDraftRows)
		authed.POST("/datasets/publish", h.Publish)
		authed.GET("/datasets/:id", h.GetDataset)
		authed.PUT("/datasets/:id/rows", h.ReplaceRows)

		authed.GET("/state/products", h.ListStateProducts)

		authed.POST("/import", h.ImportCSV)
		authed.GET("/export/:id", h.ExportCSV)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/states", h.CreateState)
		admin.POST("/products", h.CreateProduct)
		admin.PUT("/states/:stateCode/products/:productCode", h.SetEnablement)
		admin.POST("/users", h.CreateStateUser)
	}

	return r
}
