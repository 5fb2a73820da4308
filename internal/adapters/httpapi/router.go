package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiostock/internal/core"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger core.Logger
	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
}

// NewRouter registers the API routes on a fresh gin engine.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), withRequestID())
	if opts.Logger != nil {
		r.Use(withLogging(opts.Logger))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	api := r.Group("/api")
	{
		items := api.Group("/items")
		items.GET("", h.listItems)
		items.POST("", h.createItem)
		items.POST("/reconcile", h.reconcile)
		items.POST("/refresh", h.refresh)

		api.GET("/taxonomy", h.taxonomy)
		api.GET("/summary", h.summary)
		api.GET("/shopping-list", h.shoppingList)

		usage := api.Group("/usage")
		usage.POST("", h.openUsage)
		usage.GET("/:id", h.getUsage)
		usage.DELETE("/:id", h.discardUsage)
		usage.POST("/:id/lines", h.stageUsage)
		usage.POST("/:id/commit", h.commitUsage)
	}
	r.NoRoute(func(c *gin.Context) { writeError(c, http.StatusNotFound, "not_found", "") })
	return r
}
