package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/partprice/internal/logger"
)

// RouterConfig controls router construction.
type RouterConfig struct {
	Debug       bool
	CORSOrigins []string
	MetricsPath string
	// Metrics is served at MetricsPath when set.
	Metrics http.Handler
	// Observer records per-route request metrics when set.
	Observer HTTPObserver
}

// NewRouter wires middleware and routes. Recovery runs first so later
// middleware panics are caught too.
func NewRouter(cfg RouterConfig, h *Handler, log logger.Logger) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware(log))
	router.Use(loggerMiddleware(log))
	router.Use(corsMiddleware(cfg.CORSOrigins))
	if cfg.Observer != nil {
		router.Use(metricsMiddleware(cfg.Observer))
	}

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		router.GET(cfg.MetricsPath, gin.WrapH(cfg.Metrics))
	}

	scraper := router.Group("/scraper")
	scraper.POST("/start", h.StartScraper)
	scraper.POST("/stop", h.StopScraper)
	scraper.GET("/status", h.ScraperStatus)

	brands := router.Group("/brands")
	brands.GET("", h.ListBrands)
	brands.POST("", h.CreateBrand)
	brands.DELETE("/:brand", h.DeleteBrand)

	router.GET("/categories", h.ListCategories)
	router.GET("/retailers", h.ListRetailers)
	router.GET("/parts", h.ListParts)
	router.GET("/price-stats", h.PriceStats)
	router.GET("/brand-stats", h.BrandStats)

	return router
}
