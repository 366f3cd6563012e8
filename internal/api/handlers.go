package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/ingest"
	"github.com/jonesrussell/partprice/internal/logger"
)

// Scraper controls the background ingestion run.
type Scraper interface {
	Start() bool
	Stop(ctx context.Context) ingest.StopResult
	Status() ingest.Status
}

// BrandStore manages car brands.
type BrandStore interface {
	List(ctx context.Context) ([]domain.CarBrand, error)
	Create(ctx context.Context, name string) (*domain.CarBrand, error)
	Delete(ctx context.Context, id int64) (string, error)
	DeleteByName(ctx context.Context, name string) (string, error)
}

// ReferenceStore lists retailers and part categories.
type ReferenceStore interface {
	Retailers(ctx context.Context) ([]domain.Retailer, error)
	Categories(ctx context.Context) ([]domain.PartCategory, error)
}

// PartStore lists parts.
type PartStore interface {
	List(ctx context.Context, filter domain.PartFilter) ([]domain.PartView, error)
}

// StatsStore computes price aggregates.
type StatsStore interface {
	PriceStats(ctx context.Context, category string) ([]domain.PriceStat, error)
	BrandStats(ctx context.Context) ([]domain.BrandStat, error)
}

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// Handler serves the price tracker API.
type Handler struct {
	scraper    Scraper
	brands     BrandStore
	references ReferenceStore
	parts      PartStore
	stats      StatsStore
	db         Pinger
	log        logger.Logger
}

// Deps groups the Handler collaborators.
type Deps struct {
	Scraper    Scraper
	Brands     BrandStore
	References ReferenceStore
	Parts      PartStore
	Stats      StatsStore
	DB         Pinger
}

// NewHandler creates a Handler.
func NewHandler(deps Deps, log logger.Logger) *Handler {
	return &Handler{
		scraper:    deps.Scraper,
		brands:     deps.Brands,
		references: deps.References,
		parts:      deps.Parts,
		stats:      deps.Stats,
		db:         deps.DB,
		log:        log,
	}
}

type createBrandRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Car Parts Price Tracker API"})
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn("Health check failed", logger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"scraper": h.scraper.Status().State,
	})
}

func (h *Handler) StartScraper(c *gin.Context) {
	if !h.scraper.Start() {
		c.JSON(http.StatusOK, gin.H{"message": "Scraper already running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Scraper started"})
}

// StopScraper waits for the run to exit. A client disconnect does not shorten
// the grace period.
func (h *Handler) StopScraper(c *gin.Context) {
	res := h.scraper.Stop(context.WithoutCancel(c.Request.Context()))
	if !res.WasRunning {
		c.JSON(http.StatusOK, gin.H{"message": "No scraper running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Scraper stopped", "forced": res.Forced})
}

func (h *Handler) ScraperStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scraper.Status())
}

func (h *Handler) ListBrands(c *gin.Context) {
	brands, err := h.brands.List(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list brands", err)
		return
	}
	c.JSON(http.StatusOK, brands)
}

func (h *Handler) CreateBrand(c *gin.Context) {
	var req createBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	brand, err := h.brands.Create(c.Request.Context(), req.Name)
	switch {
	case errors.Is(err, domain.ErrBrandExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Brand already exists"})
		return
	case errors.Is(err, domain.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Brand name must not be empty"})
		return
	case err != nil:
		h.fail(c, "Failed to create brand", err)
		return
	}

	h.log.Info("Brand created", logger.Int64("brand_id", brand.ID), logger.String("brand", brand.Name))
	c.JSON(http.StatusCreated, brand)
}

// DeleteBrand accepts either a numeric brand id or a brand name.
func (h *Handler) DeleteBrand(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("brand"))
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Brand name must not be empty"})
		return
	}

	var (
		name string
		err  error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		name, err = h.brands.Delete(c.Request.Context(), id)
	} else {
		name, err = h.brands.DeleteByName(c.Request.Context(), ref)
	}
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
		return
	}
	if err != nil {
		h.fail(c, "Failed to delete brand", err)
		return
	}

	h.log.Info("Brand deleted", logger.String("brand", name))
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Brand %s deleted successfully", name)})
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.references.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list categories", err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) ListRetailers(c *gin.Context) {
	retailers, err := h.references.Retailers(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list retailers", err)
		return
	}
	c.JSON(http.StatusOK, retailers)
}

func (h *Handler) ListParts(c *gin.Context) {
	filter := domain.PartFilter{
		Brand:    c.Query("brand"),
		Category: c.Query("category"),
	}
	parts, err := h.parts.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "Failed to list parts", err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

func (h *Handler) PriceStats(c *gin.Context) {
	stats, err := h.stats.PriceStats(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.fail(c, "Failed to compute price stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) BrandStats(c *gin.Context) {
	stats, err := h.stats.BrandStats(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to compute brand stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// fail records err on the context for the request log and responds 500.
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
