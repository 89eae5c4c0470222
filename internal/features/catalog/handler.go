package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/course"
	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
	"github.com/mo-amir99/coursehub-server-go/pkg/cache"
	"github.com/mo-amir99/coursehub-server-go/pkg/metrics"
	"github.com/mo-amir99/coursehub-server-go/pkg/pagination"
	"github.com/mo-amir99/coursehub-server-go/pkg/response"
	"github.com/mo-amir99/coursehub-server-go/pkg/validation"
)

// Handler serves the public course catalog.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	cache  cache.Client
	ttl    time.Duration
}

// NewHandler constructs a catalog handler. A nil cache or non-positive ttl disables caching.
func NewHandler(db *gorm.DB, logger *slog.Logger, cacheClient cache.Client, ttl time.Duration) *Handler {
	return &Handler{db: db, logger: logger, cache: cacheClient, ttl: ttl}
}

type page struct {
	Courses    []course.Summary    `json:"courses"`
	Pagination pagination.Metadata `json:"pagination"`
}

// List returns one page of published courses matching category, level and search.
func (h *Handler) List(c *gin.Context) {
	filters := Filters{
		Category: strings.TrimSpace(c.Query("category")),
		Level:    strings.TrimSpace(c.Query("level")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if err := filters.Validate(); err != nil {
		h.respondError(c, err, "")
		return
	}
	if !validation.MaxRunes(filters.Search, maxSearchLength) {
		h.respondError(c, apperrors.Validation("Invalid search.", []string{"search must be at most 100 characters"}, nil), "")
		return
	}

	params := pagination.Extract(c)
	ctx := c.Request.Context()

	key, cached := h.lookup(ctx, filters, params)
	if cached != nil {
		response.SuccessWithCache(c, http.StatusOK, cached.Courses, "", cached.Pagination, h.maxAge())
		return
	}

	db := h.db.WithContext(ctx)
	courses, total, err := Search(db, filters, params)
	if err != nil {
		h.respondError(c, err, "Failed to list courses.")
		return
	}
	summaries, err := course.Summaries(db, courses)
	if err != nil {
		h.respondError(c, err, "Failed to list courses.")
		return
	}

	result := page{Courses: summaries, Pagination: pagination.MetadataFrom(total, params)}
	h.store(ctx, key, result)

	response.SuccessWithCache(c, http.StatusOK, result.Courses, "", result.Pagination, h.maxAge())
}

// Categories returns the categories that have at least one visible course.
func (h *Handler) Categories(c *gin.Context) {
	categories, err := Categories(h.db.WithContext(c.Request.Context()))
	if err != nil {
		h.respondError(c, err, "Failed to list categories.")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	response.SuccessWithCache(c, http.StatusOK, categories, "", nil, h.maxAge())
}

// lookup returns the cache key for the request and the cached page when present.
// Cache failures are logged and treated as a miss.
func (h *Handler) lookup(ctx context.Context, filters Filters, params pagination.Params) (string, *page) {
	if h.cache == nil || h.ttl <= 0 {
		return "", nil
	}

	generation, err := cache.Generation(ctx, h.cache, course.CatalogGenerationKey)
	if err != nil {
		metrics.RecordCatalogCache("error")
		h.logger.Warn("catalog cache unavailable", slog.String("error", err.Error()))
		return "", nil
	}
	key := filters.cacheKey(generation, params)

	var cached page
	switch err := cache.GetJSON(ctx, h.cache, key, &cached); {
	case err == nil:
		metrics.RecordCatalogCache("hit")
		return key, &cached
	case errors.Is(err, cache.ErrMiss):
		metrics.RecordCatalogCache("miss")
	default:
		metrics.RecordCatalogCache("error")
		h.logger.Warn("catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return key, nil
}

func (h *Handler) store(ctx context.Context, key string, p page) {
	if key == "" {
		return
	}
	if err := cache.SetJSON(ctx, h.cache, key, p, h.ttl); err != nil {
		h.logger.Warn("catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (h *Handler) maxAge() int {
	if h.ttl <= 0 {
		return 0
	}
	return int(h.ttl / time.Second)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, ErrInvalidLevel) {
		err = apperrors.Validation("Invalid level filter.", []string{err.Error()}, err)
	}
	response.FromError(h.logger, c, err, fallback)
}
