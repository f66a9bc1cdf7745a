package handlers

import (
	"net/http"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/cache"
	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"
	stderrors "github.com/SebbyH09/VFPInventory.github.io/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler serves the derived status views: the cycle count
// worklist and the low stock report.
type DashboardHandler struct {
	items    repository.ItemRepository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(items repository.ItemRepository, cacheStore cache.Cache, cacheTTLSeconds int, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		items:    items,
		cache:    cacheStore,
		cacheTTL: cache.TTL(cacheTTLSeconds),
		logger:   logger,
	}
}

// CycleCounts handles GET /dashboard/cycle-counts
// @Summary      Cycle count worklist
// @Description  Items tracked for cycle counting that are due or approaching
// @Description  their interval, never-counted items first, then stalest first
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /dashboard/cycle-counts [get]
func (h *DashboardHandler) CycleCounts(c *gin.Context) {
	ctx := c.Request.Context()
	cacheKey := "dashboard:cycle-counts"

	var cached []*CycleCountItem
	if err := cache.GetJSON(ctx, h.cache, cacheKey, &cached); err == nil {
		h.logger.Debug("Cache hit", zap.String("key", cacheKey))
		c.JSON(http.StatusOK, gin.H{"success": true, "data": cached, "count": len(cached)})
		return
	}

	items, err := h.items.List(ctx, repository.ItemSortNameAsc)
	if err != nil {
		h.logger.Error("Failed to list items", zap.Error(err))
		c.Error(stderrors.NewDatabaseError("list items", err))
		c.Abort()
		return
	}

	now := time.Now()

	tracked := []*domain.InventoryItem{}
	for _, item := range items {
		if !item.UseCycleCount {
			continue
		}
		if domain.IsCycleCountDue(item, now) || domain.IsCycleCountWarning(item, now) {
			tracked = append(tracked, item)
		}
	}
	domain.SortByCycleCountPriority(tracked, now)

	worklist := make([]*CycleCountItem, 0, len(tracked))
	for _, item := range tracked {
		entry := &CycleCountItem{
			InventoryItem: item,
			IsDue:         domain.IsCycleCountDue(item, now),
			IsWarning:     domain.IsCycleCountWarning(item, now),
		}
		if days, counted := domain.DaysSinceCycleCount(item, now); counted {
			entry.DaysSinceCount = &days
		}
		worklist = append(worklist, entry)
	}

	if err := cache.SetJSON(ctx, h.cache, cacheKey, worklist, h.cacheTTL); err != nil {
		h.logger.Warn("Failed to cache worklist", zap.String("key", cacheKey), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": worklist, "count": len(worklist)})
}

// LowStock handles GET /dashboard/low-stock
// @Summary      Low stock report
// @Description  Items strictly below their minimum quantity, with recent
// @Description  order counts so reorders in flight are visible
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /dashboard/low-stock [get]
func (h *DashboardHandler) LowStock(c *gin.Context) {
	ctx := c.Request.Context()
	cacheKey := "dashboard:low-stock"

	var cached []*LowStockItem
	if err := cache.GetJSON(ctx, h.cache, cacheKey, &cached); err == nil {
		h.logger.Debug("Cache hit", zap.String("key", cacheKey))
		c.JSON(http.StatusOK, gin.H{"success": true, "data": cached, "count": len(cached)})
		return
	}

	items, err := h.items.List(ctx, repository.ItemSortNameAsc)
	if err != nil {
		h.logger.Error("Failed to list items", zap.Error(err))
		c.Error(stderrors.NewDatabaseError("list items", err))
		c.Abort()
		return
	}

	now := time.Now()

	report := []*LowStockItem{}
	for _, item := range items {
		if !domain.IsLowStock(item) {
			continue
		}
		report = append(report, &LowStockItem{
			InventoryItem:    item,
			IsLowStock:       true,
			RecentOrderCount: domain.RecentOrderCount(item, now),
		})
	}

	if err := cache.SetJSON(ctx, h.cache, cacheKey, report, h.cacheTTL); err != nil {
		h.logger.Warn("Failed to cache report", zap.String("key", cacheKey), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": report, "count": len(report)})
}
