package handlers

import (
	"net/http"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/cache"
	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"
	"github.com/SebbyH09/VFPInventory.github.io/internal/service"
	stderrors "github.com/SebbyH09/VFPInventory.github.io/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConsumeHandler handles the stock consumption endpoints
type ConsumeHandler struct {
	service  *service.InventoryService
	items    repository.ItemRepository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewConsumeHandler creates a new consume handler
func NewConsumeHandler(
	svc *service.InventoryService,
	items repository.ItemRepository,
	cacheStore cache.Cache,
	cacheTTLSeconds int,
	logger *zap.Logger,
) *ConsumeHandler {
	return &ConsumeHandler{
		service:  svc,
		items:    items,
		cache:    cacheStore,
		cacheTTL: cache.TTL(cacheTTLSeconds),
		logger:   logger,
	}
}

// ConsumeBatchRequest is a batch of consumption entries
type ConsumeBatchRequest struct {
	ConsumedItems []service.ConsumeRequest `json:"consumedItems" binding:"required"`
}

// Consume handles POST /consume
// @Summary      Record consumed quantities
// @Description  Reduces stock for each item, fail-soft per item. Stored
// @Description  quantities clamp at zero; the ledger keeps the requested amount.
// @Tags         consume
// @Accept       json
// @Produce      json
// @Param        request  body      ConsumeBatchRequest  true  "Consumed items"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /consume [post]
func (h *ConsumeHandler) Consume(c *gin.Context) {
	var req ConsumeBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid consume payload", zap.Error(err))
		c.Error(stderrors.NewInvalidRequest("invalid request body", err.Error()))
		c.Abort()
		return
	}

	if len(req.ConsumedItems) == 0 {
		c.Error(stderrors.NewInvalidRequest("nothing to consume", "consumedItems is empty"))
		c.Abort()
		return
	}

	updatedCount, batchErrors := h.service.Consume(c.Request.Context(), req.ConsumedItems, requestUserID(c))

	h.logger.Info("Consumption batch processed",
		zap.Int("updated_count", updatedCount),
		zap.Int("error_count", len(batchErrors)),
	)

	c.JSON(http.StatusOK, gin.H{
		"message": "Consumption recorded",
		"results": gin.H{
			"updatedCount": updatedCount,
			"errors":       batchErrors,
		},
	})
}

// ListItems handles GET /consume/items
// @Summary      List items for the consumption form
// @Description  Returns all items sorted by name
// @Tags         consume
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /consume/items [get]
func (h *ConsumeHandler) ListItems(c *gin.Context) {
	ctx := c.Request.Context()
	cacheKey := "items:consume"

	var cached []*domain.InventoryItem
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

	if err := cache.SetJSON(ctx, h.cache, cacheKey, items, h.cacheTTL); err != nil {
		h.logger.Warn("Failed to cache items", zap.String("key", cacheKey), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": items, "count": len(items)})
}
