package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/cache"
	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"
	"github.com/SebbyH09/VFPInventory.github.io/internal/service"
	stderrors "github.com/SebbyH09/VFPInventory.github.io/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryHandler handles the entry endpoints: the batch save form,
// the item list behind it, and the per-item actions.
type InventoryHandler struct {
	service  *service.InventoryService
	items    repository.ItemRepository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(
	svc *service.InventoryService,
	items repository.ItemRepository,
	cacheStore cache.Cache,
	cacheTTLSeconds int,
	logger *zap.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		service:  svc,
		items:    items,
		cache:    cacheStore,
		cacheTTL: cache.TTL(cacheTTLSeconds),
		logger:   logger,
	}
}

// SaveEntriesRequest is the combined create/update batch from the entry form.
// Each newItems row is positional:
// [name, brand, vendor, catalog, currentQty, minQty, maxQty, location,
//  type, cost, cycleInterval, orderPeriod, useCycleCount]
type SaveEntriesRequest struct {
	NewItems     [][]interface{}      `json:"newItems"`
	UpdatedItems []service.ItemUpdate `json:"updatedItems"`
}

// SaveEntriesResults reports the per-item outcome of a batch save
type SaveEntriesResults struct {
	NewCount           int                     `json:"newCount"`
	UpdatedCount       int                     `json:"updatedCount"`
	SavedItems         []*domain.InventoryItem `json:"savedItems"`
	UpdatedItemDetails []*domain.InventoryItem `json:"updatedItemsDetails"`
	Errors             []service.BatchError    `json:"errors"`
}

// SaveEntries handles POST /entry
// @Summary      Save a batch of new and updated items
// @Description  Creates and updates items in one request, fail-soft per item
// @Tags         entry
// @Accept       json
// @Produce      json
// @Param        request  body      SaveEntriesRequest  true  "Batch payload"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /entry [post]
func (h *InventoryHandler) SaveEntries(c *gin.Context) {
	var req SaveEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid entry payload", zap.Error(err))
		c.Error(stderrors.NewInvalidRequest("invalid request body", err.Error()))
		c.Abort()
		return
	}

	if len(req.NewItems) == 0 && len(req.UpdatedItems) == 0 {
		c.Error(stderrors.NewInvalidRequest("nothing to save", "newItems and updatedItems are both empty"))
		c.Abort()
		return
	}

	userID := requestUserID(c)
	batchErrors := []service.BatchError{}

	newItems := []*domain.InventoryItem{}
	for i, row := range req.NewItems {
		item, err := itemFromRow(row)
		if err != nil {
			batchErrors = append(batchErrors, service.BatchError{
				Row:   i + 1,
				Error: fmt.Sprintf("Row %d: %s", i+1, err.Error()),
			})
			continue
		}
		newItems = append(newItems, item)
	}

	saved, createErrors := h.service.CreateItems(c.Request.Context(), newItems, userID)
	batchErrors = append(batchErrors, createErrors...)

	updated, updateErrors := h.service.UpdateItems(c.Request.Context(), req.UpdatedItems, userID)
	batchErrors = append(batchErrors, updateErrors...)

	h.logger.Info("Entry batch saved",
		zap.Int("new_count", len(saved)),
		zap.Int("updated_count", len(updated)),
		zap.Int("error_count", len(batchErrors)),
	)

	c.JSON(http.StatusOK, gin.H{
		"message": "Entries saved",
		"results": SaveEntriesResults{
			NewCount:           len(saved),
			UpdatedCount:       len(updated),
			SavedItems:         saved,
			UpdatedItemDetails: updated,
			Errors:             batchErrors,
		},
	})
}

// ListItems handles GET /entry/items
// @Summary      List items for the entry form
// @Description  Returns all items, newest first
// @Tags         entry
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /entry/items [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	ctx := c.Request.Context()
	cacheKey := "items:entry"

	var cached []*domain.InventoryItem
	if err := cache.GetJSON(ctx, h.cache, cacheKey, &cached); err == nil {
		h.logger.Debug("Cache hit", zap.String("key", cacheKey))
		c.JSON(http.StatusOK, gin.H{"success": true, "data": cached, "count": len(cached)})
		return
	}

	items, err := h.items.List(ctx, repository.ItemSortCreatedDesc)
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

// DeleteItem handles DELETE /entry/:id
// @Summary      Delete an item
// @Description  Removes the item; its ledger records are kept
// @Tags         entry
// @Produce      json
// @Param        id  path      string  true  "Item ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  errors.StandardError
// @Failure      404  {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /entry/{id} [delete]
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(stderrors.NewInvalidRequest("invalid item id", c.Param("id")))
		c.Abort()
		return
	}

	item, err := h.service.DeleteItem(c.Request.Context(), id, requestUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.logger.Info("Item deleted",
		zap.String("item_id", id.String()),
		zap.String("name", item.Name),
	)

	c.JSON(http.StatusOK, gin.H{
		"message":     "Item deleted",
		"deletedItem": item,
	})
}

// MarkUsed handles POST /entry/mark-used
// @Summary      Mark an item as used
// @Description  Stamps the item's last used date, optionally backdated
// @Tags         entry
// @Accept       json
// @Produce      json
// @Param        request  body      ItemActionRequest  true  "Item and optional date"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  errors.StandardError
// @Failure      404      {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /entry/mark-used [post]
func (h *InventoryHandler) MarkUsed(c *gin.Context) {
	h.itemAction(c, "Item marked as used", h.service.MarkUsed)
}

// RecordOrder handles POST /entry/record-order
// @Summary      Record a placed order
// @Description  Appends an order date to the item's order history
// @Tags         entry
// @Accept       json
// @Produce      json
// @Param        request  body      ItemActionRequest  true  "Item and optional date"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  errors.StandardError
// @Failure      404      {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /entry/record-order [post]
func (h *InventoryHandler) RecordOrder(c *gin.Context) {
	h.itemAction(c, "Order recorded", h.service.RecordOrder)
}

// CycleCount handles POST /entry/cycle-count
// @Summary      Record a cycle count
// @Description  Stamps the item's last cycle count date without recounting
// @Tags         entry
// @Accept       json
// @Produce      json
// @Param        request  body      ItemActionRequest  true  "Item and optional date"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  errors.StandardError
// @Failure      404      {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /entry/cycle-count [post]
func (h *InventoryHandler) CycleCount(c *gin.Context) {
	h.itemAction(c, "Cycle count recorded", func(ctx context.Context, id uuid.UUID, date *time.Time, userID string) (*domain.InventoryItem, error) {
		return h.service.CycleCount(ctx, id, date, nil, userID)
	})
}

// UpdateCycleCount handles POST /entry/update-cycle-count
// @Summary      Record a cycle count with a recount
// @Description  Stamps the cycle count date and replaces the quantity
// @Tags         entry
// @Accept       json
// @Produce      json
// @Param        request  body      CycleCountUpdateRequest  true  "Item, counted quantity, optional date"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  errors.StandardError
// @Failure      404      {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /entry/update-cycle-count [post]
func (h *InventoryHandler) UpdateCycleCount(c *gin.Context) {
	var req CycleCountUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(stderrors.NewInvalidRequest("invalid request body", err.Error()))
		c.Abort()
		return
	}

	id, err := uuid.Parse(req.ItemID)
	if err != nil {
		c.Error(stderrors.NewInvalidRequest("invalid item id", req.ItemID))
		c.Abort()
		return
	}

	item, err := h.service.CycleCount(c.Request.Context(), id, req.Date, req.NewQuantity, requestUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cycle count updated",
		"item":    item,
	})
}

type itemActionFunc func(ctx context.Context, id uuid.UUID, date *time.Time, userID string) (*domain.InventoryItem, error)

// itemAction binds the shared {itemId, date?} payload and runs one service
// action against it
func (h *InventoryHandler) itemAction(c *gin.Context, message string, action itemActionFunc) {
	var req ItemActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(stderrors.NewInvalidRequest("invalid request body", err.Error()))
		c.Abort()
		return
	}

	id, err := uuid.Parse(req.ItemID)
	if err != nil {
		c.Error(stderrors.NewInvalidRequest("invalid item id", req.ItemID))
		c.Abort()
		return
	}

	item, err := action(c.Request.Context(), id, req.Date, requestUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"item":    item,
	})
}
