package handlers

import (
	"net/http"

	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"
	stderrors "github.com/SebbyH09/VFPInventory.github.io/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HistoryHandler serves the change ledger: filtered queries, per-item
// usage summaries, and the item picker behind the history view.
type HistoryHandler struct {
	history repository.HistoryRepository
	items   repository.ItemRepository
	logger  *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history repository.HistoryRepository, items repository.ItemRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		items:   items,
		logger:  logger,
	}
}

// Query handles GET /history/data
// @Summary      Query history records
// @Description  Filters by date range, item and change type. Dates are whole
// @Description  days: the end date itself is included.
// @Tags         history
// @Produce      json
// @Param        startDate   query     string  false  "Start date (YYYY-MM-DD, inclusive)"
// @Param        endDate     query     string  false  "End date (YYYY-MM-DD, inclusive)"
// @Param        itemId      query     string  false  "Item ID"
// @Param        changeType  query     string  false  "Change type"
// @Param        sortBy      query     string  false  "Sort field"
// @Param        sortOrder   query     string  false  "asc or desc"
// @Success      200         {object}  map[string]interface{}
// @Failure      400         {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /history/data [get]
func (h *HistoryHandler) Query(c *gin.Context) {
	filter := repository.HistoryFilter{
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	if value := c.Query("startDate"); value != "" {
		start, err := parseDateParam(value)
		if err != nil {
			c.Error(stderrors.NewInvalidRequest("invalid startDate", value))
			c.Abort()
			return
		}
		filter.StartDate = &start
	}

	if value := c.Query("endDate"); value != "" {
		end, err := parseDateParam(value)
		if err != nil {
			c.Error(stderrors.NewInvalidRequest("invalid endDate", value))
			c.Abort()
			return
		}
		// include the whole end day
		endExclusive := end.AddDate(0, 0, 1)
		filter.EndDate = &endExclusive
	}

	if value := c.Query("itemId"); value != "" {
		id, err := uuid.Parse(value)
		if err != nil {
			c.Error(stderrors.NewInvalidRequest("invalid itemId", value))
			c.Abort()
			return
		}
		filter.ItemID = &id
	}

	if value := c.Query("changeType"); value != "" {
		changeType := domain.ChangeType(value)
		if !domain.IsValidChangeType(changeType) {
			c.Error(stderrors.NewInvalidRequest("invalid changeType", value))
			c.Abort()
			return
		}
		filter.ChangeType = &changeType
	}

	records, err := h.history.Query(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to query history", zap.Error(err))
		c.Error(stderrors.NewDatabaseError("query history", err))
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
	})
}

// Summarize handles GET /history/summary
// @Summary      Per-item usage summary
// @Description  Aggregates signed quantity deltas per item over a date range,
// @Description  largest consumers first. Both dates are required.
// @Tags         history
// @Produce      json
// @Param        startDate  query     string  true  "Start date (YYYY-MM-DD, inclusive)"
// @Param        endDate    query     string  true  "End date (YYYY-MM-DD, inclusive)"
// @Success      200        {object}  map[string]interface{}
// @Failure      400        {object}  errors.StandardError
// @Security     BearerAuth
// @Router       /history/summary [get]
func (h *HistoryHandler) Summarize(c *gin.Context) {
	startValue := c.Query("startDate")
	endValue := c.Query("endDate")
	if startValue == "" || endValue == "" {
		c.Error(stderrors.NewInvalidRequest("startDate and endDate are required", ""))
		c.Abort()
		return
	}

	start, err := parseDateParam(startValue)
	if err != nil {
		c.Error(stderrors.NewInvalidRequest("invalid startDate", startValue))
		c.Abort()
		return
	}

	end, err := parseDateParam(endValue)
	if err != nil {
		c.Error(stderrors.NewInvalidRequest("invalid endDate", endValue))
		c.Abort()
		return
	}
	endExclusive := end.AddDate(0, 0, 1)

	summaries, err := h.history.Summarize(c.Request.Context(), start, endExclusive)
	if err != nil {
		h.logger.Error("Failed to summarize history", zap.Error(err))
		c.Error(stderrors.NewDatabaseError("summarize history", err))
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summaries,
		"period": gin.H{
			"startDate": startValue,
			"endDate":   endValue,
		},
	})
}

// ListItems handles GET /history/items
// @Summary      List item references for history filtering
// @Tags         history
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /history/items [get]
func (h *HistoryHandler) ListItems(c *gin.Context) {
	refs, err := h.items.ListRefs(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list item refs", zap.Error(err))
		c.Error(stderrors.NewDatabaseError("list item refs", err))
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    refs,
	})
}
