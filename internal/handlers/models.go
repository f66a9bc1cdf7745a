package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"
	stderrors "github.com/SebbyH09/VFPInventory.github.io/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ItemActionRequest targets one item, optionally with a backdated date
type ItemActionRequest struct {
	ItemID string     `json:"itemId" binding:"required"`
	Date   *time.Time `json:"date"`
}

// CycleCountUpdateRequest is the dashboard recount payload
type CycleCountUpdateRequest struct {
	ItemID      string     `json:"itemId" binding:"required"`
	NewQuantity *int       `json:"newQuantity" binding:"required"`
	Date        *time.Time `json:"date"`
}

// CycleCountItem is a worklist entry with its derived status
type CycleCountItem struct {
	*domain.InventoryItem
	DaysSinceCount *int `json:"daysSinceCount"`
	IsDue          bool `json:"isDue"`
	IsWarning      bool `json:"isWarning"`
}

// LowStockItem is a low stock report entry with its derived status
type LowStockItem struct {
	*domain.InventoryItem
	IsLowStock       bool `json:"isLowStock"`
	RecentOrderCount int  `json:"recentOrderCount"`
}

// newItemRowLength is the fixed width of a positional newItems row
const newItemRowLength = 13

// itemFromRow maps a positional entry row to an item:
// [name, brand, vendor, catalog, currentQty, minQty, maxQty, location,
//  type, cost, cycleInterval, orderPeriod, useCycleCount]
func itemFromRow(row []interface{}) (*domain.InventoryItem, error) {
	if len(row) != newItemRowLength {
		return nil, fmt.Errorf("expected %d fields, got %d", newItemRowLength, len(row))
	}

	item := domain.NewInventoryItem(rowString(row[0]))
	item.Brand = rowString(row[1])
	item.Vendor = rowString(row[2])
	item.CatalogNumber = rowString(row[3])

	var err error
	if item.CurrentQuantity, err = rowInt(row[4]); err != nil {
		return nil, fmt.Errorf("currentQuantity: %w", err)
	}
	if item.MinimumQuantity, err = rowInt(row[5]); err != nil {
		return nil, fmt.Errorf("minimumQuantity: %w", err)
	}
	if item.MaximumQuantity, err = rowInt(row[6]); err != nil {
		return nil, fmt.Errorf("maximumQuantity: %w", err)
	}
	item.Location = rowString(row[7])
	if itemType := rowString(row[8]); itemType != "" {
		item.ItemType = normalizeItemType(itemType)
	}
	if item.Cost, err = rowFloat(row[9]); err != nil {
		return nil, fmt.Errorf("cost: %w", err)
	}
	if interval, err := rowInt(row[10]); err == nil && interval > 0 {
		item.CycleCountInterval = interval
	}
	if period, err := rowInt(row[11]); err == nil && period > 0 {
		item.OrderFrequencyPeriod = period
	}
	item.UseCycleCount = rowBool(row[12])

	return item, nil
}

func rowString(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

func rowInt(v interface{}) (int, error) {
	switch value := v.(type) {
	case nil:
		return 0, nil
	case float64: // JSON numbers decode as float64
		return int(value), nil
	case int:
		return value, nil
	case string:
		if strings.TrimSpace(value) == "" {
			return 0, nil
		}
		return strconv.Atoi(strings.TrimSpace(value))
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func rowFloat(v interface{}) (float64, error) {
	switch value := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return value, nil
	case int:
		return float64(value), nil
	case string:
		if strings.TrimSpace(value) == "" {
			return 0, nil
		}
		return strconv.ParseFloat(strings.TrimSpace(value), 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func rowBool(v interface{}) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		lower := strings.ToLower(strings.TrimSpace(value))
		return lower == "true" || lower == "yes" || lower == "1"
	case float64:
		return value != 0
	default:
		return false
	}
}

// normalizeItemType matches the type enumeration case-insensitively;
// unknown values pass through so validation rejects them by name
func normalizeItemType(value string) domain.ItemType {
	for _, itemType := range []domain.ItemType{
		domain.ItemTypeReagent, domain.ItemTypeEquipment, domain.ItemTypeConsumable,
		domain.ItemTypeTool, domain.ItemTypeChemical, domain.ItemTypeOther,
	} {
		if strings.EqualFold(value, string(itemType)) {
			return itemType
		}
	}
	return domain.ItemType(value)
}

// parseDateParam accepts plain dates and RFC3339 timestamps
func parseDateParam(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %s", value)
}

// requestUserID returns the acting principal set by the auth middleware
func requestUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// abortWithError converts service/repository errors into standard responses
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrItemNotFound), errors.Is(err, domain.ErrItemNotFound):
		c.Error(stderrors.NewItemNotFound(c.Param("id")))
	case errors.Is(err, domain.ErrVersionConflict):
		c.Error(stderrors.NewVersionConflict(c.Param("id")))
	case isValidationError(err):
		c.Error(stderrors.NewValidationError(err.Error(), "item"))
	default:
		c.Error(stderrors.NewInternalError("unexpected error", err))
	}
	c.Abort()
}

func isValidationError(err error) bool {
	var domainErr *domain.DomainError
	return errors.As(err, &domainErr)
}
