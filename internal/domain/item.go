package domain

import (
	"time"

	"github.com/google/uuid"
)

// Defaults applied when a new item omits tracking intervals
const (
	DefaultCycleCountInterval   = 90 // days
	DefaultOrderFrequencyPeriod = 30 // days
)

// ItemType enumerates the supported inventory item categories
type ItemType string

const (
	ItemTypeReagent    ItemType = "Reagent"
	ItemTypeEquipment  ItemType = "Equipment"
	ItemTypeConsumable ItemType = "Consumable"
	ItemTypeTool       ItemType = "Tool"
	ItemTypeChemical   ItemType = "Chemical"
	ItemTypeOther      ItemType = "Other"
)

// IsValidItemType reports whether t is a member of the item type enumeration
func IsValidItemType(t ItemType) bool {
	switch t {
	case ItemTypeReagent, ItemTypeEquipment, ItemTypeConsumable, ItemTypeTool, ItemTypeChemical, ItemTypeOther:
		return true
	}
	return false
}

// InventoryItem represents the aggregate root for a tracked stock item
type InventoryItem struct {
	ID                   uuid.UUID   `json:"id"`
	Name                 string      `json:"name"`
	Brand                string      `json:"brand"`
	Vendor               string      `json:"vendor"`
	CatalogNumber        string      `json:"catalogNumber"`
	CurrentQuantity      int         `json:"currentQuantity"`
	MinimumQuantity      int         `json:"minimumQuantity"`
	MaximumQuantity      int         `json:"maximumQuantity"`
	Location             string      `json:"location"`
	ItemType             ItemType    `json:"itemType"`
	Cost                 float64     `json:"cost"`
	CycleCountInterval   int         `json:"cycleCountInterval"`
	OrderFrequencyPeriod int         `json:"orderFrequencyPeriod"`
	UseCycleCount        bool        `json:"useCycleCount"`
	LastUsedDate         *time.Time  `json:"lastUsedDate"`
	LastCycleCount       *time.Time  `json:"lastCycleCount"`
	OrderHistory         []time.Time `json:"orderHistory"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
	Version              int         `json:"-"` // For optimistic locking
}

// NewInventoryItem creates a new inventory item with defaults applied
func NewInventoryItem(name string) *InventoryItem {
	now := time.Now()
	return &InventoryItem{
		ID:                   uuid.New(),
		Name:                 name,
		ItemType:             ItemTypeOther,
		CycleCountInterval:   DefaultCycleCountInterval,
		OrderFrequencyPeriod: DefaultOrderFrequencyPeriod,
		OrderHistory:         []time.Time{},
		CreatedAt:            now,
		UpdatedAt:            now,
		Version:              1,
	}
}

// ItemRef is a lightweight id/name pair for pickers and filters
type ItemRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Validate checks the item invariants
func (i *InventoryItem) Validate() error {
	if i.Name == "" {
		return ErrNameRequired
	}
	if i.CurrentQuantity < 0 || i.MinimumQuantity < 0 || i.MaximumQuantity < 0 {
		return ErrNegativeQuantity
	}
	if i.Cost < 0 {
		return ErrNegativeCost
	}
	if !IsValidItemType(i.ItemType) {
		return ErrInvalidItemType
	}
	return nil
}

// Domain errors
var (
	ErrItemNotFound         = &DomainError{Message: "item not found"}
	ErrNameRequired         = &DomainError{Message: "item name is required"}
	ErrNegativeQuantity     = &DomainError{Message: "quantities must be non-negative"}
	ErrNegativeCost         = &DomainError{Message: "cost must be non-negative"}
	ErrInvalidItemType      = &DomainError{Message: "invalid item type"}
	ErrInvalidChangeType    = &DomainError{Message: "invalid change type"}
	ErrInvalidConsumeAmount = &DomainError{Message: "quantity consumed must be positive"}
	ErrVersionConflict      = &DomainError{Message: "item was modified concurrently"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
