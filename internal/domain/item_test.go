package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewInventoryItem(t *testing.T) {
	item := NewInventoryItem("Nitrile Gloves")

	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, "Nitrile Gloves", item.Name)
	assert.Equal(t, ItemTypeOther, item.ItemType)
	assert.Equal(t, DefaultCycleCountInterval, item.CycleCountInterval)
	assert.Equal(t, DefaultOrderFrequencyPeriod, item.OrderFrequencyPeriod)
	assert.Nil(t, item.LastUsedDate)
	assert.Nil(t, item.LastCycleCount)
	assert.Empty(t, item.OrderHistory)
	assert.Equal(t, 1, item.Version)
	assert.False(t, item.CreatedAt.IsZero())
	assert.False(t, item.UpdatedAt.IsZero())
}

func TestValidate_Success(t *testing.T) {
	item := NewInventoryItem("Ethanol 95%")
	item.ItemType = ItemTypeChemical
	item.CurrentQuantity = 10
	item.MinimumQuantity = 2
	item.Cost = 14.50

	assert.NoError(t, item.Validate())
}

func TestValidate_Error_MissingName(t *testing.T) {
	item := NewInventoryItem("")

	err := item.Validate()

	assert.Error(t, err)
	assert.Equal(t, ErrNameRequired, err)
}

func TestValidate_Error_NegativeQuantity(t *testing.T) {
	item := NewInventoryItem("Pipette Tips")
	item.CurrentQuantity = -1

	err := item.Validate()

	assert.Error(t, err)
	assert.Equal(t, ErrNegativeQuantity, err)
}

func TestValidate_Error_NegativeCost(t *testing.T) {
	item := NewInventoryItem("Pipette Tips")
	item.Cost = -0.01

	err := item.Validate()

	assert.Error(t, err)
	assert.Equal(t, ErrNegativeCost, err)
}

func TestValidate_Error_InvalidItemType(t *testing.T) {
	item := NewInventoryItem("Pipette Tips")
	item.ItemType = "Furniture"

	err := item.Validate()

	assert.Error(t, err)
	assert.Equal(t, ErrInvalidItemType, err)
}

func TestIsValidItemType(t *testing.T) {
	assert.True(t, IsValidItemType(ItemTypeReagent))
	assert.True(t, IsValidItemType(ItemTypeEquipment))
	assert.True(t, IsValidItemType(ItemTypeConsumable))
	assert.True(t, IsValidItemType(ItemTypeTool))
	assert.True(t, IsValidItemType(ItemTypeChemical))
	assert.True(t, IsValidItemType(ItemTypeOther))
	assert.False(t, IsValidItemType("Furniture"))
	assert.False(t, IsValidItemType(""))
}

func TestIsValidChangeType(t *testing.T) {
	assert.True(t, IsValidChangeType(ChangeItemCreated))
	assert.True(t, IsValidChangeType(ChangeItemUpdated))
	assert.True(t, IsValidChangeType(ChangeQuantityChange))
	assert.True(t, IsValidChangeType(ChangeQuantityConsumed))
	assert.True(t, IsValidChangeType(ChangeItemUsed))
	assert.True(t, IsValidChangeType(ChangeOrderPlaced))
	assert.True(t, IsValidChangeType(ChangeCycleCount))
	assert.True(t, IsValidChangeType(ChangeItemDeleted))
	assert.False(t, IsValidChangeType("stock_adjusted"))
	assert.False(t, IsValidChangeType(""))
}

func TestNewHistoryRecord(t *testing.T) {
	itemID := uuid.New()

	record := NewHistoryRecord(itemID, "Nitrile Gloves", ChangeItemCreated)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, itemID, record.ItemID)
	assert.Equal(t, "Nitrile Gloves", record.ItemName)
	assert.Equal(t, ChangeItemCreated, record.ChangeType)
	assert.Nil(t, record.PreviousQuantity)
	assert.Nil(t, record.NewQuantity)
	assert.Nil(t, record.QuantityChange)
	assert.False(t, record.ChangeDate.IsZero())
}

func TestHistoryRecord_WithQuantities(t *testing.T) {
	record := NewHistoryRecord(uuid.New(), "Nitrile Gloves", ChangeQuantityChange).
		WithQuantities(10, 3)

	assert.Equal(t, 10, *record.PreviousQuantity)
	assert.Equal(t, 3, *record.NewQuantity)
	assert.Equal(t, -7, *record.QuantityChange)
}
