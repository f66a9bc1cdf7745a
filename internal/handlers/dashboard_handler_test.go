package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func trackedItem(name string, daysSinceCount int) *domain.InventoryItem {
	item := domain.NewInventoryItem(name)
	item.UseCycleCount = true
	counted := time.Now().Add(-time.Duration(daysSinceCount) * 24 * time.Hour)
	item.LastCycleCount = &counted
	return item
}

func TestDashboardCycleCounts_FiltersAndOrders(t *testing.T) {
	env := setupTestEnv(t)

	neverCounted := domain.NewInventoryItem("Buffer")
	neverCounted.UseCycleCount = true

	overdue := trackedItem("Acetone", 120)
	approaching := trackedItem("Ethanol 70%", 80)
	fresh := trackedItem("Agar Plates", 5)

	notTracked := domain.NewInventoryItem("Beakers") // UseCycleCount false

	items := []*domain.InventoryItem{fresh, approaching, overdue, notTracked, neverCounted}
	env.items.On("List", mock.Anything, repository.ItemSortNameAsc).Return(items, nil).Once()

	w := env.get("/dashboard/cycle-counts")
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	data := response["data"].([]interface{})
	assert.Len(t, data, 3)

	first := data[0].(map[string]interface{})
	second := data[1].(map[string]interface{})
	third := data[2].(map[string]interface{})

	// never-counted first, then stalest
	assert.Equal(t, "Buffer", first["name"])
	assert.Equal(t, true, first["isDue"])
	assert.Nil(t, first["daysSinceCount"])

	assert.Equal(t, "Acetone", second["name"])
	assert.Equal(t, true, second["isDue"])

	assert.Equal(t, "Ethanol 70%", third["name"])
	assert.Equal(t, false, third["isDue"])
	assert.Equal(t, true, third["isWarning"])
}

func TestDashboardCycleCounts_ServedFromCache(t *testing.T) {
	env := setupTestEnv(t)

	env.items.On("List", mock.Anything, repository.ItemSortNameAsc).
		Return([]*domain.InventoryItem{}, nil).Once()

	w := env.get("/dashboard/cycle-counts")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.get("/dashboard/cycle-counts")
	assert.Equal(t, http.StatusOK, w.Code)
	env.items.AssertNumberOfCalls(t, "List", 1)
}

func TestDashboardLowStock_StrictThreshold(t *testing.T) {
	env := setupTestEnv(t)

	low := domain.NewInventoryItem("Nitrile Gloves")
	low.CurrentQuantity = 2
	low.MinimumQuantity = 5
	low.OrderHistory = []time.Time{
		time.Now().Add(-5 * 24 * time.Hour),  // recent
		time.Now().Add(-60 * 24 * time.Hour), // outside the period
	}

	atMinimum := domain.NewInventoryItem("Pipette Tips")
	atMinimum.CurrentQuantity = 5
	atMinimum.MinimumQuantity = 5

	healthy := domain.NewInventoryItem("Beakers")
	healthy.CurrentQuantity = 20
	healthy.MinimumQuantity = 5

	items := []*domain.InventoryItem{low, atMinimum, healthy}
	env.items.On("List", mock.Anything, repository.ItemSortNameAsc).Return(items, nil).Once()

	w := env.get("/dashboard/low-stock")
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	data := response["data"].([]interface{})
	assert.Len(t, data, 1)

	entry := data[0].(map[string]interface{})
	assert.Equal(t, "Nitrile Gloves", entry["name"])
	assert.Equal(t, true, entry["isLowStock"])
	assert.Equal(t, float64(1), entry["recentOrderCount"])
}
