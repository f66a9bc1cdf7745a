package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/cache"
	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/events"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"
	"github.com/SebbyH09/VFPInventory.github.io/internal/service"
	"github.com/SebbyH09/VFPInventory.github.io/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockItemRepository is a mock implementation of repository.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) List(ctx context.Context, sort repository.ItemSort) ([]*domain.InventoryItem, error) {
	args := m.Called(ctx, sort)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) ListRefs(ctx context.Context) ([]domain.ItemRef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ItemRef), args.Error(1)
}

func (m *MockItemRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) ConsumeQuantity(ctx context.Context, id uuid.UUID, amount int, usedAt time.Time, expectedVersion int) error {
	args := m.Called(ctx, id, amount, usedAt, expectedVersion)
	return args.Error(0)
}

func (m *MockItemRepository) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time, expectedVersion int) error {
	args := m.Called(ctx, id, usedAt, expectedVersion)
	return args.Error(0)
}

func (m *MockItemRepository) RecordOrder(ctx context.Context, id uuid.UUID, orderedAt time.Time, expectedVersion int) error {
	args := m.Called(ctx, id, orderedAt, expectedVersion)
	return args.Error(0)
}

func (m *MockItemRepository) RecordCycleCount(ctx context.Context, id uuid.UUID, countedAt time.Time, newQuantity *int, expectedVersion int) error {
	args := m.Called(ctx, id, countedAt, newQuantity, expectedVersion)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockHistoryRepository is a mock implementation of repository.HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Insert(ctx context.Context, record *domain.HistoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockHistoryRepository) Query(ctx context.Context, filter repository.HistoryFilter) ([]*domain.HistoryRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoryRecord), args.Error(1)
}

func (m *MockHistoryRepository) Summarize(ctx context.Context, start, end time.Time) ([]domain.ItemSummary, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ItemSummary), args.Error(1)
}

// testEnv wires handlers against mocked repositories with the real
// service, in-memory cache and publisher behind them
type testEnv struct {
	router  *gin.Engine
	items   *MockItemRepository
	history *MockHistoryRepository
	cache   cache.Cache
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	mockItems := new(MockItemRepository)
	mockHistory := new(MockHistoryRepository)
	cacheStore := cache.NewInMemoryCache(logger)
	publisher := events.NewInMemoryEventPublisher(logger)
	svc := service.NewInventoryService(mockItems, mockHistory, publisher, cacheStore, logger)

	inventoryHandler := NewInventoryHandler(svc, mockItems, cacheStore, 300, logger)
	consumeHandler := NewConsumeHandler(svc, mockItems, cacheStore, 300, logger)
	historyHandler := NewHistoryHandler(mockHistory, mockItems, logger)
	dashboardHandler := NewDashboardHandler(mockItems, cacheStore, 300, logger)
	uploadHandler := NewUploadHandler(svc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Next()
	})
	router.Use(middleware.ErrorHandler(logger))

	entry := router.Group("/entry")
	{
		entry.POST("", inventoryHandler.SaveEntries)
		entry.GET("/items", inventoryHandler.ListItems)
		entry.DELETE("/:id", inventoryHandler.DeleteItem)
		entry.POST("/mark-used", inventoryHandler.MarkUsed)
		entry.POST("/record-order", inventoryHandler.RecordOrder)
		entry.POST("/cycle-count", inventoryHandler.CycleCount)
		entry.POST("/update-cycle-count", inventoryHandler.UpdateCycleCount)
	}

	consume := router.Group("/consume")
	{
		consume.POST("", consumeHandler.Consume)
		consume.GET("/items", consumeHandler.ListItems)
	}

	history := router.Group("/history")
	{
		history.GET("/data", historyHandler.Query)
		history.GET("/summary", historyHandler.Summarize)
		history.GET("/items", historyHandler.ListItems)
	}

	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("/cycle-counts", dashboardHandler.CycleCounts)
		dashboard.GET("/low-stock", dashboardHandler.LowStock)
	}

	router.POST("/upload", uploadHandler.Upload)

	return &testEnv{
		router:  router,
		items:   mockItems,
		history: mockHistory,
		cache:   cacheStore,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	assert.NoError(t, err)

	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func entryRow(name string) []interface{} {
	return []interface{}{name, "BrandCo", "VendorCo", "CAT-1", 10, 2, 50, "Shelf A", "reagent", 4.5, 90, 30, true}
}

func existingItem(quantity int) *domain.InventoryItem {
	item := domain.NewInventoryItem("Nitrile Gloves")
	item.CurrentQuantity = quantity
	item.MinimumQuantity = 5
	return item
}

func TestSaveEntries_CreatesFromPositionalRows(t *testing.T) {
	env := setupTestEnv(t)

	env.items.On("Create", mock.Anything, mock.AnythingOfType("*domain.InventoryItem")).Return(nil)
	env.history.On("Insert", mock.Anything, mock.AnythingOfType("*domain.HistoryRecord")).Return(nil)

	w := env.postJSON(t, "/entry", gin.H{
		"newItems": [][]interface{}{entryRow("Ethanol 70%"), entryRow("Agar Plates")},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	results := response["results"].(map[string]interface{})
	assert.Equal(t, float64(2), results["newCount"])
	assert.Equal(t, float64(0), results["updatedCount"])
	assert.Empty(t, results["errors"])
	env.items.AssertNumberOfCalls(t, "Create", 2)
}

func TestSaveEntries_MalformedRowFailsSoft(t *testing.T) {
	env := setupTestEnv(t)

	env.items.On("Create", mock.Anything, mock.AnythingOfType("*domain.InventoryItem")).Return(nil)
	env.history.On("Insert", mock.Anything, mock.AnythingOfType("*domain.HistoryRecord")).Return(nil)

	w := env.postJSON(t, "/entry", gin.H{
		"newItems": [][]interface{}{
			entryRow("Ethanol 70%"),
			{"Short Row"}, // wrong width
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	results := response["results"].(map[string]interface{})
	assert.Equal(t, float64(1), results["newCount"])
	errors := results["errors"].([]interface{})
	assert.Len(t, errors, 1)
	env.items.AssertNumberOfCalls(t, "Create", 1)
}

func TestSaveEntries_UpdatesExistingItems(t *testing.T) {
	env := setupTestEnv(t)
	item := existingItem(10)

	env.items.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	env.items.On("Update", mock.Anything, mock.AnythingOfType("*domain.InventoryItem")).Return(nil)
	env.history.On("Insert", mock.Anything, mock.AnythingOfType("*domain.HistoryRecord")).Return(nil)

	newQuantity := 25
	w := env.postJSON(t, "/entry", gin.H{
		"updatedItems": []service.ItemUpdate{
			{ID: item.ID.String(), Changes: service.ItemChanges{CurrentQuantity: &newQuantity}},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	results := response["results"].(map[string]interface{})
	assert.Equal(t, float64(1), results["updatedCount"])
	assert.Empty(t, results["errors"])
}

func TestSaveEntries_EmptyPayloadRejected(t *testing.T) {
	env := setupTestEnv(t)

	w := env.postJSON(t, "/entry", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "InvalidRequest", response["error"])
}

func TestListEntryItems_NewestFirst(t *testing.T) {
	env := setupTestEnv(t)
	items := []*domain.InventoryItem{existingItem(10), existingItem(3)}

	env.items.On("List", mock.Anything, repository.ItemSortCreatedDesc).Return(items, nil).Once()

	w := env.get("/entry/items")
	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, float64(2), response["count"])

	// second read is served from cache
	w = env.get("/entry/items")
	assert.Equal(t, http.StatusOK, w.Code)
	env.items.AssertNumberOfCalls(t, "List", 1)
}

func TestDeleteItem_Success(t *testing.T) {
	env := setupTestEnv(t)
	item := existingItem(10)

	env.items.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	env.items.On("Delete", mock.Anything, item.ID).Return(nil)
	env.history.On("Insert", mock.Anything, mock.AnythingOfType("*domain.HistoryRecord")).Return(nil)

	req, _ := http.NewRequest("DELETE", "/entry/"+item.ID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "Item deleted", response["message"])
	deleted := response["deletedItem"].(map[string]interface{})
	assert.Equal(t, item.Name, deleted["name"])
}

func TestDeleteItem_MalformedID(t *testing.T) {
	env := setupTestEnv(t)

	req, _ := http.NewRequest("DELETE", "/entry/not-a-uuid", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteItem_NotFound(t *testing.T) {
	env := setupTestEnv(t)
	id := uuid.New()

	env.items.On("GetByID", mock.Anything, id).Return(nil, repository.ErrItemNotFound)

	req, _ := http.NewRequest("DELETE", "/entry/"+id.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "ItemNotFound", response["error"])
}

func TestMarkUsed_ReturnsUpdatedItem(t *testing.T) {
	env := setupTestEnv(t)
	item := existingItem(10)

	env.items.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	env.items.On("MarkUsed", mock.Anything, item.ID, mock.AnythingOfType("time.Time"), 1).Return(nil)
	env.history.On("Insert", mock.Anything, mock.AnythingOfType("*domain.HistoryRecord")).Return(nil)

	w := env.postJSON(t, "/entry/mark-used", gin.H{"itemId": item.ID.String()})

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "Item marked as used", response["message"])
	updated := response["item"].(map[string]interface{})
	assert.NotNil(t, updated["lastUsedDate"])
}

func TestMarkUsed_UnknownItem(t *testing.T) {
	env := setupTestEnv(t)
	id := uuid.New()

	env.items.On("GetByID", mock.Anything, id).Return(nil, repository.ErrItemNotFound)

	w := env.postJSON(t, "/entry/mark-used", gin.H{"itemId": id.String()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordOrder_AppendsOrder(t *testing.T) {
	env := setupTestEnv(t)
	item := existingItem(10)

	env.items.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	env.items.On("RecordOrder", mock.Anything, item.ID, mock.AnythingOfType("time.Time"), 1).Return(nil)
	env.history.On("Insert", mock.Anything, mock.AnythingOfType("*domain.HistoryRecord")).Return(nil)

	w := env.postJSON(t, "/entry/record-order", gin.H{"itemId": item.ID.String()})

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	updated := response["item"].(map[string]interface{})
	orders := updated["orderHistory"].([]interface{})
	assert.Len(t, orders, 1)
}

func TestCycleCount_WithoutRecount(t *testing.T) {
	env := setupTestEnv(t)
	item := existingItem(10)

	env.items.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	env.items.On("RecordCycleCount", mock.Anything, item.ID, mock.AnythingOfType("time.Time"), (*int)(nil), 1).Return(nil)
	env.history.On("Insert", mock.Anything, mock.AnythingOfType("*domain.HistoryRecord")).Return(nil)

	w := env.postJSON(t, "/entry/cycle-count", gin.H{"itemId": item.ID.String()})

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	updated := response["item"].(map[string]interface{})
	assert.NotNil(t, updated["lastCycleCount"])
	assert.Equal(t, float64(10), updated["currentQuantity"])
}

func TestUpdateCycleCount_Recounts(t *testing.T) {
	env := setupTestEnv(t)
	item := existingItem(10)

	env.items.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	env.items.On("RecordCycleCount", mock.Anything, item.ID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("*int"), 1).Return(nil)
	env.history.On("Insert", mock.Anything, mock.AnythingOfType("*domain.HistoryRecord")).Return(nil)

	w := env.postJSON(t, "/entry/update-cycle-count", gin.H{
		"itemId":      item.ID.String(),
		"newQuantity": 8,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	updated := response["item"].(map[string]interface{})
	assert.Equal(t, float64(8), updated["currentQuantity"])
}

func TestUpdateCycleCount_MissingQuantityRejected(t *testing.T) {
	env := setupTestEnv(t)

	w := env.postJSON(t, "/entry/update-cycle-count", gin.H{"itemId": uuid.New().String()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
