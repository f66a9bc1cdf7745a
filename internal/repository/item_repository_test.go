package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/config"
	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *SingleWriterDB {
	t.Helper()

	cfg := &config.Config{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := NewSingleWriterDB(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func newTestItem(name string) *domain.InventoryItem {
	item := domain.NewInventoryItem(name)
	item.Brand = "Fisher"
	item.Vendor = "Fisher Scientific"
	item.CatalogNumber = "FS-1001"
	item.CurrentQuantity = 10
	item.MinimumQuantity = 5
	item.MaximumQuantity = 50
	item.Location = "Shelf A3"
	item.ItemType = domain.ItemTypeConsumable
	item.Cost = 12.99
	return item
}

func TestCreateAndGetItem(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)

	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "Nitrile Gloves", got.Name)
	assert.Equal(t, "Fisher", got.Brand)
	assert.Equal(t, 10, got.CurrentQuantity)
	assert.Equal(t, 5, got.MinimumQuantity)
	assert.Equal(t, domain.ItemTypeConsumable, got.ItemType)
	assert.Equal(t, 12.99, got.Cost)
	assert.Equal(t, 1, got.Version)
	assert.Nil(t, got.LastUsedDate)
	assert.Nil(t, got.LastCycleCount)
	assert.Empty(t, got.OrderHistory)
}

func TestGetItem_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())

	_, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestList_NameAscending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	for _, name := range []string{"Pipette Tips", "Agar Plates", "ethanol"} {
		require.NoError(t, repo.Create(ctx, newTestItem(name)))
	}

	items, err := repo.List(ctx, ItemSortNameAsc)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Agar Plates", items[0].Name)
	assert.Equal(t, "ethanol", items[1].Name)
	assert.Equal(t, "Pipette Tips", items[2].Name)
}

func TestListRefs_NameAscending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestItem("Pipette Tips")))
	require.NoError(t, repo.Create(ctx, newTestItem("Agar Plates")))

	refs, err := repo.ListRefs(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "Agar Plates", refs[0].Name)
	assert.Equal(t, "Pipette Tips", refs[1].Name)
}

func TestUpdate_Success(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	item.Location = "Shelf B1"
	item.CurrentQuantity = 25
	require.NoError(t, repo.Update(ctx, item))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shelf B1", got.Location)
	assert.Equal(t, 25, got.CurrentQuantity)
	assert.Equal(t, 2, got.Version)
}

func TestUpdate_VersionConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	stale := *item
	stale.Version = 99

	err := repo.Update(ctx, &stale)

	assert.ErrorIs(t, err, ErrOptimisticLockFailed)
}

func TestConsumeQuantity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	usedAt := time.Now()
	require.NoError(t, repo.ConsumeQuantity(ctx, item.ID, 7, usedAt, 1))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentQuantity)
	assert.NotNil(t, got.LastUsedDate)
	assert.Equal(t, 2, got.Version)
}

func TestConsumeQuantity_ClampsAtZero(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	item.CurrentQuantity = 3
	require.NoError(t, repo.Create(ctx, item))

	require.NoError(t, repo.ConsumeQuantity(ctx, item.ID, 5, time.Now(), 1))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentQuantity)
}

func TestConsumeQuantity_VersionConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	err := repo.ConsumeQuantity(ctx, item.ID, 1, time.Now(), 99)

	assert.ErrorIs(t, err, ErrOptimisticLockFailed)
}

func TestMarkUsed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	usedAt := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.MarkUsed(ctx, item.ID, usedAt, 1))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedDate)
	assert.True(t, got.LastUsedDate.Equal(usedAt))
	assert.Equal(t, 10, got.CurrentQuantity) // quantity untouched
}

func TestRecordOrder_AppendsToOrderHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	first := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	second := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordOrder(ctx, item.ID, first, 1))
	require.NoError(t, repo.RecordOrder(ctx, item.ID, second, 2))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, got.OrderHistory, 2)
	assert.True(t, got.OrderHistory[0].Equal(first))
	assert.True(t, got.OrderHistory[1].Equal(second))
}

func TestRecordCycleCount_Standalone(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	countedAt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordCycleCount(ctx, item.ID, countedAt, nil, 1))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCycleCount)
	assert.True(t, got.LastCycleCount.Equal(countedAt))
	assert.Equal(t, 10, got.CurrentQuantity) // quantity untouched
}

func TestRecordCycleCount_WithRecount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	newQuantity := 8
	require.NoError(t, repo.RecordCycleCount(ctx, item.ID, time.Now(), &newQuantity, 1))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCycleCount)
	assert.Equal(t, 8, got.CurrentQuantity)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())
	ctx := context.Background()

	item := newTestItem("Nitrile Gloves")
	require.NoError(t, repo.Create(ctx, item))

	require.NoError(t, repo.Delete(ctx, item.ID))

	_, err := repo.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteItemRepository(db, zap.NewNop())

	err := repo.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrItemNotFound)
}
