package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ChangeType enumerates every mutation intent recorded in the history ledger.
// The set is closed: Insert rejects anything outside it.
type ChangeType string

const (
	ChangeItemCreated      ChangeType = "item_created"
	ChangeItemUpdated      ChangeType = "item_updated"
	ChangeQuantityChange   ChangeType = "quantity_change"
	ChangeQuantityConsumed ChangeType = "quantity_consumed"
	ChangeItemUsed         ChangeType = "item_used"
	ChangeOrderPlaced      ChangeType = "order_placed"
	ChangeCycleCount       ChangeType = "cycle_count"
	ChangeItemDeleted      ChangeType = "item_deleted"
)

// IsValidChangeType reports whether t is a member of the closed enumeration
func IsValidChangeType(t ChangeType) bool {
	switch t {
	case ChangeItemCreated, ChangeItemUpdated, ChangeQuantityChange, ChangeQuantityConsumed,
		ChangeItemUsed, ChangeOrderPlaced, ChangeCycleCount, ChangeItemDeleted:
		return true
	}
	return false
}

// HistoryRecord is one immutable entry in the inventory change ledger.
// The item name is denormalized so the record survives item deletion.
type HistoryRecord struct {
	ID               uuid.UUID  `json:"id"`
	ItemID           uuid.UUID  `json:"itemId"`
	ItemName         string     `json:"itemName"`
	ChangeType       ChangeType `json:"changeType"`
	PreviousQuantity *int       `json:"previousQuantity"`
	NewQuantity      *int       `json:"newQuantity"`
	QuantityChange   *int       `json:"quantityChange"`
	CostPerUnit      *float64   `json:"costPerUnit"`
	TotalCost        *float64   `json:"totalCost"`
	ChangeDate       time.Time  `json:"changeDate"`
	Notes            string     `json:"notes"`
	UserID           string     `json:"userId"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// NewHistoryRecord creates a ledger entry dated now
func NewHistoryRecord(itemID uuid.UUID, itemName string, changeType ChangeType) *HistoryRecord {
	now := time.Now()
	return &HistoryRecord{
		ID:         uuid.New(),
		ItemID:     itemID,
		ItemName:   itemName,
		ChangeType: changeType,
		ChangeDate: now,
		CreatedAt:  now,
	}
}

// WithQuantities attaches the before/after state and signed delta
func (r *HistoryRecord) WithQuantities(previous, new int) *HistoryRecord {
	delta := new - previous
	r.PreviousQuantity = &previous
	r.NewQuantity = &new
	r.QuantityChange = &delta
	return r
}

// WithChangeDate overrides the change date (backdated mark-used, etc.)
func (r *HistoryRecord) WithChangeDate(date time.Time) *HistoryRecord {
	r.ChangeDate = date
	return r
}

// WithNotes attaches free-text notes
func (r *HistoryRecord) WithNotes(notes string) *HistoryRecord {
	r.Notes = notes
	return r
}

// WithCost prices the change at the item's unit cost. Call after the
// quantity fields are set: totalCost derives from the delta magnitude.
func (r *HistoryRecord) WithCost(costPerUnit float64) *HistoryRecord {
	r.CostPerUnit = &costPerUnit
	if r.QuantityChange != nil {
		total := costPerUnit * math.Abs(float64(*r.QuantityChange))
		r.TotalCost = &total
	}
	return r
}

// WithUserID records the acting principal, best-effort
func (r *HistoryRecord) WithUserID(userID string) *HistoryRecord {
	r.UserID = userID
	return r
}

// ItemSummary aggregates signed quantity deltas for one item over a period
type ItemSummary struct {
	ItemID        uuid.UUID `json:"itemId"`
	ItemName      string    `json:"itemName"`
	TotalUsed     int       `json:"totalUsed"`
	TotalAdded    int       `json:"totalAdded"`
	NetChange     int       `json:"netChange"`
	ChangeCount   int       `json:"changeCount"`
	TotalCostUsed float64   `json:"totalCostUsed"`
}
