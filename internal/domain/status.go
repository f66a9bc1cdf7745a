package domain

import (
	"math"
	"sort"
	"time"
)

// Status derivation rules. These exist exactly once, server-side; every
// endpoint that reports "low" or "cycle count due" goes through here.

// IsLowStock reports whether the item is below its minimum threshold.
// Strict comparison: equal-to-minimum is not low.
func IsLowStock(item *InventoryItem) bool {
	return item.CurrentQuantity < item.MinimumQuantity
}

// daysBetween returns the floor of the absolute difference in whole days
func daysBetween(a, b time.Time) int {
	return int(math.Abs(b.Sub(a).Hours()) / 24)
}

// DaysSinceLastUse returns the whole days since the item was last used.
// The second return is false when the item has never been used.
func DaysSinceLastUse(item *InventoryItem, now time.Time) (int, bool) {
	if item.LastUsedDate == nil {
		return 0, false
	}
	return daysBetween(*item.LastUsedDate, now), true
}

// DaysSinceCycleCount returns the whole days since the last cycle count.
// The second return is false when the item has never been counted.
func DaysSinceCycleCount(item *InventoryItem, now time.Time) (int, bool) {
	if item.LastCycleCount == nil {
		return 0, false
	}
	return daysBetween(*item.LastCycleCount, now), true
}

// IsCycleCountDue reports whether a cycle count is due. A never-counted
// item is always due; otherwise the interval boundary is inclusive.
func IsCycleCountDue(item *InventoryItem, now time.Time) bool {
	days, counted := DaysSinceCycleCount(item, now)
	if !counted {
		return true
	}
	return days >= item.CycleCountInterval
}

// IsCycleCountWarning reports whether the item is approaching its cycle
// count (at least 80% of the interval elapsed but not yet due).
func IsCycleCountWarning(item *InventoryItem, now time.Time) bool {
	days, counted := DaysSinceCycleCount(item, now)
	if !counted {
		return false
	}
	if days >= item.CycleCountInterval {
		return false
	}
	return float64(days) >= 0.8*float64(item.CycleCountInterval)
}

// RecentOrderCount counts orders placed within the item's order frequency
// period ending at now.
func RecentOrderCount(item *InventoryItem, now time.Time) int {
	cutoff := now.AddDate(0, 0, -item.OrderFrequencyPeriod)
	count := 0
	for _, placed := range item.OrderHistory {
		if !placed.Before(cutoff) {
			count++
		}
	}
	return count
}

// SortByCycleCountPriority orders items for the cycle count worklist:
// never-counted items first (name ascending among them), then by
// descending days since last count.
func SortByCycleCountPriority(items []*InventoryItem, now time.Time) {
	sort.SliceStable(items, func(a, b int) bool {
		daysA, countedA := DaysSinceCycleCount(items[a], now)
		daysB, countedB := DaysSinceCycleCount(items[b], now)

		if !countedA && !countedB {
			return items[a].Name < items[b].Name
		}
		if !countedA {
			return true
		}
		if !countedB {
			return false
		}
		return daysA > daysB
	})
}
