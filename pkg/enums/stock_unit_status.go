package enums

import "fmt"

// StockUnitStatus tracks where an individual physical unit sits in its lifecycle.
type StockUnitStatus string

const (
	StockUnitStatusInStock        StockUnitStatus = "IN_STOCK"
	StockUnitStatusOnDisplay      StockUnitStatus = "ON_DISPLAY"
	StockUnitStatusReserved       StockUnitStatus = "RESERVED"
	StockUnitStatusAwaitingPickup StockUnitStatus = "AWAITING_PICKUP"
	StockUnitStatusSold           StockUnitStatus = "SOLD"
	StockUnitStatusDamaged        StockUnitStatus = "DAMAGED"
)

var validStockUnitStatuses = []StockUnitStatus{
	StockUnitStatusInStock,
	StockUnitStatusOnDisplay,
	StockUnitStatusReserved,
	StockUnitStatusAwaitingPickup,
	StockUnitStatusSold,
	StockUnitStatusDamaged,
}

var stockUnitTransitions = map[StockUnitStatus][]StockUnitStatus{
	StockUnitStatusInStock:        {StockUnitStatusOnDisplay, StockUnitStatusReserved, StockUnitStatusSold},
	StockUnitStatusOnDisplay:      {StockUnitStatusInStock, StockUnitStatusSold},
	StockUnitStatusReserved:       {StockUnitStatusAwaitingPickup, StockUnitStatusInStock},
	StockUnitStatusAwaitingPickup: {StockUnitStatusSold, StockUnitStatusInStock},
	StockUnitStatusSold:           {StockUnitStatusInStock, StockUnitStatusDamaged},
}

// String implements fmt.Stringer.
func (s StockUnitStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockUnitStatus.
func (s StockUnitStatus) IsValid() bool {
	for _, candidate := range validStockUnitStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the ledger allows moving a unit from s to next.
func (s StockUnitStatus) CanTransitionTo(next StockUnitStatus) bool {
	for _, candidate := range stockUnitTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Sellable reports whether a point-of-sale transaction may consume a unit in this status.
func (s StockUnitStatus) Sellable() bool {
	switch s {
	case StockUnitStatusInStock, StockUnitStatusOnDisplay, StockUnitStatusAwaitingPickup:
		return true
	}
	return false
}

// ParseStockUnitStatus converts raw input into a StockUnitStatus.
func ParseStockUnitStatus(value string) (StockUnitStatus, error) {
	for _, candidate := range validStockUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock unit status %q", value)
}
