package inventory

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// StockUnitDTO is the API shape of a single unit.
type StockUnitDTO struct {
	ID          uuid.UUID             `json:"id"`
	ProductID   uuid.UUID             `json:"product_id"`
	StoreID     *uuid.UUID            `json:"store_id,omitempty"`
	DeliveryID  *uuid.UUID            `json:"delivery_id,omitempty"`
	HeldOrderID *uuid.UUID            `json:"held_order_id,omitempty"`
	Status      enums.StockUnitStatus `json:"status"`
}

// StoreCountDTO is a unit count for one store.
type StoreCountDTO struct {
	StoreID uuid.UUID `json:"store_id"`
	Count   int64     `json:"count"`
}

// StatusCountsDTO reports a product's unit counts at one store per status.
type StatusCountsDTO struct {
	ProductID uuid.UUID                       `json:"product_id"`
	StoreID   uuid.UUID                       `json:"store_id"`
	Counts    map[enums.StockUnitStatus]int64 `json:"counts"`
}

// AvailabilityDTO answers whether a store can satisfy a requested quantity. Other
// stores are listed only when it cannot.
type AvailabilityDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	StoreID     uuid.UUID       `json:"store_id"`
	Requested   int             `json:"requested"`
	Available   int64           `json:"available"`
	Satisfied   bool            `json:"satisfied"`
	OtherStores []StoreCountDTO `json:"other_stores,omitempty"`
}

// FromModel maps a stock unit model to its DTO.
func FromModel(unit models.StockUnit) StockUnitDTO {
	return StockUnitDTO{
		ID:          unit.ID,
		ProductID:   unit.ProductID,
		StoreID:     unit.StoreID,
		DeliveryID:  unit.DeliveryID,
		HeldOrderID: unit.HeldOrderID,
		Status:      unit.Status,
	}
}
