package deliveries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// LineInput is one requested delivery line.
type LineInput struct {
	ProductID     uuid.UUID
	Quantity      int
	PurchasePrice decimal.Decimal
	StoreID       *uuid.UUID
}

// CreateInput carries a new delivery. Date defaults to today and the batch store to
// the first line's store.
type CreateInput struct {
	SupplierName *string
	DeliveryDate *time.Time
	StoreID      *uuid.UUID
	Lines        []LineInput
	Automatic    bool
}

// DeliveryLineDTO is the API shape of a delivery line.
type DeliveryLineDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	StoreID       *uuid.UUID      `json:"store_id,omitempty"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

// DeliveryDTO is the API shape of a delivery.
type DeliveryDTO struct {
	ID           uuid.UUID            `json:"id"`
	SupplierName *string              `json:"supplier_name,omitempty"`
	DeliveryDate time.Time            `json:"delivery_date"`
	StoreID      *uuid.UUID           `json:"store_id,omitempty"`
	Status       enums.DeliveryStatus `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	Lines        []DeliveryLineDTO    `json:"lines"`
}

// ProgressSummary reports one progression pass.
type ProgressSummary struct {
	Scanned  int
	Advanced int
	Failed   int
}

// FromModel maps a delivery model to its DTO.
func FromModel(d models.Delivery) DeliveryDTO {
	out := DeliveryDTO{
		ID:           d.ID,
		SupplierName: d.SupplierName,
		DeliveryDate: d.DeliveryDate,
		StoreID:      d.StoreID,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt,
		Lines:        make([]DeliveryLineDTO, 0, len(d.Lines)),
	}
	for _, line := range d.Lines {
		out.Lines = append(out.Lines, DeliveryLineDTO{
			ID:            line.ID,
			ProductID:     line.ProductID,
			StoreID:       line.StoreID,
			Quantity:      line.Quantity,
			PurchasePrice: line.PurchasePrice,
		})
	}
	return out
}
