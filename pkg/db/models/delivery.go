package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// Delivery is a supplier shipment batch that materializes stock units on completion.
type Delivery struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierName *string              `gorm:"column:supplier_name"`
	DeliveryDate time.Time            `gorm:"column:delivery_date;type:date;not null"`
	StoreID      *uuid.UUID           `gorm:"column:store_id;type:uuid"`
	Status       enums.DeliveryStatus `gorm:"column:status;type:text;not null"`
	Lines        []DeliveryLine       `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

type DeliveryLine struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DeliveryID    uuid.UUID       `gorm:"column:delivery_id;type:uuid;not null"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	StoreID       *uuid.UUID      `gorm:"column:store_id;type:uuid"`
	Quantity      int             `gorm:"column:quantity;not null"`
	PurchasePrice decimal.Decimal `gorm:"column:purchase_price;type:numeric(12,2);not null"`
}

// DestinationStore resolves where a line's units land: the line store, else the batch store.
func (l DeliveryLine) DestinationStore(d Delivery) *uuid.UUID {
	if l.StoreID != nil {
		return l.StoreID
	}
	return d.StoreID
}
