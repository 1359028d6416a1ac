package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// StockUnit is one physical, individually tracked instance of a product.
// Product and store never change after creation; only Status and HeldOrderID move.
type StockUnit struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	StoreID     *uuid.UUID            `gorm:"column:store_id;type:uuid"`
	DeliveryID  *uuid.UUID            `gorm:"column:delivery_id;type:uuid"`
	HeldOrderID *uuid.UUID            `gorm:"column:held_order_id;type:uuid"`
	Status      enums.StockUnitStatus `gorm:"column:status;type:text;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
