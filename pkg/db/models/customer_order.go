package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// CustomerOrder is a reserve-then-pickup purchase intent.
type CustomerOrder struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	PickupStoreID uuid.UUID         `gorm:"column:pickup_store_id;type:uuid;not null"`
	OrderDate     time.Time         `gorm:"column:order_date;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null"`
	TotalAmount   decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Lines         []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (CustomerOrder) TableName() string { return "customer_orders" }

// OrderLine carries the price frozen at order time.
type OrderLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	LineNo    int             `gorm:"column:line_no;not null;default:0"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}

// LineTotal is price times quantity.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
