package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// Transaction is the immutable record of a completed sale.
type Transaction struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID      uuid.UUID          `gorm:"column:store_id;type:uuid;not null"`
	CustomerID   *uuid.UUID         `gorm:"column:customer_id;type:uuid"`
	EmployeeID   *uuid.UUID         `gorm:"column:employee_id;type:uuid"`
	OrderID      *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	DocumentType enums.DocumentType `gorm:"column:document_type;type:text;not null"`
	TotalAmount  decimal.Decimal    `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Items        []TransactionItem  `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// TransactionItem binds one stock unit to its sold price.
type TransactionItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID uuid.UUID       `gorm:"column:transaction_id;type:uuid;not null"`
	UnitID        uuid.UUID       `gorm:"column:unit_id;type:uuid;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}
