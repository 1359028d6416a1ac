package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is never counted here; see StockUnit.
type Product struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID        *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Name              string          `gorm:"column:name;not null"`
	BasePrice         decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null"`
	MinimumStock      int             `gorm:"column:minimum_stock;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
