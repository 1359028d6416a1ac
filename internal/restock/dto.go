package restock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StoreSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	City    string    `json:"city"`
}

type ProductSuggestion struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	QuantityNeeded int64     `json:"quantity_needed"`
	CurrentStock   int64     `json:"current_stock"`
}

// StoreSuggestion groups the deficits of one store.
type StoreSuggestion struct {
	Store    StoreSummary        `json:"store"`
	Products []ProductSuggestion `json:"products"`
}

type LowStockItem struct {
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	CurrentStock      int64           `json:"current_stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	MinimumStock      int             `json:"minimum_stock"`
	QuantityNeeded    int64           `json:"quantity_needed"`
	BasePrice         decimal.Decimal `json:"-"`
}
