package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// OrderCreatedEvent announces a new pickup order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	PickupStoreID uuid.UUID       `json:"pickup_store_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	LineCount     int             `json:"line_count"`
}

// OrderStatusChangedEvent is emitted after every committed order status write.
type OrderStatusChangedEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	PickupStoreID uuid.UUID         `json:"pickup_store_id"`
	From          enums.OrderStatus `json:"from"`
	To            enums.OrderStatus `json:"to"`
	UnitsAffected int               `json:"units_affected"`
}

// DeliveryCreatedEvent announces inbound supply.
type DeliveryCreatedEvent struct {
	DeliveryID   uuid.UUID  `json:"delivery_id"`
	StoreID      *uuid.UUID `json:"store_id,omitempty"`
	SupplierName string     `json:"supplier_name,omitempty"`
	LineCount    int        `json:"line_count"`
	TotalUnits   int        `json:"total_units"`
	Automatic    bool       `json:"automatic"`
}

// DeliveryStatusChangedEvent is emitted by manual updates and by the progression job.
type DeliveryStatusChangedEvent struct {
	DeliveryID uuid.UUID            `json:"delivery_id"`
	From       enums.DeliveryStatus `json:"from"`
	To         enums.DeliveryStatus `json:"to"`
}

// StockUnitBatch counts the units one delivery line produced.
type StockUnitBatch struct {
	ProductID uuid.UUID `json:"product_id"`
	StoreID   uuid.UUID `json:"store_id"`
	Quantity  int       `json:"quantity"`
}

// StockUnitsCreatedEvent is emitted once when a delivery completes.
type StockUnitsCreatedEvent struct {
	DeliveryID uuid.UUID        `json:"delivery_id"`
	Batches    []StockUnitBatch `json:"batches"`
}

// SaleItem is one sold unit.
type SaleItem struct {
	UnitID    uuid.UUID       `json:"unit_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
}

// SaleRecordedEvent is emitted for order pickups and point-of-sale transactions.
type SaleRecordedEvent struct {
	TransactionID uuid.UUID          `json:"transaction_id"`
	StoreID       uuid.UUID          `json:"store_id"`
	OrderID       *uuid.UUID         `json:"order_id,omitempty"`
	DocumentType  enums.DocumentType `json:"document_type"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Items         []SaleItem         `json:"items"`
}

// ReturnCreatedEvent announces a pending return claim.
type ReturnCreatedEvent struct {
	ReturnID      uuid.UUID   `json:"return_id"`
	TransactionID uuid.UUID   `json:"transaction_id"`
	UnitIDs       []uuid.UUID `json:"unit_ids"`
}

// ReturnResolvedEvent reports the outcome of a return review.
type ReturnResolvedEvent struct {
	ReturnID      uuid.UUID          `json:"return_id"`
	TransactionID uuid.UUID          `json:"transaction_id"`
	Status        enums.ReturnStatus `json:"status"`
	Restocked     int                `json:"restocked"`
	Damaged       int                `json:"damaged"`
}
