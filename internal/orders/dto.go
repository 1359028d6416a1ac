package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/internal/inventory"
	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// LineInput is one requested order line.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput carries a new pickup order.
type CreateInput struct {
	CustomerID         uuid.UUID
	PickupStoreID      uuid.UUID
	Lines              []LineInput
	IgnoreAvailability bool
}

type OrderLineDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	PickupStoreID uuid.UUID         `json:"pickup_store_id"`
	OrderDate     time.Time         `json:"order_date"`
	Status        enums.OrderStatus `json:"status"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Lines         []OrderLineDTO    `json:"lines"`
}

// StoreSummary is the pickup store shown with an order.
type StoreSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	City    string    `json:"city"`
}

// OrderDetail is the read model of a single order. HasShortage is only computed for NEW
// orders.
type OrderDetail struct {
	OrderDTO
	CustomerName string       `json:"customer_name"`
	PickupStore  StoreSummary `json:"pickup_store"`
	HasShortage  bool         `json:"has_shortage"`
}

// AvailabilityReport answers, per product, whether the pickup store can serve the request.
type AvailabilityReport struct {
	PickupStoreID uuid.UUID                   `json:"pickup_store_id"`
	Satisfied     bool                        `json:"satisfied"`
	Products      []inventory.AvailabilityDTO `json:"products"`
}

func fromModel(order models.CustomerOrder) OrderDTO {
	out := OrderDTO{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		PickupStoreID: order.PickupStoreID,
		OrderDate:     order.OrderDate,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		Lines:         make([]OrderLineDTO, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		out.Lines = append(out.Lines, OrderLineDTO{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			LineTotal: line.LineTotal(),
		})
	}
	return out
}
