package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// Repository defines persistence operations for customer orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.CustomerOrder) error
	UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.CustomerOrder, error)
	CompareAndSetStatus(ctx context.Context, orderID uuid.UUID, expected, next enums.OrderStatus) (int64, error)
	DemandByStoreProduct(ctx context.Context, status enums.OrderStatus) ([]Demand, error)
}

// Demand is the quantity ordered for one (store, product) across orders in one status.
type Demand struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
}

type saleFinalizer interface {
	FinalizeOrder(ctx context.Context, tx *gorm.DB, order *models.CustomerOrder) (*models.Transaction, error)
}
