package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order header then its lines.
func (r *repository) Create(ctx context.Context, order *models.CustomerOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Lines").Create(order).Error; err != nil {
		return err
	}
	if len(order.Lines) == 0 {
		return nil
	}
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(&order.Lines).Error
}

func (r *repository) UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerOrder{}).
		Where("id = ?", orderID).
		Update("total_amount", total).Error
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.CustomerOrder, error) {
	var order models.CustomerOrder
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("order_lines.line_no ASC").Order("order_lines.id ASC") }).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CompareAndSetStatus(ctx context.Context, orderID uuid.UUID, expected, next enums.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CustomerOrder{}).
		Where("id = ? AND status = ?", orderID, expected).
		Update("status", next)
	return res.RowsAffected, res.Error
}

// DemandByStoreProduct sums line quantities of orders in the given status per pickup
// store and product.
func (r *repository) DemandByStoreProduct(ctx context.Context, status enums.OrderStatus) ([]Demand, error) {
	var rows []Demand
	err := r.db.WithContext(ctx).
		Table("order_lines").
		Select("customer_orders.pickup_store_id AS store_id, order_lines.product_id AS product_id, SUM(order_lines.quantity) AS quantity").
		Joins("JOIN customer_orders ON customer_orders.id = order_lines.order_id").
		Where("customer_orders.status = ?", status).
		Group("customer_orders.pickup_store_id, order_lines.product_id").
		Scan(&rows).Error
	return rows, err
}
