package deliveries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// Repository persists deliveries and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	ListPending(ctx context.Context) ([]models.Delivery, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next enums.DeliveryStatus) (int64, error)
	PendingSupply(ctx context.Context) ([]Supply, error)
}

// Supply is the inbound quantity of one product for one resolved store.
type Supply struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a delivery repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the delivery row then its lines.
func (r *repository) Create(ctx context.Context, delivery *models.Delivery) error {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Lines").Create(delivery).Error; err != nil {
		return err
	}
	if len(delivery.Lines) == 0 {
		return nil
	}
	for i := range delivery.Lines {
		if delivery.Lines[i].ID == uuid.Nil {
			delivery.Lines[i].ID = uuid.New()
		}
		delivery.Lines[i].DeliveryID = delivery.ID
	}
	return r.db.WithContext(ctx).Create(&delivery.Lines).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

// ListPending returns every non-terminal delivery, oldest first.
func (r *repository) ListPending(ctx context.Context) ([]models.Delivery, error) {
	var rows []models.Delivery
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("status IN ?", enums.PendingDeliveryStatuses).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next enums.DeliveryStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	return res.RowsAffected, res.Error
}

// PendingSupply sums line quantities of non-terminal deliveries per resolved store and
// product. Lines with no resolvable store are skipped.
func (r *repository) PendingSupply(ctx context.Context) ([]Supply, error) {
	var rows []Supply
	err := r.db.WithContext(ctx).
		Table("delivery_lines").
		Select("COALESCE(delivery_lines.store_id, deliveries.store_id) AS store_id, delivery_lines.product_id AS product_id, SUM(delivery_lines.quantity) AS quantity").
		Joins("JOIN deliveries ON deliveries.id = delivery_lines.delivery_id").
		Where("deliveries.status IN ?", enums.PendingDeliveryStatuses).
		Where("COALESCE(delivery_lines.store_id, deliveries.store_id) IS NOT NULL").
		Group("COALESCE(delivery_lines.store_id, deliveries.store_id), delivery_lines.product_id").
		Scan(&rows).Error
	return rows, err
}
