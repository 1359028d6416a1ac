package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// Repository persists transactions and returns, plus the order status write a
// point-of-sale pickup needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.CustomerOrder, error)
	CompareAndSetOrderStatus(ctx context.Context, id uuid.UUID, expected, next enums.OrderStatus) (int64, error)
	CreateReturn(ctx context.Context, ret *models.Return) error
	FindReturn(ctx context.Context, id uuid.UUID) (*models.Return, error)
	UnitsOnReturns(ctx context.Context, unitIDs []uuid.UUID, statuses []enums.ReturnStatus) ([]uuid.UUID, error)
	CompareAndSetReturnStatus(ctx context.Context, id uuid.UUID, expected, next enums.ReturnStatus, resolvedAt time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Items").Create(txn).Error; err != nil {
		return err
	}
	if len(txn.Items) == 0 {
		return nil
	}
	for i := range txn.Items {
		if txn.Items[i].ID == uuid.Nil {
			txn.Items[i].ID = uuid.New()
		}
		txn.Items[i].TransactionID = txn.ID
	}
	return r.db.WithContext(ctx).Create(&txn.Items).Error
}

func (r *repository) FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.CustomerOrder, error) {
	var order models.CustomerOrder
	if err := r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("order_lines.line_no ASC") }).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CompareAndSetOrderStatus(ctx context.Context, id uuid.UUID, expected, next enums.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CustomerOrder{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateReturn(ctx context.Context, ret *models.Return) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Items").Create(ret).Error; err != nil {
		return err
	}
	for i := range ret.Items {
		if ret.Items[i].ID == uuid.Nil {
			ret.Items[i].ID = uuid.New()
		}
		ret.Items[i].ReturnID = ret.ID
	}
	if len(ret.Items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&ret.Items).Error
}

func (r *repository) FindReturn(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	var ret models.Return
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&ret).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

// UnitsOnReturns lists which of the units already sit on a return in one of the statuses.
func (r *repository) UnitsOnReturns(ctx context.Context, unitIDs []uuid.UUID, statuses []enums.ReturnStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(unitIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Table("return_items").
		Joins("JOIN returns ON returns.id = return_items.return_id").
		Where("return_items.unit_id IN ? AND returns.status IN ?", unitIDs, statuses).
		Pluck("return_items.unit_id", &ids).Error
	return ids, err
}

func (r *repository) CompareAndSetReturnStatus(ctx context.Context, id uuid.UUID, expected, next enums.ReturnStatus, resolvedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]any{
			"status":      next,
			"resolved_at": resolvedAt,
		})
	return res.RowsAffected, res.Error
}
