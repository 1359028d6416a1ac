package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// Repository persists stock units. Status writes go through CompareAndSet only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateUnits(ctx context.Context, units []models.StockUnit) error
	FindUnit(ctx context.Context, id uuid.UUID) (*models.StockUnit, error)
	FindUnits(ctx context.Context, ids []uuid.UUID) ([]models.StockUnit, error)
	CountByStatus(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus) (int64, error)
	ListByStatus(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus, limit int) ([]models.StockUnit, error)
	ListHeld(ctx context.Context, orderID, productID uuid.UUID, status enums.StockUnitStatus, limit int) ([]models.StockUnit, error)
	CountHeld(ctx context.Context, orderID uuid.UUID, statuses []enums.StockUnitStatus) (map[uuid.UUID]int64, error)
	CountByStore(ctx context.Context, productID uuid.UUID, statuses []enums.StockUnitStatus) (map[uuid.UUID]int64, error)
	CountByStoreProduct(ctx context.Context, status enums.StockUnitStatus) ([]StockCount, error)
	CompareAndSet(ctx context.Context, id uuid.UUID, expected, next enums.StockUnitStatus, heldOrderID *uuid.UUID) (int64, error)
}

// StockCount is one (store, product) aggregate.
type StockCount struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Count     int64
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock unit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateUnits(ctx context.Context, units []models.StockUnit) error {
	if len(units) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&units, 200).Error
}

func (r *repository) FindUnit(ctx context.Context, id uuid.UUID) (*models.StockUnit, error) {
	var unit models.StockUnit
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) FindUnits(ctx context.Context, ids []uuid.UUID) ([]models.StockUnit, error) {
	var units []models.StockUnit
	if len(ids) == 0 {
		return units, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Order("id ASC").
		Find(&units).Error
	return units, err
}

func (r *repository) CountByStatus(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StockUnit{}).
		Where("product_id = ? AND store_id = ? AND status = ?", productID, storeID, status).
		Count(&count).Error
	return count, err
}

// ListByStatus returns units in FIFO order: oldest first, id as tie-break.
func (r *repository) ListByStatus(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus, limit int) ([]models.StockUnit, error) {
	query := r.db.WithContext(ctx).
		Where("product_id = ? AND store_id = ? AND status = ?", productID, storeID, status).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var units []models.StockUnit
	err := query.Find(&units).Error
	return units, err
}

func (r *repository) ListHeld(ctx context.Context, orderID, productID uuid.UUID, status enums.StockUnitStatus, limit int) ([]models.StockUnit, error) {
	query := r.db.WithContext(ctx).
		Where("held_order_id = ? AND product_id = ? AND status = ?", orderID, productID, status).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var units []models.StockUnit
	err := query.Find(&units).Error
	return units, err
}

type groupedCount struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Count     int64
}

// CountHeld returns the number of units an order holds, keyed by product.
func (r *repository) CountHeld(ctx context.Context, orderID uuid.UUID, statuses []enums.StockUnitStatus) (map[uuid.UUID]int64, error) {
	var rows []groupedCount
	err := r.db.WithContext(ctx).
		Model(&models.StockUnit{}).
		Select("product_id, COUNT(*) AS count").
		Where("held_order_id = ? AND status IN ?", orderID, statuses).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Count
	}
	return out, nil
}

// CountByStore groups a product's units in any of the statuses by owning store.
// Units without a store are skipped.
func (r *repository) CountByStore(ctx context.Context, productID uuid.UUID, statuses []enums.StockUnitStatus) (map[uuid.UUID]int64, error) {
	var rows []groupedCount
	err := r.db.WithContext(ctx).
		Model(&models.StockUnit{}).
		Select("store_id, COUNT(*) AS count").
		Where("product_id = ? AND store_id IS NOT NULL AND status IN ?", productID, statuses).
		Group("store_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.StoreID] = row.Count
	}
	return out, nil
}

func (r *repository) CountByStoreProduct(ctx context.Context, status enums.StockUnitStatus) ([]StockCount, error) {
	var rows []groupedCount
	err := r.db.WithContext(ctx).
		Model(&models.StockUnit{}).
		Select("store_id, product_id, COUNT(*) AS count").
		Where("store_id IS NOT NULL AND status = ?", status).
		Group("store_id, product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]StockCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, StockCount(row))
	}
	return out, nil
}

// CompareAndSet moves a unit only if it still holds the expected status and reports rows changed.
func (r *repository) CompareAndSet(ctx context.Context, id uuid.UUID, expected, next enums.StockUnitStatus, heldOrderID *uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StockUnit{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]any{
			"status":        next,
			"held_order_id": heldOrderID,
		})
	return res.RowsAffected, res.Error
}
