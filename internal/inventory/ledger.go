package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
)

// heldStatuses are the statuses in which a unit is claimed by an order.
var heldStatuses = []enums.StockUnitStatus{
	enums.StockUnitStatusReserved,
	enums.StockUnitStatusAwaitingPickup,
}

func isHeld(status enums.StockUnitStatus) bool {
	for _, held := range heldStatuses {
		if status == held {
			return true
		}
	}
	return false
}

type transitionObserver interface {
	ObserveTransition(from, to string)
}

// Ledger applies unit transitions for a single transaction. Every status write is a
// compare-and-set on the expected status, which is the only concurrency guard units have.
type Ledger struct {
	repo    Repository
	metrics transitionObserver
}

// NewLedger builds a ledger over the repository; metrics may be nil.
func NewLedger(repo Repository, metrics transitionObserver) *Ledger {
	return &Ledger{repo: repo, metrics: metrics}
}

// WithTx binds the ledger to a transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{repo: l.repo.WithTx(tx), metrics: l.metrics}
}

// CountAvailable counts units of a product at a store in one status.
func (l *Ledger) CountAvailable(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus) (int64, error) {
	count, err := l.repo.CountByStatus(ctx, productID, storeID, status)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count stock units")
	}
	return count, nil
}

// ListAvailable lists units of a product at a store in one status, oldest first.
func (l *Ledger) ListAvailable(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus) ([]models.StockUnit, error) {
	units, err := l.repo.ListByStatus(ctx, productID, storeID, status, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock units")
	}
	return units, nil
}

// CountByStoreAcrossStatuses counts a product's units per store over several statuses.
func (l *Ledger) CountByStoreAcrossStatuses(ctx context.Context, productID uuid.UUID, statuses []enums.StockUnitStatus) (map[uuid.UUID]int64, error) {
	counts, err := l.repo.CountByStore(ctx, productID, statuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count stock by store")
	}
	return counts, nil
}

// Transition moves a unit from expected to next. heldOrderID is written alongside the
// status; nil clears the hold.
func (l *Ledger) Transition(ctx context.Context, unitID uuid.UUID, expected, next enums.StockUnitStatus, heldOrderID *uuid.UUID) error {
	if !expected.CanTransitionTo(next) {
		return invalidTransition(unitID, expected, expected, next)
	}
	rows, err := l.repo.CompareAndSet(ctx, unitID, expected, next, heldOrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock unit status")
	}
	if rows == 0 {
		unit, err := l.repo.FindUnit(ctx, unitID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock unit not found").
					WithDetails(map[string]any{"unit_id": unitID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock unit")
		}
		return invalidTransition(unitID, expected, unit.Status, next)
	}
	if l.metrics != nil {
		l.metrics.ObserveTransition(string(expected), string(next))
	}
	return nil
}

// Reserve holds up to qty IN_STOCK units of the product at the store for the order,
// walking them in FIFO order. Units taken by a concurrent caller are skipped.
func (l *Ledger) Reserve(ctx context.Context, orderID, productID, storeID uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, nil
	}
	candidates, err := l.repo.ListByStatus(ctx, productID, storeID, enums.StockUnitStatusInStock, 0)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock units")
	}
	hold := orderID
	reserved := 0
	for _, unit := range candidates {
		if reserved == qty {
			break
		}
		if err := l.Transition(ctx, unit.ID, enums.StockUnitStatusInStock, enums.StockUnitStatusReserved, &hold); err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeInvalidTransition) {
				continue
			}
			return reserved, err
		}
		reserved++
	}
	return reserved, nil
}

// MarkAwaitingPickup moves up to qty of the order's RESERVED units of the product to AWAITING_PICKUP.
func (l *Ledger) MarkAwaitingPickup(ctx context.Context, orderID, productID uuid.UUID, qty int) (int, error) {
	hold := orderID
	return l.moveHeld(ctx, orderID, productID, enums.StockUnitStatusReserved, enums.StockUnitStatusAwaitingPickup, qty, &hold)
}

// Release returns up to qty of the order's units of the product to IN_STOCK, taking
// RESERVED units first and AWAITING_PICKUP units after, counted jointly.
func (l *Ledger) Release(ctx context.Context, orderID, productID uuid.UUID, qty int) (int, error) {
	released := 0
	for _, status := range heldStatuses {
		if released >= qty {
			break
		}
		n, err := l.moveHeld(ctx, orderID, productID, status, enums.StockUnitStatusInStock, qty-released, nil)
		released += n
		if err != nil {
			return released, err
		}
	}
	return released, nil
}

// HeldByOrder lists the order's units of a product in one status, oldest first.
func (l *Ledger) HeldByOrder(ctx context.Context, orderID, productID uuid.UUID, status enums.StockUnitStatus, limit int) ([]models.StockUnit, error) {
	units, err := l.repo.ListHeld(ctx, orderID, productID, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list held stock units")
	}
	return units, nil
}

// HeldCounts reports how many units the order holds per product, reserved or awaiting pickup.
func (l *Ledger) HeldCounts(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int64, error) {
	counts, err := l.repo.CountHeld(ctx, orderID, heldStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count held stock units")
	}
	return counts, nil
}

// CreateUnits materializes qty IN_STOCK units of a product at a store for a delivery.
func (l *Ledger) CreateUnits(ctx context.Context, deliveryID, productID, storeID uuid.UUID, qty int) ([]models.StockUnit, error) {
	units := make([]models.StockUnit, 0, qty)
	for i := 0; i < qty; i++ {
		store := storeID
		delivery := deliveryID
		units = append(units, models.StockUnit{
			ID:         uuid.New(),
			ProductID:  productID,
			StoreID:    &store,
			DeliveryID: &delivery,
			Status:     enums.StockUnitStatusInStock,
		})
	}
	if err := l.repo.CreateUnits(ctx, units); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock units")
	}
	return units, nil
}

// Units loads units by id.
func (l *Ledger) Units(ctx context.Context, ids []uuid.UUID) ([]models.StockUnit, error) {
	units, err := l.repo.FindUnits(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock units")
	}
	return units, nil
}

// StockByStoreProduct aggregates unit counts in one status per (store, product).
func (l *Ledger) StockByStoreProduct(ctx context.Context, status enums.StockUnitStatus) ([]StockCount, error) {
	counts, err := l.repo.CountByStoreProduct(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate stock units")
	}
	return counts, nil
}

func (l *Ledger) moveHeld(ctx context.Context, orderID, productID uuid.UUID, from, to enums.StockUnitStatus, qty int, hold *uuid.UUID) (int, error) {
	if qty <= 0 {
		return 0, nil
	}
	units, err := l.repo.ListHeld(ctx, orderID, productID, from, qty)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list held stock units")
	}
	moved := 0
	for _, unit := range units {
		if err := l.Transition(ctx, unit.ID, from, to, hold); err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeInvalidTransition) {
				continue
			}
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func invalidTransition(unitID uuid.UUID, expected, actual, next enums.StockUnitStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "stock unit status transition rejected").
		WithDetails(map[string]any{
			"unit_id":  unitID.String(),
			"expected": expected,
			"actual":   actual,
			"target":   next,
		})
}
