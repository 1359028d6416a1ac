package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AvailableStatuses are the statuses counted as sellable stock in other stores.
var AvailableStatuses = []enums.StockUnitStatus{
	enums.StockUnitStatusInStock,
	enums.StockUnitStatusOnDisplay,
}

// Service exposes ledger reads and the manual unit transitions.
type Service interface {
	CountAvailable(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus) (int64, error)
	ListAvailable(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus) ([]StockUnitDTO, error)
	CountByStoreAcrossStatuses(ctx context.Context, productID uuid.UUID, statuses []enums.StockUnitStatus) ([]StoreCountDTO, error)
	StatusCounts(ctx context.Context, productID, storeID uuid.UUID) (*StatusCountsDTO, error)
	Availability(ctx context.Context, productID, storeID uuid.UUID, requested int) (*AvailabilityDTO, error)
	Transition(ctx context.Context, unitID uuid.UUID, expected, next enums.StockUnitStatus) (*StockUnitDTO, error)
	SetDisplay(ctx context.Context, unitID uuid.UUID, onDisplay bool) (*StockUnitDTO, error)
}

type service struct {
	ledger *Ledger
	tx     txRunner
}

// NewService builds the inventory service.
func NewService(ledger *Ledger, tx txRunner) (Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{ledger: ledger, tx: tx}, nil
}

func (s *service) CountAvailable(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus) (int64, error) {
	if !status.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock unit status")
	}
	return s.ledger.CountAvailable(ctx, productID, storeID, status)
}

func (s *service) ListAvailable(ctx context.Context, productID, storeID uuid.UUID, status enums.StockUnitStatus) ([]StockUnitDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock unit status")
	}
	units, err := s.ledger.ListAvailable(ctx, productID, storeID, status)
	if err != nil {
		return nil, err
	}
	out := make([]StockUnitDTO, 0, len(units))
	for _, unit := range units {
		out = append(out, FromModel(unit))
	}
	return out, nil
}

func (s *service) CountByStoreAcrossStatuses(ctx context.Context, productID uuid.UUID, statuses []enums.StockUnitStatus) ([]StoreCountDTO, error) {
	if len(statuses) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one status required")
	}
	for _, status := range statuses {
		if !status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock unit status").
				WithDetails(map[string]any{"status": status})
		}
	}
	counts, err := s.ledger.CountByStoreAcrossStatuses(ctx, productID, statuses)
	if err != nil {
		return nil, err
	}
	return sortedCounts(counts, uuid.Nil), nil
}

func (s *service) StatusCounts(ctx context.Context, productID, storeID uuid.UUID) (*StatusCountsDTO, error) {
	out := &StatusCountsDTO{
		ProductID: productID,
		StoreID:   storeID,
		Counts:    make(map[enums.StockUnitStatus]int64),
	}
	for _, status := range []enums.StockUnitStatus{
		enums.StockUnitStatusInStock,
		enums.StockUnitStatusOnDisplay,
		enums.StockUnitStatusReserved,
		enums.StockUnitStatusAwaitingPickup,
		enums.StockUnitStatusSold,
		enums.StockUnitStatusDamaged,
	} {
		count, err := s.ledger.CountAvailable(ctx, productID, storeID, status)
		if err != nil {
			return nil, err
		}
		out.Counts[status] = count
	}
	return out, nil
}

func (s *service) Availability(ctx context.Context, productID, storeID uuid.UUID, requested int) (*AvailabilityDTO, error) {
	return CheckAvailability(ctx, s.ledger, productID, storeID, requested)
}

func (s *service) Transition(ctx context.Context, unitID uuid.UUID, expected, next enums.StockUnitStatus) (*StockUnitDTO, error) {
	if !expected.IsValid() || !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock unit status")
	}
	// Holds belong to orders and sales to transactions; neither is editable by hand.
	if isHeld(expected) || isHeld(next) || next == enums.StockUnitStatusSold {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "transition is owned by order or sale flows").
			WithDetails(map[string]any{
				"unit_id":  unitID.String(),
				"expected": expected,
				"target":   next,
			})
	}
	var result StockUnitDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		if err := ledger.Transition(ctx, unitID, expected, next, nil); err != nil {
			return err
		}
		units, err := ledger.Units(ctx, []uuid.UUID{unitID})
		if err != nil {
			return err
		}
		if len(units) == 1 {
			result = FromModel(units[0])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) SetDisplay(ctx context.Context, unitID uuid.UUID, onDisplay bool) (*StockUnitDTO, error) {
	if onDisplay {
		return s.Transition(ctx, unitID, enums.StockUnitStatusInStock, enums.StockUnitStatusOnDisplay)
	}
	return s.Transition(ctx, unitID, enums.StockUnitStatusOnDisplay, enums.StockUnitStatusInStock)
}

// CheckAvailability counts IN_STOCK units at the store and, when that falls short of
// requested, the sellable units held by every other store.
func CheckAvailability(ctx context.Context, ledger *Ledger, productID, storeID uuid.UUID, requested int) (*AvailabilityDTO, error) {
	available, err := ledger.CountAvailable(ctx, productID, storeID, enums.StockUnitStatusInStock)
	if err != nil {
		return nil, err
	}
	out := &AvailabilityDTO{
		ProductID: productID,
		StoreID:   storeID,
		Requested: requested,
		Available: available,
		Satisfied: available >= int64(requested),
	}
	if out.Satisfied {
		return out, nil
	}
	counts, err := ledger.CountByStoreAcrossStatuses(ctx, productID, AvailableStatuses)
	if err != nil {
		return nil, err
	}
	out.OtherStores = sortedCounts(counts, storeID)
	return out, nil
}

func sortedCounts(counts map[uuid.UUID]int64, exclude uuid.UUID) []StoreCountDTO {
	out := make([]StoreCountDTO, 0, len(counts))
	for storeID, count := range counts {
		if storeID == exclude {
			continue
		}
		out = append(out, StoreCountDTO{StoreID: storeID, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].StoreID.String() < out[j].StoreID.String()
	})
	return out
}
