package sales

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
	"github.com/angelmondragon/retailstock-backend/pkg/outbox"
	"github.com/angelmondragon/retailstock-backend/pkg/outbox/payloads"
)

// blockingReturnStatuses keep a unit from being claimed on another return.
var blockingReturnStatuses = []enums.ReturnStatus{
	enums.ReturnStatusPending,
	enums.ReturnStatusAccepted,
}

func (s *service) CreateReturn(ctx context.Context, input CreateReturnInput) (*ReturnDTO, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return requires at least one item")
	}
	unitIDs := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for i, item := range input.Items {
		if _, dup := seen[item.UnitID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidLine, "unit listed twice").
				WithDetails(map[string]any{"line": i, "unit_id": item.UnitID.String()})
		}
		seen[item.UnitID] = struct{}{}
		unitIDs = append(unitIDs, item.UnitID)
	}

	var result ReturnDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		txn, err := repo.FindTransaction(ctx, input.TransactionID)
		if err != nil {
			return notFoundOr(err, "transaction", input.TransactionID)
		}
		onTransaction := make(map[uuid.UUID]struct{}, len(txn.Items))
		for _, item := range txn.Items {
			onTransaction[item.UnitID] = struct{}{}
		}
		for i, id := range unitIDs {
			if _, ok := onTransaction[id]; !ok {
				return pkgerrors.New(pkgerrors.CodeInvalidLine, "unit is not part of the transaction").
					WithDetails(map[string]any{"line": i, "unit_id": id.String(), "transaction_id": txn.ID.String()})
			}
		}

		units, err := s.ledger.WithTx(tx).Units(ctx, unitIDs)
		if err != nil {
			return err
		}
		for _, unit := range units {
			if unit.Status != enums.StockUnitStatusSold {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "unit is not sold").
					WithDetails(map[string]any{"unit_id": unit.ID.String(), "expected": enums.StockUnitStatusSold, "actual": unit.Status})
			}
		}

		claimed, err := repo.UnitsOnReturns(ctx, unitIDs, blockingReturnStatuses)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing returns")
		}
		if len(claimed) > 0 {
			ids := make([]string, 0, len(claimed))
			for _, id := range claimed {
				ids = append(ids, id.String())
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "units already on a return").
				WithDetails(map[string]any{"unit_ids": ids})
		}

		ret := models.Return{
			ID:            uuid.New(),
			TransactionID: txn.ID,
			Reason:        strings.TrimSpace(input.Reason),
			Status:        enums.ReturnStatusPending,
		}
		for _, item := range input.Items {
			ret.Items = append(ret.Items, models.ReturnItem{
				ID:        uuid.New(),
				UnitID:    item.UnitID,
				Condition: strings.TrimSpace(item.Condition),
			})
		}
		if err := repo.CreateReturn(ctx, &ret); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnCreated,
			AggregateType: enums.AggregateReturn,
			AggregateID:   ret.ID,
			Data: payloads.ReturnCreatedEvent{
				ReturnID:      ret.ID,
				TransactionID: txn.ID,
				UnitIDs:       unitIDs,
			},
		}); err != nil {
			return err
		}
		result = returnFromModel(ret)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) GetReturn(ctx context.Context, id uuid.UUID) (*ReturnDTO, error) {
	ret, err := s.repo.FindReturn(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "return", id)
	}
	dto := returnFromModel(*ret)
	return &dto, nil
}

// ResolveReturn accepts or rejects a pending return. Accepting moves every returned unit
// out of SOLD according to its condition text.
func (s *service) ResolveReturn(ctx context.Context, id uuid.UUID, decision enums.ReturnDecision) (*ReturnDTO, error) {
	next, err := decision.Status()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return decision")
	}

	var result ReturnDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ret, err := repo.FindReturn(ctx, id)
		if err != nil {
			return notFoundOr(err, "return", id)
		}
		if ret.Status != enums.ReturnStatusPending {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "return already resolved").
				WithDetails(map[string]any{"return_id": ret.ID.String(), "expected": enums.ReturnStatusPending, "actual": ret.Status})
		}

		restocked, damaged := 0, 0
		if next == enums.ReturnStatusAccepted {
			ledger := s.ledger.WithTx(tx)
			for _, item := range ret.Items {
				target := ClassifyCondition(item.Condition, s.damageKeywords)
				if err := ledger.Transition(ctx, item.UnitID, enums.StockUnitStatusSold, target, nil); err != nil {
					return err
				}
				if target == enums.StockUnitStatusDamaged {
					damaged++
				} else {
					restocked++
				}
			}
		}

		resolvedAt := time.Now().UTC()
		rows, err := repo.CompareAndSetReturnStatus(ctx, ret.ID, enums.ReturnStatusPending, next, resolvedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return status")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "return status changed concurrently").
				WithDetails(map[string]any{"return_id": ret.ID.String(), "expected": enums.ReturnStatusPending})
		}
		ret.Status = next
		ret.ResolvedAt = &resolvedAt

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnResolved,
			AggregateType: enums.AggregateReturn,
			AggregateID:   ret.ID,
			Data: payloads.ReturnResolvedEvent{
				ReturnID:      ret.ID,
				TransactionID: ret.TransactionID,
				Status:        next,
				Restocked:     restocked,
				Damaged:       damaged,
			},
		}); err != nil {
			return err
		}
		result = returnFromModel(*ret)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ClassifyCondition maps a returned unit's condition text to its new status: DAMAGED when
// any keyword appears in it (case-insensitive), IN_STOCK otherwise.
func ClassifyCondition(condition string, keywords []string) enums.StockUnitStatus {
	text := strings.ToLower(condition)
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(text, keyword) {
			return enums.StockUnitStatusDamaged
		}
	}
	return enums.StockUnitStatusInStock
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" {
			out = append(out, keyword)
		}
	}
	return out
}
