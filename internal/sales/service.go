package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/internal/catalog"
	"github.com/angelmondragon/retailstock-backend/internal/inventory"
	"github.com/angelmondragon/retailstock-backend/pkg/config"
	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
	"github.com/angelmondragon/retailstock-backend/pkg/metrics"
	"github.com/angelmondragon/retailstock-backend/pkg/outbox"
	"github.com/angelmondragon/retailstock-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records sales and processes returns.
type Service interface {
	FinalizeOrder(ctx context.Context, tx *gorm.DB, order *models.CustomerOrder) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, input CreateTransactionInput) (*TransactionDTO, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*TransactionDTO, error)
	CreateReturn(ctx context.Context, input CreateReturnInput) (*ReturnDTO, error)
	GetReturn(ctx context.Context, id uuid.UUID) (*ReturnDTO, error)
	ResolveReturn(ctx context.Context, id uuid.UUID, decision enums.ReturnDecision) (*ReturnDTO, error)
}

type service struct {
	repo           Repository
	ledger         *inventory.Ledger
	catalog        catalog.Repository
	tx             txRunner
	outbox         outboxPublisher
	metrics        *metrics.FulfillmentMetrics
	logg           *logger.Logger
	damageKeywords []string
}

// NewService builds the sale and return recorder. metrics may be nil.
func NewService(repo Repository, ledger *inventory.Ledger, catalogRepo catalog.Repository, tx txRunner, outbox outboxPublisher, m *metrics.FulfillmentMetrics, logg *logger.Logger, returnsCfg config.ReturnsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:           repo,
		ledger:         ledger,
		catalog:        catalogRepo,
		tx:             tx,
		outbox:         outbox,
		metrics:        m,
		logg:           logg,
		damageKeywords: normalizeKeywords(returnsCfg.DamageKeywords),
	}, nil
}

// FinalizeOrder records the pickup sale of an order inside the caller's transaction.
// Each line sells up to its quantity of the order's AWAITING_PICKUP units at the frozen
// line price; a shortfall is logged, never raised. The transaction total is the order total.
func (s *service) FinalizeOrder(ctx context.Context, tx *gorm.DB, order *models.CustomerOrder) (*models.Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if len(order.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no lines").
			WithDetails(map[string]any{"order_id": order.ID.String()})
	}

	ledger := s.ledger.WithTx(tx)
	customerID := order.CustomerID
	orderID := order.ID
	txn := models.Transaction{
		ID:           uuid.New(),
		StoreID:      order.PickupStoreID,
		CustomerID:   &customerID,
		OrderID:      &orderID,
		DocumentType: enums.DocumentTypeReceipt,
		TotalAmount:  order.TotalAmount,
	}
	sold := make([]payloads.SaleItem, 0)

	for _, line := range order.Lines {
		units, err := ledger.HeldByOrder(ctx, order.ID, line.ProductID, enums.StockUnitStatusAwaitingPickup, line.Quantity)
		if err != nil {
			return nil, err
		}
		count := 0
		for _, unit := range units {
			if err := ledger.Transition(ctx, unit.ID, enums.StockUnitStatusAwaitingPickup, enums.StockUnitStatusSold, nil); err != nil {
				if pkgerrors.Is(err, pkgerrors.CodeInvalidTransition) {
					continue
				}
				return nil, err
			}
			txn.Items = append(txn.Items, models.TransactionItem{ID: uuid.New(), UnitID: unit.ID, Price: line.Price})
			sold = append(sold, payloads.SaleItem{UnitID: unit.ID, ProductID: line.ProductID, Price: line.Price})
			count++
		}
		if count < line.Quantity {
			s.metrics.ObserveShortfall("finalize")
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id":   order.ID.String(),
				"product_id": line.ProductID.String(),
				"requested":  line.Quantity,
				"sold":       count,
			})
			s.logg.Warn(logCtx, "pickup sold fewer units than ordered")
		}
	}

	if err := s.repo.WithTx(tx).CreateTransaction(ctx, &txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}
	if err := s.emitSale(ctx, tx, txn, sold); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *service) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*TransactionDTO, error) {
	if input.EmployeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	if !input.DocumentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid document type").
			WithDetails(map[string]any{"document_type": input.DocumentType})
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction requires at least one item")
	}
	unitIDs := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for i, item := range input.Items {
		if _, dup := seen[item.UnitID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidLine, "unit listed twice").
				WithDetails(map[string]any{"line": i, "unit_id": item.UnitID.String()})
		}
		if item.Price != nil && item.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidLine, "price must not be negative").
				WithDetails(map[string]any{"line": i})
		}
		seen[item.UnitID] = struct{}{}
		unitIDs = append(unitIDs, item.UnitID)
	}

	var result TransactionDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		repo := s.repo.WithTx(tx)

		units, err := ledger.Units(ctx, unitIDs)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]models.StockUnit, len(units))
		for _, unit := range units {
			byID[unit.ID] = unit
		}
		var storeID *uuid.UUID
		productIDs := make([]uuid.UUID, 0, len(units))
		for _, id := range unitIDs {
			unit, ok := byID[id]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock unit not found").
					WithDetails(map[string]any{"entity": "stock_unit", "id": id.String()})
			}
			if !unit.Status.Sellable() {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "stock unit cannot be sold").
					WithDetails(map[string]any{"unit_id": id.String(), "actual": unit.Status, "target": enums.StockUnitStatusSold})
			}
			if unit.StoreID == nil || (storeID != nil && *storeID != *unit.StoreID) {
				return pkgerrors.New(pkgerrors.CodeValidation, "all units must belong to one store").
					WithDetails(map[string]any{"unit_id": id.String()})
			}
			storeID = unit.StoreID
			productIDs = append(productIDs, unit.ProductID)
		}

		products, err := s.catalog.WithTx(tx).GetProducts(ctx, productIDs)
		if err != nil {
			return err
		}

		var order *models.CustomerOrder
		if input.OrderID != nil {
			order, err = repo.FindOrder(ctx, *input.OrderID)
			if err != nil {
				return orderNotFoundOr(err, *input.OrderID)
			}
			if order.Status.IsTerminal() {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is already closed").
					WithDetails(map[string]any{"order_id": order.ID.String(), "actual": order.Status, "target": enums.OrderStatusCompleted})
			}
		}

		employeeID := input.EmployeeID
		txn := models.Transaction{
			ID:           uuid.New(),
			StoreID:      *storeID,
			CustomerID:   input.CustomerID,
			EmployeeID:   &employeeID,
			OrderID:      input.OrderID,
			DocumentType: input.DocumentType,
			TotalAmount:  decimal.Zero,
		}
		sold := make([]payloads.SaleItem, 0, len(input.Items))
		for _, item := range input.Items {
			unit := byID[item.UnitID]
			price := products[unit.ProductID].BasePrice
			if item.Price != nil {
				price = *item.Price
			}
			if err := ledger.Transition(ctx, unit.ID, unit.Status, enums.StockUnitStatusSold, nil); err != nil {
				return err
			}
			txn.Items = append(txn.Items, models.TransactionItem{ID: uuid.New(), UnitID: unit.ID, Price: price})
			txn.TotalAmount = txn.TotalAmount.Add(price)
			sold = append(sold, payloads.SaleItem{UnitID: unit.ID, ProductID: unit.ProductID, Price: price})
		}

		if err := repo.CreateTransaction(ctx, &txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
		}

		if order != nil {
			if err := s.completeOrder(ctx, tx, order, len(sold)); err != nil {
				return err
			}
		}
		if err := s.emitSale(ctx, tx, txn, sold); err != nil {
			return err
		}
		result = transactionFromModel(txn)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"transaction_id": result.ID.String(),
		"store_id":       result.StoreID.String(),
		"items":          len(result.Items),
	})
	s.logg.Info(logCtx, "sale recorded")
	return &result, nil
}

// completeOrder closes an order picked up at the till. Units the order still holds that
// the sale did not consume go back to IN_STOCK in the same transaction.
func (s *service) completeOrder(ctx context.Context, tx *gorm.DB, order *models.CustomerOrder, units int) error {
	ledger := s.ledger.WithTx(tx)
	released := 0
	for _, line := range order.Lines {
		n, err := ledger.Release(ctx, order.ID, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}
		released += n
	}
	if released > 0 {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
			"released": released,
		}), "till sale left order holds unused, released")
	}

	rows, err := s.repo.WithTx(tx).CompareAndSetOrderStatus(ctx, order.ID, order.Status, enums.OrderStatusCompleted)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status changed concurrently").
			WithDetails(map[string]any{"order_id": order.ID.String(), "expected": order.Status})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateCustomerOrder,
		AggregateID:   order.ID,
		Actor:         outbox.StoreActor(order.PickupStoreID, nil),
		Data: payloads.OrderStatusChangedEvent{
			OrderID:       order.ID,
			PickupStoreID: order.PickupStoreID,
			From:          order.Status,
			To:            enums.OrderStatusCompleted,
			UnitsAffected: units,
		},
	})
}

func (s *service) GetTransaction(ctx context.Context, id uuid.UUID) (*TransactionDTO, error) {
	txn, err := s.repo.FindTransaction(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "transaction", id)
	}
	dto := transactionFromModel(*txn)
	return &dto, nil
}

func (s *service) emitSale(ctx context.Context, tx *gorm.DB, txn models.Transaction, items []payloads.SaleItem) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSaleRecorded,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   txn.ID,
		Actor:         outbox.StoreActor(txn.StoreID, txn.EmployeeID),
		Data: payloads.SaleRecordedEvent{
			TransactionID: txn.ID,
			StoreID:       txn.StoreID,
			OrderID:       txn.OrderID,
			DocumentType:  txn.DocumentType,
			TotalAmount:   txn.TotalAmount,
			Items:         items,
		},
	})
}

func notFoundOr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found").
			WithDetails(map[string]any{"entity": entity, "id": id.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}

func orderNotFoundOr(err error, id uuid.UUID) error {
	return notFoundOr(err, "order", id)
}
