package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// Service drives customer orders through their lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*OrderDTO, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
	CheckAvailability(ctx context.Context, pickupStoreID uuid.UUID, lines []LineInput) (*AvailabilityReport, error)
	OrderAvailability(ctx context.Context, orderID uuid.UUID) (*AvailabilityReport, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo    Repository
	ledger  *inventory.Ledger
	catalog catalog.Repository
	sales   saleFinalizer
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.FulfillmentMetrics
	logg    *logger.Logger
	policy  string
}

// NewService builds the order service. metrics may be nil.
func NewService(repo Repository, ledger *inventory.Ledger, catalogRepo catalog.Repository, sales saleFinalizer, tx txRunner, outbox outboxPublisher, m *metrics.FulfillmentMetrics, logg *logger.Logger, cfg config.FulfillmentConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sale finalizer required")
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
	policy := cfg.ReservationPolicy
	if policy == "" {
		policy = config.ReservationPolicyKeepPartial
	}
	return &service{
		repo:    repo,
		ledger:  ledger,
		catalog: catalogRepo,
		sales:   sales,
		tx:      tx,
		outbox:  outbox,
		metrics: m,
		logg:    logg,
		policy:  policy,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*OrderDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}
	for i, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidLine, "quantity must be positive").
				WithDetails(map[string]any{"line": i})
		}
	}
	if _, err := s.catalog.GetCustomer(ctx, input.CustomerID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetStore(ctx, input.PickupStoreID); err != nil {
		return nil, err
	}
	products, err := s.loadProducts(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	if !input.IgnoreAvailability {
		productIDs, requested := aggregateInput(input.Lines)
		for _, productID := range productIDs {
			available, err := s.ledger.CountAvailable(ctx, productID, input.PickupStoreID, enums.StockUnitStatusInStock)
			if err != nil {
				return nil, err
			}
			if available < int64(requested[productID]) {
				return nil, pkgerrors.New(pkgerrors.CodeInsufficientInventory, "not enough stock at the pickup store").
					WithDetails(map[string]any{
						"store_id":   input.PickupStoreID.String(),
						"product_id": productID.String(),
						"requested":  requested[productID],
						"available":  available,
					})
			}
		}
	}

	order := models.CustomerOrder{
		ID:            uuid.New(),
		CustomerID:    input.CustomerID,
		PickupStoreID: input.PickupStoreID,
		OrderDate:     time.Now().UTC(),
		Status:        enums.OrderStatusNew,
		TotalAmount:   decimal.Zero,
	}
	for i, line := range input.Lines {
		order.Lines = append(order.Lines, models.OrderLine{
			ID:        uuid.New(),
			LineNo:    i + 1,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     products[line.ProductID].BasePrice,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		total := decimal.Zero
		for _, line := range order.Lines {
			total = total.Add(line.LineTotal())
		}
		if err := repo.UpdateTotal(ctx, order.ID, total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order total")
		}
		order.TotalAmount = total
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateCustomerOrder,
			AggregateID:   order.ID,
			Actor:         outbox.StoreActor(order.PickupStoreID, nil),
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				CustomerID:    order.CustomerID,
				PickupStoreID: order.PickupStoreID,
				TotalAmount:   total,
				LineCount:     len(order.Lines),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order created")
	dto := fromModel(order)
	return &dto, nil
}

func (s *service) loadProducts(ctx context.Context, lines []LineInput) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, line := range lines {
		if _, ok := products[line.ProductID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidLine, "unknown product").
				WithDetails(map[string]any{"line": i, "product_id": line.ProductID.String()})
		}
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, orderID)
	}
	customer, err := s.catalog.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}
	store, err := s.catalog.GetStore(ctx, order.PickupStoreID)
	if err != nil {
		return nil, err
	}
	productIDs := make([]uuid.UUID, 0, len(order.Lines))
	for _, line := range order.Lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	detail := &OrderDetail{
		OrderDTO:     fromModel(*order),
		CustomerName: customer.FullName(),
		PickupStore: StoreSummary{
			ID:      store.ID,
			Name:    store.Name,
			Address: store.Address,
			City:    store.City,
		},
	}
	for i := range detail.Lines {
		detail.Lines[i].ProductName = products[detail.Lines[i].ProductID].Name
	}

	if order.Status == enums.OrderStatusNew {
		ids, requested := aggregateLines(order.Lines)
		for _, productID := range ids {
			available, err := s.ledger.CountAvailable(ctx, productID, order.PickupStoreID, enums.StockUnitStatusInStock)
			if err != nil {
				return nil, err
			}
			if available < int64(requested[productID]) {
				detail.HasShortage = true
				break
			}
		}
	}
	return detail, nil
}

func (s *service) CheckAvailability(ctx context.Context, pickupStoreID uuid.UUID, lines []LineInput) (*AvailabilityReport, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	ids, requested := aggregateInput(lines)
	report := &AvailabilityReport{PickupStoreID: pickupStoreID, Satisfied: true}
	for _, productID := range ids {
		availability, err := inventory.CheckAvailability(ctx, s.ledger, productID, pickupStoreID, requested[productID])
		if err != nil {
			return nil, err
		}
		if !availability.Satisfied {
			report.Satisfied = false
		}
		report.Products = append(report.Products, *availability)
	}
	return report, nil
}

func (s *service) OrderAvailability(ctx context.Context, orderID uuid.UUID) (*AvailabilityReport, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, orderID)
	}
	lines := make([]LineInput, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, LineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return s.CheckAvailability(ctx, order.PickupStoreID, lines)
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	return s.UpdateStatus(ctx, orderID, enums.OrderStatusCancelled)
}

// UpdateStatus moves an order to next and applies the stock side effects of that edge in
// the same transaction. Under keep_partial a reservation shortfall commits the holds
// taken so far, leaves the status untouched and reports InsufficientInventory.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": next})
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	var (
		result    OrderDTO
		shortfall error
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, orderID)
		}
		current := order.Status
		result = fromModel(*order)

		if current == next {
			return nil
		}
		if next == enums.OrderStatusCompleted && current != enums.OrderStatusReadyForPickup {
			s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{"from": current, "to": next}),
				"order completion ignored outside READY_FOR_PICKUP")
			return nil
		}
		if !current.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status transition rejected").
				WithDetails(map[string]any{"order_id": order.ID.String(), "actual": current, "target": next})
		}

		ledger := s.ledger.WithTx(tx)
		affected := 0
		switch {
		case current == enums.OrderStatusNew && next != enums.OrderStatusCancelled:
			reserved, shortages, err := s.reserve(ctx, ledger, order)
			if err != nil {
				return err
			}
			if len(shortages) > 0 {
				s.metrics.ObserveShortfall("reserve")
				shortfall = pkgerrors.New(pkgerrors.CodeInsufficientInventory, "not enough stock to reserve the order").
					WithDetails(map[string]any{
						"order_id":  order.ID.String(),
						"store_id":  order.PickupStoreID.String(),
						"shortages": shortages,
						"policy":    s.policy,
					})
				if s.policy == config.ReservationPolicyAllOrNothing {
					return shortfall
				}
				return nil
			}
			affected = reserved
			if next == enums.OrderStatusReadyForPickup {
				affected, err = s.markReady(logCtx, ledger, order)
				if err != nil {
					return err
				}
			}
		case next == enums.OrderStatusReadyForPickup:
			affected, err = s.markReady(logCtx, ledger, order)
			if err != nil {
				return err
			}
		case next == enums.OrderStatusCompleted:
			txn, err := s.sales.FinalizeOrder(logCtx, tx, order)
			if err != nil {
				return err
			}
			affected = len(txn.Items)
		case next == enums.OrderStatusCancelled:
			affected, err = s.release(ctx, ledger, order)
			if err != nil {
				return err
			}
		}

		rows, err := repo.CompareAndSetStatus(ctx, order.ID, current, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status changed concurrently").
				WithDetails(map[string]any{"order_id": order.ID.String(), "expected": current, "target": next})
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateCustomerOrder,
			AggregateID:   order.ID,
			Actor:         outbox.StoreActor(order.PickupStoreID, nil),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:       order.ID,
				PickupStoreID: order.PickupStoreID,
				From:          current,
				To:            next,
				UnitsAffected: affected,
			},
		}); err != nil {
			return err
		}
		result.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if shortfall != nil {
		s.logg.Warn(logCtx, "order reservation short; holds kept")
		return nil, shortfall
	}
	return &result, nil
}

// Shortage describes one product the reservation could not fully cover.
type Shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Held      int       `json:"held"`
}

// reserve tops up the order's holds to the requested quantity per product. Units the
// order already holds count toward the request, so a retry never over-reserves.
func (s *service) reserve(ctx context.Context, ledger *inventory.Ledger, order *models.CustomerOrder) (int, []Shortage, error) {
	held, err := ledger.HeldCounts(ctx, order.ID)
	if err != nil {
		return 0, nil, err
	}
	ids, requested := aggregateLines(order.Lines)
	total := 0
	var shortages []Shortage
	for _, productID := range ids {
		want := requested[productID]
		have := int(held[productID])
		if have < want {
			got, err := ledger.Reserve(ctx, order.ID, productID, order.PickupStoreID, want-have)
			if err != nil {
				return total, nil, err
			}
			have += got
			total += got
		}
		if have < want {
			// lines after the first short one are left untouched
			shortages = append(shortages, Shortage{ProductID: productID, Requested: want, Held: have})
			break
		}
	}
	return total, shortages, nil
}

func (s *service) markReady(ctx context.Context, ledger *inventory.Ledger, order *models.CustomerOrder) (int, error) {
	ids, requested := aggregateLines(order.Lines)
	total := 0
	for _, productID := range ids {
		moved, err := ledger.MarkAwaitingPickup(ctx, order.ID, productID, requested[productID])
		if err != nil {
			return total, err
		}
		total += moved
		if moved < requested[productID] {
			s.metrics.ObserveShortfall("mark_ready")
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"product_id": productID.String(),
				"requested":  requested[productID],
				"moved":      moved,
			}), "fewer reserved units than ordered at pickup preparation")
		}
	}
	return total, nil
}

func (s *service) release(ctx context.Context, ledger *inventory.Ledger, order *models.CustomerOrder) (int, error) {
	ids, requested := aggregateLines(order.Lines)
	total := 0
	for _, productID := range ids {
		released, err := ledger.Release(ctx, order.ID, productID, requested[productID])
		if err != nil {
			return total, err
		}
		total += released
	}
	return total, nil
}

func aggregateLines(lines []models.OrderLine) ([]uuid.UUID, map[uuid.UUID]int) {
	ids := make([]uuid.UUID, 0, len(lines))
	qty := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if _, ok := qty[line.ProductID]; !ok {
			ids = append(ids, line.ProductID)
		}
		qty[line.ProductID] += line.Quantity
	}
	return ids, qty
}

func aggregateInput(lines []LineInput) ([]uuid.UUID, map[uuid.UUID]int) {
	ids := make([]uuid.UUID, 0, len(lines))
	qty := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if _, ok := qty[line.ProductID]; !ok {
			ids = append(ids, line.ProductID)
		}
		qty[line.ProductID] += line.Quantity
	}
	return ids, qty
}

func notFoundOr(err error, orderID uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithDetails(map[string]any{"entity": "order", "id": orderID.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
