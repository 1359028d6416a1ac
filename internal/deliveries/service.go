package deliveries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/internal/inventory"
	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
	"github.com/angelmondragon/retailstock-backend/pkg/metrics"
	"github.com/angelmondragon/retailstock-backend/pkg/outbox"
	"github.com/angelmondragon/retailstock-backend/pkg/outbox/payloads"
)

const (
	TriggerManual    = "manual"
	TriggerScheduler = "scheduler"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type catalogReader interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	GetStores(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Store, error)
}

// Service creates deliveries and moves them through their lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*DeliveryDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*DeliveryDTO, error)
	ListPending(ctx context.Context) ([]DeliveryDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.DeliveryStatus) (*DeliveryDTO, error)
	Cancel(ctx context.Context, id uuid.UUID) (*DeliveryDTO, error)
	Progress(ctx context.Context, now time.Time, stage time.Duration) (ProgressSummary, error)
}

type service struct {
	repo    Repository
	ledger  *inventory.Ledger
	catalog catalogReader
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.FulfillmentMetrics
	logg    *logger.Logger
}

// NewService builds the delivery pipeline. metrics may be nil.
func NewService(repo Repository, ledger *inventory.Ledger, catalog catalogReader, tx txRunner, outbox outboxPublisher, m *metrics.FulfillmentMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
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
		repo:    repo,
		ledger:  ledger,
		catalog: catalog,
		tx:      tx,
		outbox:  outbox,
		metrics: m,
		logg:    logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*DeliveryDTO, error) {
	if err := s.validateCreate(ctx, input); err != nil {
		return nil, err
	}

	delivery := models.Delivery{
		ID:           uuid.New(),
		SupplierName: input.SupplierName,
		StoreID:      input.StoreID,
		Status:       enums.DeliveryStatusReceived,
		DeliveryDate: today(),
	}
	if input.DeliveryDate != nil {
		delivery.DeliveryDate = input.DeliveryDate.UTC()
	}
	if delivery.StoreID == nil {
		delivery.StoreID = input.Lines[0].StoreID
	}
	totalUnits := 0
	for _, line := range input.Lines {
		delivery.Lines = append(delivery.Lines, models.DeliveryLine{
			ID:            uuid.New(),
			ProductID:     line.ProductID,
			StoreID:       line.StoreID,
			Quantity:      line.Quantity,
			PurchasePrice: line.PurchasePrice,
		})
		totalUnits += line.Quantity
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &delivery); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
		}
		supplier := ""
		if delivery.SupplierName != nil {
			supplier = *delivery.SupplierName
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDeliveryCreated,
			AggregateType: enums.AggregateDelivery,
			AggregateID:   delivery.ID,
			Data: payloads.DeliveryCreatedEvent{
				DeliveryID:   delivery.ID,
				StoreID:      delivery.StoreID,
				SupplierName: supplier,
				LineCount:    len(delivery.Lines),
				TotalUnits:   totalUnits,
				Automatic:    input.Automatic,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithDeliveryID(ctx, delivery.ID.String())
	s.logg.Info(logCtx, "delivery created")
	dto := FromModel(delivery)
	return &dto, nil
}

func (s *service) validateCreate(ctx context.Context, input CreateInput) error {
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery requires at least one line")
	}
	productIDs := make([]uuid.UUID, 0, len(input.Lines))
	storeIDs := []uuid.UUID{}
	if input.StoreID != nil {
		storeIDs = append(storeIDs, *input.StoreID)
	}
	for i, line := range input.Lines {
		if line.Quantity <= 0 {
			return invalidLine(i, "quantity must be positive")
		}
		if !line.PurchasePrice.IsPositive() {
			return invalidLine(i, "purchase price must be positive")
		}
		productIDs = append(productIDs, line.ProductID)
		if line.StoreID != nil {
			storeIDs = append(storeIDs, *line.StoreID)
		}
	}

	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return err
	}
	for i, line := range input.Lines {
		if _, ok := products[line.ProductID]; !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidLine, "unknown product").
				WithDetails(map[string]any{"line": i, "product_id": line.ProductID.String()})
		}
	}

	stores, err := s.catalog.GetStores(ctx, storeIDs)
	if err != nil {
		return err
	}
	for _, id := range storeIDs {
		if _, ok := stores[id]; !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found").
				WithDetails(map[string]any{"entity": "store", "id": id.String()})
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DeliveryDTO, error) {
	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	dto := FromModel(*delivery)
	return &dto, nil
}

func (s *service) ListPending(ctx context.Context) ([]DeliveryDTO, error) {
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending deliveries")
	}
	out := make([]DeliveryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.DeliveryStatus) (*DeliveryDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery status").
			WithDetails(map[string]any{"status": next})
	}
	var result DeliveryDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		delivery, err := s.repo.WithTx(tx).FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, id)
		}
		if err := s.apply(ctx, tx, delivery, next, TriggerManual); err != nil {
			return err
		}
		result = FromModel(*delivery)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*DeliveryDTO, error) {
	return s.UpdateStatus(ctx, id, enums.DeliveryStatusCancelled)
}

// Progress advances every non-terminal delivery whose age crossed its next threshold.
// Each delivery commits on its own; failures are logged, counted and combined.
func (s *service) Progress(ctx context.Context, now time.Time, stage time.Duration) (ProgressSummary, error) {
	var summary ProgressSummary
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending deliveries")
	}
	summary.Scanned = len(pending)

	var errs error
	for _, candidate := range pending {
		if _, due := NextStage(candidate.Status, now.Sub(candidate.CreatedAt), stage); !due {
			continue
		}
		advanced := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			delivery, err := s.repo.WithTx(tx).FindByID(ctx, candidate.ID)
			if err != nil {
				return notFoundOr(err, candidate.ID)
			}
			next, due := NextStage(delivery.Status, now.Sub(delivery.CreatedAt), stage)
			if !due {
				return nil
			}
			advanced = true
			return s.apply(ctx, tx, delivery, next, TriggerScheduler)
		})
		if err != nil {
			summary.Failed++
			logCtx := s.logg.WithDeliveryID(ctx, candidate.ID.String())
			s.logg.Error(logCtx, "delivery progression failed", err)
			errs = multierr.Append(errs, fmt.Errorf("delivery %s: %w", candidate.ID, err))
			continue
		}
		if advanced {
			summary.Advanced++
		}
	}
	return summary, errs
}

// NextStage returns the status a delivery of the given age should move to on this tick.
// A delivery moves at most one stage per call.
func NextStage(current enums.DeliveryStatus, age, stage time.Duration) (enums.DeliveryStatus, bool) {
	if stage <= 0 {
		return current, false
	}
	switch current {
	case enums.DeliveryStatusReceived:
		if age >= stage {
			return enums.DeliveryStatusInProgress, true
		}
	case enums.DeliveryStatusInProgress:
		if age >= 2*stage {
			return enums.DeliveryStatusCompleted, true
		}
	}
	return current, false
}

// apply performs one status change inside tx. Entering COMPLETED materializes stock
// units for every line in the same transaction.
func (s *service) apply(ctx context.Context, tx *gorm.DB, delivery *models.Delivery, next enums.DeliveryStatus, trigger string) error {
	current := delivery.Status
	if current == next {
		return nil
	}
	if !current.CanTransitionTo(next) {
		return invalidTransition(delivery.ID, current, next)
	}

	destinations := make([]uuid.UUID, len(delivery.Lines))
	if next == enums.DeliveryStatusCompleted {
		for i, line := range delivery.Lines {
			store := line.DestinationStore(*delivery)
			if store == nil {
				return pkgerrors.New(pkgerrors.CodeMissingDestinationStore, "delivery line has no destination store").
					WithDetails(map[string]any{
						"delivery_id": delivery.ID.String(),
						"line_id":     line.ID.String(),
						"product_id":  line.ProductID.String(),
					})
			}
			destinations[i] = *store
		}
	}

	rows, err := s.repo.WithTx(tx).CompareAndSetStatus(ctx, delivery.ID, current, next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery status")
	}
	if rows == 0 {
		return invalidTransition(delivery.ID, current, next)
	}

	var actor *outbox.ActorRef
	if trigger == TriggerScheduler {
		actor = outbox.SchedulerActor()
	}

	if next == enums.DeliveryStatusCompleted {
		ledger := s.ledger.WithTx(tx)
		batches := make([]payloads.StockUnitBatch, 0, len(delivery.Lines))
		for i, line := range delivery.Lines {
			if _, err := ledger.CreateUnits(ctx, delivery.ID, line.ProductID, destinations[i], line.Quantity); err != nil {
				return err
			}
			batches = append(batches, payloads.StockUnitBatch{
				ProductID: line.ProductID,
				StoreID:   destinations[i],
				Quantity:  line.Quantity,
			})
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockUnitsCreated,
			AggregateType: enums.AggregateDelivery,
			AggregateID:   delivery.ID,
			Actor:         actor,
			Data:          payloads.StockUnitsCreatedEvent{DeliveryID: delivery.ID, Batches: batches},
		}); err != nil {
			return err
		}
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventDeliveryStatusChanged,
		AggregateType: enums.AggregateDelivery,
		AggregateID:   delivery.ID,
		Actor:         actor,
		Data: payloads.DeliveryStatusChangedEvent{
			DeliveryID: delivery.ID,
			From:       current,
			To:         next,
		},
	}); err != nil {
		return err
	}

	s.metrics.ObserveDeliveryStatus(string(next), trigger)
	delivery.Status = next
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"delivery_id": delivery.ID.String(),
		"from":        current,
		"to":          next,
		"trigger":     trigger,
	})
	s.logg.Info(logCtx, "delivery status changed")
	return nil
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func invalidLine(index int, reason string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidLine, reason).
		WithDetails(map[string]any{"line": index})
}

func invalidTransition(id uuid.UUID, current, next enums.DeliveryStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "delivery status transition rejected").
		WithDetails(map[string]any{
			"delivery_id": id.String(),
			"actual":      current,
			"target":      next,
		})
}

func notFoundOr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found").
			WithDetails(map[string]any{"entity": "delivery", "id": id.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
}
