package restock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/internal/deliveries"
	"github.com/angelmondragon/retailstock-backend/internal/inventory"
	"github.com/angelmondragon/retailstock-backend/internal/orders"
	"github.com/angelmondragon/retailstock-backend/pkg/config"
	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
	"github.com/angelmondragon/retailstock-backend/pkg/metrics"
)

type demandReader interface {
	DemandByStoreProduct(ctx context.Context, status enums.OrderStatus) ([]orders.Demand, error)
}

type supplyReader interface {
	PendingSupply(ctx context.Context) ([]deliveries.Supply, error)
}

type catalogReader interface {
	GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
	GetStores(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Store, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type deliveryCreator interface {
	Create(ctx context.Context, input deliveries.CreateInput) (*deliveries.DeliveryDTO, error)
}

// Service plans replenishment. Demand-driven suggestions and the low-stock check are
// independent operations.
type Service interface {
	Suggestions(ctx context.Context) ([]StoreSuggestion, error)
	LowStock(ctx context.Context, storeID uuid.UUID) ([]LowStockItem, error)
	AutoRestock(ctx context.Context, storeID uuid.UUID) (*deliveries.DeliveryDTO, error)
}

type service struct {
	demand     demandReader
	supply     supplyReader
	ledger     *inventory.Ledger
	catalog    catalogReader
	deliveries deliveryCreator
	cfg        config.RestockConfig
	metrics    *metrics.FulfillmentMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the replenishment planner. metrics may be nil.
func NewService(demand demandReader, supply supplyReader, ledger *inventory.Ledger, catalog catalogReader, creator deliveryCreator, cfg config.RestockConfig, m *metrics.FulfillmentMetrics, logg *logger.Logger) (Service, error) {
	if demand == nil {
		return nil, fmt.Errorf("demand reader required")
	}
	if supply == nil {
		return nil, fmt.Errorf("supply reader required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if creator == nil {
		return nil, fmt.Errorf("delivery creator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		demand:     demand,
		supply:     supply,
		ledger:     ledger,
		catalog:    catalog,
		deliveries: creator,
		cfg:        cfg,
		metrics:    m,
		logg:       logg,
		now:        time.Now,
	}, nil
}

func (s *service) Suggestions(ctx context.Context) ([]StoreSuggestion, error) {
	demandRows, err := s.demand.DemandByStoreProduct(ctx, enums.OrderStatusNew)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate order demand")
	}
	supplyRows, err := s.supply.PendingSupply(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate pending deliveries")
	}
	stockRows, err := s.ledger.StockByStoreProduct(ctx, enums.StockUnitStatusInStock)
	if err != nil {
		return nil, err
	}

	demand := make([]Quantity, 0, len(demandRows))
	for _, row := range demandRows {
		demand = append(demand, Quantity{StoreID: row.StoreID, ProductID: row.ProductID, Quantity: row.Quantity})
	}
	pending := make([]Quantity, 0, len(supplyRows))
	for _, row := range supplyRows {
		pending = append(pending, Quantity{StoreID: row.StoreID, ProductID: row.ProductID, Quantity: row.Quantity})
	}
	stock := make([]Quantity, 0, len(stockRows))
	for _, row := range stockRows {
		stock = append(stock, Quantity{StoreID: row.StoreID, ProductID: row.ProductID, Quantity: row.Count})
	}

	deficits := computeDeficits(demand, pending, stock)
	if len(deficits) == 0 {
		return []StoreSuggestion{}, nil
	}

	storeIDs := make([]uuid.UUID, 0)
	productIDs := make([]uuid.UUID, 0, len(deficits))
	seenStore := map[uuid.UUID]bool{}
	for _, d := range deficits {
		if !seenStore[d.StoreID] {
			seenStore[d.StoreID] = true
			storeIDs = append(storeIDs, d.StoreID)
		}
		productIDs = append(productIDs, d.ProductID)
	}
	stores, err := s.catalog.GetStores(ctx, storeIDs)
	if err != nil {
		return nil, err
	}
	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	groups := make(map[uuid.UUID]*StoreSuggestion, len(storeIDs))
	for _, d := range deficits {
		group, ok := groups[d.StoreID]
		if !ok {
			store := stores[d.StoreID]
			group = &StoreSuggestion{Store: StoreSummary{
				ID:      d.StoreID,
				Name:    store.Name,
				Address: store.Address,
				City:    store.City,
			}}
			groups[d.StoreID] = group
		}
		group.Products = append(group.Products, ProductSuggestion{
			ProductID:      d.ProductID,
			ProductName:    products[d.ProductID].Name,
			QuantityNeeded: d.Deficit,
			CurrentStock:   d.CurrentStock,
		})
	}

	out := make([]StoreSuggestion, 0, len(groups))
	for _, id := range storeIDs {
		group := groups[id]
		sort.Slice(group.Products, func(i, j int) bool {
			return group.Products[i].ProductName < group.Products[j].ProductName
		})
		out = append(out, *group)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Store.Name < out[j].Store.Name })
	return out, nil
}

func (s *service) LowStock(ctx context.Context, storeID uuid.UUID) ([]LowStockItem, error) {
	if _, err := s.catalog.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	stockRows, err := s.ledger.StockByStoreProduct(ctx, enums.StockUnitStatusInStock)
	if err != nil {
		return nil, err
	}
	onHand := make(map[uuid.UUID]int64)
	for _, row := range stockRows {
		if row.StoreID == storeID {
			onHand[row.ProductID] = row.Count
		}
	}

	out := make([]LowStockItem, 0)
	for _, product := range products {
		current := onHand[product.ID]
		need := lowStockProposal(current, product.LowStockThreshold, product.MinimumStock)
		if need == 0 {
			continue
		}
		out = append(out, LowStockItem{
			ProductID:         product.ID,
			ProductName:       product.Name,
			CurrentStock:      current,
			LowStockThreshold: product.LowStockThreshold,
			MinimumStock:      product.MinimumStock,
			QuantityNeeded:    need,
			BasePrice:         product.BasePrice,
		})
	}
	return out, nil
}

// AutoRestock raises one RECEIVED delivery for every low-stock product of the store,
// priced at the configured share of base price and dated the configured lead days out.
func (s *service) AutoRestock(ctx context.Context, storeID uuid.UUID) (*deliveries.DeliveryDTO, error) {
	items, err := s.LowStock(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "no products need restocking").
			WithDetails(map[string]any{"store_id": storeID.String()})
	}

	ratio := s.cfg.Ratio()
	lines := make([]deliveries.LineInput, 0, len(items))
	for _, item := range items {
		price := item.BasePrice.Mul(ratio).Round(2)
		if !price.IsPositive() {
			price = decimal.New(1, -2)
		}
		lines = append(lines, deliveries.LineInput{
			ProductID:     item.ProductID,
			Quantity:      int(item.QuantityNeeded),
			PurchasePrice: price,
		})
	}
	supplier := s.cfg.SupplierName
	date := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, s.cfg.LeadDays)
	store := storeID

	delivery, err := s.deliveries.Create(ctx, deliveries.CreateInput{
		SupplierName: &supplier,
		DeliveryDate: &date,
		StoreID:      &store,
		Lines:        lines,
		Automatic:    true,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAutoRestock()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"store_id":    storeID.String(),
		"delivery_id": delivery.ID.String(),
		"lines":       len(lines),
	})
	s.logg.Info(logCtx, "auto restock delivery created")
	return delivery, nil
}
