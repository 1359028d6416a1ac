package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/internal/catalog"
	"github.com/angelmondragon/retailstock-backend/internal/inventory"
	"github.com/angelmondragon/retailstock-backend/internal/sales"
	"github.com/angelmondragon/retailstock-backend/pkg/config"
	pkgdb "github.com/angelmondragon/retailstock-backend/pkg/db"
	"github.com/angelmondragon/retailstock-backend/pkg/db/dbtest"
	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
	"github.com/angelmondragon/retailstock-backend/pkg/outbox"
)

type fixture struct {
	db       *gorm.DB
	svc      Service
	store    models.Store
	customer models.Customer
}

func newFixture(t *testing.T, policy string) fixture {
	t.Helper()
	db := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	ledger := inventory.NewLedger(inventory.NewRepository(db), nil)
	catalogRepo := catalog.NewRepository(db)
	publisher := outbox.NewService(outbox.NewRepository(db), logg)
	txRunner := pkgdb.Wrap(db)

	salesSvc, err := sales.NewService(sales.NewRepository(db), ledger, catalogRepo, txRunner, publisher, nil, logg, config.ReturnsConfig{})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), ledger, catalogRepo, salesSvc, txRunner, publisher, nil, logg,
		config.FulfillmentConfig{ReservationPolicy: policy})
	require.NoError(t, err)

	return fixture{
		db:       db,
		svc:      svc,
		store:    dbtest.SeedStore(t, db, "Downtown", "Krakow"),
		customer: dbtest.SeedCustomer(t, db, "Ada", "Nowak"),
	}
}

func (f fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.CustomerOrder{}).Count(&n).Error)
	return n
}

func (f fixture) status(t *testing.T, orderID uuid.UUID) enums.OrderStatus {
	t.Helper()
	var order models.CustomerOrder
	require.NoError(t, f.db.Where("id = ?", orderID).First(&order).Error)
	return order.Status
}

func TestCreateRejectsShortStockBeforeWriting(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)
	product := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	dbtest.SeedUnits(t, f.db, product.ID, f.store.ID, enums.StockUnitStatusInStock, 1)

	_, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID:    f.customer.ID,
		PickupStoreID: f.store.ID,
		Lines:         []LineInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientInventory))
	assert.Zero(t, f.orderCount(t))
}

func TestCreateSnapshotsPricesAndTotal(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)
	lamp := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	chair := dbtest.SeedProduct(t, f.db, "Chair", "120.00", 1, 2)

	order, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID:         f.customer.ID,
		PickupStoreID:      f.store.ID,
		IgnoreAvailability: true,
		Lines: []LineInput{
			{ProductID: lamp.ID, Quantity: 2},
			{ProductID: chair.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusNew, order.Status)
	assert.Equal(t, "219.8", order.TotalAmount.String())

	var stored models.CustomerOrder
	require.NoError(t, f.db.Where("id = ?", order.ID).First(&stored).Error)
	assert.Equal(t, "219.8", stored.TotalAmount.String())
}

func TestCreateRejectsUnknownProductAndCustomer(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)

	_, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID:    f.customer.ID,
		PickupStoreID: f.store.ID,
		Lines:         []LineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidLine))

	_, err = f.svc.Create(context.Background(), CreateInput{
		CustomerID:    uuid.New(),
		PickupStoreID: f.store.ID,
		Lines:         []LineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestPartialReservationKeepsHolds(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)
	ctx := context.Background()
	lamp := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	chair := dbtest.SeedProduct(t, f.db, "Chair", "120.00", 1, 2)
	dbtest.SeedUnits(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock, 2)
	dbtest.SeedUnits(t, f.db, chair.ID, f.store.ID, enums.StockUnitStatusInStock, 1)

	order, err := f.svc.Create(ctx, CreateInput{
		CustomerID:         f.customer.ID,
		PickupStoreID:      f.store.ID,
		IgnoreAvailability: true,
		Lines: []LineInput{
			{ProductID: lamp.ID, Quantity: 2},
			{ProductID: chair.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusInProgress)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientInventory))
	assert.Equal(t, enums.OrderStatusNew, f.status(t, order.ID))
	assert.Equal(t, int64(2), dbtest.CountStatus(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusReserved))
	assert.Equal(t, int64(1), dbtest.CountStatus(t, f.db, chair.ID, f.store.ID, enums.StockUnitStatusReserved))

	dbtest.SeedUnits(t, f.db, chair.ID, f.store.ID, enums.StockUnitStatusInStock, 1)
	dbtest.SeedUnits(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock, 1)

	updated, err := f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInProgress, updated.Status)
	assert.Equal(t, int64(2), dbtest.CountStatus(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusReserved))
	assert.Equal(t, int64(1), dbtest.CountStatus(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock))
	assert.Equal(t, int64(2), dbtest.CountStatus(t, f.db, chair.ID, f.store.ID, enums.StockUnitStatusReserved))
}

func TestPartialReservationStopsAtFirstShortLine(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)
	ctx := context.Background()
	lamp := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	chair := dbtest.SeedProduct(t, f.db, "Chair", "120.00", 1, 2)
	rug := dbtest.SeedProduct(t, f.db, "Rug", "89.00", 1, 2)
	dbtest.SeedUnits(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock, 1)
	dbtest.SeedUnits(t, f.db, rug.ID, f.store.ID, enums.StockUnitStatusInStock, 5)

	order, err := f.svc.Create(ctx, CreateInput{
		CustomerID:         f.customer.ID,
		PickupStoreID:      f.store.ID,
		IgnoreAvailability: true,
		Lines: []LineInput{
			{ProductID: lamp.ID, Quantity: 1},
			{ProductID: chair.ID, Quantity: 1},
			{ProductID: rug.ID, Quantity: 5},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusInProgress)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientInventory))
	assert.Equal(t, enums.OrderStatusNew, f.status(t, order.ID))
	assert.Equal(t, int64(1), dbtest.CountStatus(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusReserved))
	assert.Equal(t, int64(0), dbtest.CountStatus(t, f.db, rug.ID, f.store.ID, enums.StockUnitStatusReserved))
	assert.Equal(t, int64(5), dbtest.CountStatus(t, f.db, rug.ID, f.store.ID, enums.StockUnitStatusInStock))
}

func TestAllOrNothingRollsBackHolds(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyAllOrNothing)
	ctx := context.Background()
	lamp := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	chair := dbtest.SeedProduct(t, f.db, "Chair", "120.00", 1, 2)
	dbtest.SeedUnits(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock, 2)

	order, err := f.svc.Create(ctx, CreateInput{
		CustomerID:         f.customer.ID,
		PickupStoreID:      f.store.ID,
		IgnoreAvailability: true,
		Lines: []LineInput{
			{ProductID: lamp.ID, Quantity: 2},
			{ProductID: chair.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusInProgress)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientInventory))
	assert.Equal(t, int64(0), dbtest.CountStatus(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusReserved))
	assert.Equal(t, int64(2), dbtest.CountStatus(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock))
}

func TestFullLifecycleSellsUnits(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)
	ctx := context.Background()
	lamp := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	units := dbtest.SeedUnits(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock, 3)

	order, err := f.svc.Create(ctx, CreateInput{
		CustomerID:    f.customer.ID,
		PickupStoreID: f.store.ID,
		Lines:         []LineInput{{ProductID: lamp.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusInProgress,
		enums.OrderStatusReadyForPickup,
		enums.OrderStatusCompleted,
	} {
		updated, err := f.svc.UpdateStatus(ctx, order.ID, next)
		require.NoError(t, err, "transition to %s", next)
		assert.Equal(t, next, updated.Status)
	}

	statuses := dbtest.UnitStatuses(t, f.db, units)
	assert.Equal(t, enums.StockUnitStatusSold, statuses[units[0].ID])
	assert.Equal(t, enums.StockUnitStatusSold, statuses[units[1].ID])
	assert.Equal(t, enums.StockUnitStatusInStock, statuses[units[2].ID])

	var txn models.Transaction
	require.NoError(t, f.db.Preload("Items").Where("order_id = ?", order.ID).First(&txn).Error)
	assert.Len(t, txn.Items, 2)
	assert.Equal(t, "99.8", txn.TotalAmount.String())

	_, err = f.svc.Cancel(ctx, order.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidTransition))
}

func TestNewStraightToReadyForPickup(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)
	ctx := context.Background()
	lamp := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	dbtest.SeedUnits(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock, 2)

	order, err := f.svc.Create(ctx, CreateInput{
		CustomerID:    f.customer.ID,
		PickupStoreID: f.store.ID,
		Lines:         []LineInput{{ProductID: lamp.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusReadyForPickup)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dbtest.CountStatus(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusAwaitingPickup))
}

func TestCompletedFromOtherStateIsNoop(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)
	ctx := context.Background()
	lamp := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	dbtest.SeedUnits(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock, 1)

	order, err := f.svc.Create(ctx, CreateInput{
		CustomerID:    f.customer.ID,
		PickupStoreID: f.store.ID,
		Lines:         []LineInput{{ProductID: lamp.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	got, err := f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusNew, got.Status)
	assert.Equal(t, enums.OrderStatusNew, f.status(t, order.ID))
}

func TestCancelReleasesReservedAndAwaitingUnits(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)
	ctx := context.Background()
	lamp := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	dbtest.SeedUnits(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock, 3)

	order, err := f.svc.Create(ctx, CreateInput{
		CustomerID:    f.customer.ID,
		PickupStoreID: f.store.ID,
		Lines:         []LineInput{{ProductID: lamp.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusReadyForPickup)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, int64(3), dbtest.CountStatus(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock))

	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusInProgress)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidTransition))
}

func TestGetFlagsShortageAndAvailability(t *testing.T) {
	f := newFixture(t, config.ReservationPolicyKeepPartial)
	ctx := context.Background()
	other := dbtest.SeedStore(t, f.db, "Mall", "Warsaw")
	lamp := dbtest.SeedProduct(t, f.db, "Lamp", "49.90", 2, 5)
	dbtest.SeedUnits(t, f.db, lamp.ID, f.store.ID, enums.StockUnitStatusInStock, 1)
	dbtest.SeedUnits(t, f.db, lamp.ID, other.ID, enums.StockUnitStatusOnDisplay, 2)

	order, err := f.svc.Create(ctx, CreateInput{
		CustomerID:         f.customer.ID,
		PickupStoreID:      f.store.ID,
		IgnoreAvailability: true,
		Lines:              []LineInput{{ProductID: lamp.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	detail, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, detail.HasShortage)
	assert.Equal(t, "Ada Nowak", detail.CustomerName)
	assert.Equal(t, "Krakow", detail.PickupStore.City)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, "Lamp", detail.Lines[0].ProductName)

	report, err := f.svc.OrderAvailability(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, report.Satisfied)
	require.Len(t, report.Products, 1)
	assert.Equal(t, int64(1), report.Products[0].Available)
	require.Len(t, report.Products[0].OtherStores, 1)
	assert.Equal(t, other.ID, report.Products[0].OtherStores[0].StoreID)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
