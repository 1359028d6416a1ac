package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/retailstock-backend/pkg/db/dbtest"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
)

func TestLedgerTransitionCompareAndSet(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := dbtest.SeedStore(t, db, "Downtown", "Krakow")
	product := dbtest.SeedProduct(t, db, "Lamp", "49.90", 2, 5)
	units := dbtest.SeedUnits(t, db, product.ID, store.ID, enums.StockUnitStatusInStock, 1)

	ledger := NewLedger(NewRepository(db), nil)

	require.NoError(t, ledger.Transition(ctx, units[0].ID, enums.StockUnitStatusInStock, enums.StockUnitStatusOnDisplay, nil))

	err := ledger.Transition(ctx, units[0].ID, enums.StockUnitStatusInStock, enums.StockUnitStatusReserved, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidTransition))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, enums.StockUnitStatusOnDisplay, details["actual"])
	assert.Equal(t, enums.StockUnitStatusInStock, details["expected"])

	statuses := dbtest.UnitStatuses(t, db, units)
	assert.Equal(t, enums.StockUnitStatusOnDisplay, statuses[units[0].ID])
}

func TestLedgerTransitionRejectsDisallowedEdge(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := dbtest.SeedStore(t, db, "Downtown", "Krakow")
	product := dbtest.SeedProduct(t, db, "Lamp", "49.90", 2, 5)
	units := dbtest.SeedUnits(t, db, product.ID, store.ID, enums.StockUnitStatusDamaged, 1)

	ledger := NewLedger(NewRepository(db), nil)
	err := ledger.Transition(ctx, units[0].ID, enums.StockUnitStatusDamaged, enums.StockUnitStatusInStock, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidTransition))
	assert.Equal(t, enums.StockUnitStatusDamaged, dbtest.UnitStatuses(t, db, units)[units[0].ID])
}

func TestLedgerTransitionUnknownUnit(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger(NewRepository(db), nil)

	err := ledger.Transition(context.Background(), uuid.New(), enums.StockUnitStatusInStock, enums.StockUnitStatusReserved, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestLedgerReserveIsFIFOAndBounded(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := dbtest.SeedStore(t, db, "Downtown", "Krakow")
	product := dbtest.SeedProduct(t, db, "Lamp", "49.90", 2, 5)
	units := dbtest.SeedUnits(t, db, product.ID, store.ID, enums.StockUnitStatusInStock, 3)
	orderID := uuid.New()

	ledger := NewLedger(NewRepository(db), nil)
	reserved, err := ledger.Reserve(ctx, orderID, product.ID, store.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, reserved)

	statuses := dbtest.UnitStatuses(t, db, units)
	assert.Equal(t, enums.StockUnitStatusReserved, statuses[units[0].ID])
	assert.Equal(t, enums.StockUnitStatusReserved, statuses[units[1].ID])
	assert.Equal(t, enums.StockUnitStatusInStock, statuses[units[2].ID])

	held, err := ledger.HeldCounts(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), held[product.ID])

	reserved, err = ledger.Reserve(ctx, uuid.New(), product.ID, store.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, reserved)
}

func TestLedgerMarkReadyAndRelease(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := dbtest.SeedStore(t, db, "Downtown", "Krakow")
	product := dbtest.SeedProduct(t, db, "Lamp", "49.90", 2, 5)
	dbtest.SeedUnits(t, db, product.ID, store.ID, enums.StockUnitStatusInStock, 4)
	orderID := uuid.New()

	ledger := NewLedger(NewRepository(db), nil)
	_, err := ledger.Reserve(ctx, orderID, product.ID, store.ID, 3)
	require.NoError(t, err)

	ready, err := ledger.MarkAwaitingPickup(ctx, orderID, product.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ready)

	released, err := ledger.Release(ctx, orderID, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, released)

	assert.Equal(t, int64(4), dbtest.CountStatus(t, db, product.ID, store.ID, enums.StockUnitStatusInStock))
	held, err := ledger.HeldCounts(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestLedgerReleaseIsJointlyBounded(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := dbtest.SeedStore(t, db, "Downtown", "Krakow")
	product := dbtest.SeedProduct(t, db, "Lamp", "49.90", 2, 5)
	dbtest.SeedUnits(t, db, product.ID, store.ID, enums.StockUnitStatusInStock, 4)
	orderID := uuid.New()

	ledger := NewLedger(NewRepository(db), nil)
	_, err := ledger.Reserve(ctx, orderID, product.ID, store.ID, 4)
	require.NoError(t, err)
	_, err = ledger.MarkAwaitingPickup(ctx, orderID, product.ID, 2)
	require.NoError(t, err)

	released, err := ledger.Release(ctx, orderID, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, released)

	assert.Equal(t, int64(0), dbtest.CountStatus(t, db, product.ID, store.ID, enums.StockUnitStatusReserved))
	assert.Equal(t, int64(1), dbtest.CountStatus(t, db, product.ID, store.ID, enums.StockUnitStatusAwaitingPickup))
	assert.Equal(t, int64(3), dbtest.CountStatus(t, db, product.ID, store.ID, enums.StockUnitStatusInStock))
}

func TestLedgerCreateUnits(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := dbtest.SeedStore(t, db, "Downtown", "Krakow")
	product := dbtest.SeedProduct(t, db, "Lamp", "49.90", 2, 5)
	deliveryID := uuid.New()

	ledger := NewLedger(NewRepository(db), nil)
	units, err := ledger.CreateUnits(ctx, deliveryID, product.ID, store.ID, 3)
	require.NoError(t, err)
	require.Len(t, units, 3)

	listed, err := ledger.ListAvailable(ctx, product.ID, store.ID, enums.StockUnitStatusInStock)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for _, unit := range listed {
		require.NotNil(t, unit.DeliveryID)
		assert.Equal(t, deliveryID, *unit.DeliveryID)
	}
}
