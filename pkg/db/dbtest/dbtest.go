// Package dbtest opens throwaway in-memory SQLite databases carrying the retail schema.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// schema mirrors pkg/migrate/migrations in SQLite dialect.
var schema = []string{
	`CREATE TABLE stores (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		category_id TEXT,
		name TEXT NOT NULL,
		base_price NUMERIC NOT NULL,
		low_stock_threshold INTEGER NOT NULL DEFAULT 0,
		minimum_stock INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE customers (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE deliveries (
		id TEXT PRIMARY KEY,
		supplier_name TEXT,
		delivery_date DATETIME NOT NULL,
		store_id TEXT,
		status TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE delivery_lines (
		id TEXT PRIMARY KEY,
		delivery_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		store_id TEXT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		purchase_price NUMERIC NOT NULL
	)`,
	`CREATE TABLE customer_orders (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		pickup_store_id TEXT NOT NULL,
		order_date DATETIME NOT NULL,
		status TEXT NOT NULL,
		total_amount NUMERIC NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_lines (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		line_no INTEGER NOT NULL DEFAULT 0,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price NUMERIC NOT NULL
	)`,
	`CREATE TABLE stock_units (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		store_id TEXT,
		delivery_id TEXT,
		held_order_id TEXT,
		status TEXT NOT NULL CHECK (status IN ('IN_STOCK', 'ON_DISPLAY', 'RESERVED', 'AWAITING_PICKUP', 'SOLD', 'DAMAGED')),
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE transactions (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		customer_id TEXT,
		employee_id TEXT,
		order_id TEXT,
		document_type TEXT NOT NULL,
		total_amount NUMERIC NOT NULL DEFAULT 0,
		created_at DATETIME
	)`,
	`CREATE TABLE transaction_items (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		price NUMERIC NOT NULL
	)`,
	`CREATE TABLE returns (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME,
		resolved_at DATETIME
	)`,
	`CREATE TABLE return_items (
		id TEXT PRIMARY KEY,
		return_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		condition TEXT NOT NULL
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL UNIQUE,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

// Open returns a fresh database with the full schema applied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:retailstock_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

func SeedStore(t *testing.T, db *gorm.DB, name, city string) models.Store {
	t.Helper()
	store := models.Store{ID: uuid.New(), Name: name, Address: "1 Main St", City: city}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func SeedProduct(t *testing.T, db *gorm.DB, name, price string, lowStock, minimum int) models.Product {
	t.Helper()
	product := models.Product{
		ID:                uuid.New(),
		Name:              name,
		BasePrice:         decimal.RequireFromString(price),
		LowStockThreshold: lowStock,
		MinimumStock:      minimum,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func SeedCustomer(t *testing.T, db *gorm.DB, first, last string) models.Customer {
	t.Helper()
	customer := models.Customer{ID: uuid.New(), FirstName: first, LastName: last}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

// SeedUnits creates n units one second apart so FIFO order equals insertion order.
func SeedUnits(t *testing.T, db *gorm.DB, productID, storeID uuid.UUID, status enums.StockUnitStatus, n int) []models.StockUnit {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	units := make([]models.StockUnit, 0, n)
	for i := 0; i < n; i++ {
		store := storeID
		unit := models.StockUnit{
			ID:        uuid.New(),
			ProductID: productID,
			StoreID:   &store,
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(&unit).Error; err != nil {
			t.Fatalf("seed unit: %v", err)
		}
		units = append(units, unit)
	}
	return units
}

// UnitStatuses reloads the status of every given unit, keyed by id.
func UnitStatuses(t *testing.T, db *gorm.DB, units []models.StockUnit) map[uuid.UUID]enums.StockUnitStatus {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(units))
	for _, u := range units {
		ids = append(ids, u.ID)
	}
	var rows []models.StockUnit
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		t.Fatalf("load units: %v", err)
	}
	out := make(map[uuid.UUID]enums.StockUnitStatus, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Status
	}
	return out
}

// CountStatus counts units of a product at a store in the given status.
func CountStatus(t *testing.T, db *gorm.DB, productID, storeID uuid.UUID, status enums.StockUnitStatus) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.StockUnit{}).
		Where("product_id = ? AND store_id = ? AND status = ?", productID, storeID, status).
		Count(&n).Error; err != nil {
		t.Fatalf("count units: %v", err)
	}
	return n
}
