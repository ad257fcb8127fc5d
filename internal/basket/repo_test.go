package basket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

func setupBasketTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:basketrepo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	baskets := `
CREATE TABLE IF NOT EXISTS baskets (
  id TEXT PRIMARY KEY,
  customer_id TEXT,
  customer_email TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active',
  multi_ship INTEGER NOT NULL DEFAULT 0,
  billing_address TEXT,
  subtotal_cents INTEGER NOT NULL DEFAULT 0,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	shipments := `
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  basket_id TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  shipping_method_id TEXT,
  shipping_address TEXT,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS line_items (
  id TEXT PRIMARY KEY,
  basket_id TEXT NOT NULL,
  shipment_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	instruments := `
CREATE TABLE IF NOT EXISTS payment_instruments (
  id TEXT PRIMARY KEY,
  basket_id TEXT NOT NULL,
  method_id TEXT NOT NULL,
  masked_card_number TEXT NOT NULL DEFAULT '',
  card_type TEXT NOT NULL DEFAULT '',
  cardholder_name TEXT NOT NULL DEFAULT '',
  expiration_month INTEGER NOT NULL DEFAULT 0,
  expiration_year INTEGER NOT NULL DEFAULT 0,
  amount_cents INTEGER NOT NULL,
  transaction_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(baskets).Error)
	require.NoError(t, db.Exec(shipments).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	require.NoError(t, db.Exec(instruments).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM payment_instruments")
		db.Exec("DELETE FROM line_items")
		db.Exec("DELETE FROM shipments")
		db.Exec("DELETE FROM baskets")
	})
	return db
}

func seedBasket(t *testing.T, repo *Repository, customerID uuid.UUID) *models.Basket {
	t.Helper()

	created, err := repo.Create(context.Background(), &models.Basket{CustomerID: &customerID})
	require.NoError(t, err)

	def := created.DefaultShipment()
	require.NotNil(t, def)

	item := models.LineItem{
		ID:             uuid.New(),
		BasketID:       created.ID,
		ShipmentID:     def.ID,
		ProductID:      "sku-1",
		ProductName:    "Canvas Tote",
		Qty:            2,
		UnitPriceCents: 1250,
		TotalCents:     2500,
	}
	def.Items = append(def.Items, item)
	require.NoError(t, repo.Save(context.Background(), created))
	return created
}

func TestRepositoryCreateAddsDefaultShipment(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	customerID := uuid.New()
	created, err := repo.Create(context.Background(), &models.Basket{CustomerID: &customerID})
	require.NoError(t, err)

	assert.Equal(t, enums.BasketStatusActive, created.Status)
	require.Len(t, created.Shipments, 1)
	assert.True(t, created.Shipments[0].IsDefault)
}

func TestRepositorySaveReplacesAggregate(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	customerID := uuid.New()
	created := seedBasket(t, repo, customerID)

	loaded, err := repo.ByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Shipments, 1)
	require.Len(t, loaded.Shipments[0].Items, 1)

	// add a second shipment, move the item there, set a billing address
	extra := models.Shipment{ID: uuid.New(), BasketID: loaded.ID}
	item := loaded.Shipments[0].Items[0]
	item.ShipmentID = extra.ID
	extra.Items = []models.LineItem{item}
	loaded.Shipments[0].Items = nil
	loaded.Shipments = append(loaded.Shipments, extra)
	loaded.BillingAddress = &types.Address{FirstName: "Ada", City: "London"}

	require.NoError(t, repo.Save(context.Background(), loaded))

	reloaded, err := repo.ByID(context.Background(), loaded.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Shipments, 2)

	def := reloaded.DefaultShipment()
	require.NotNil(t, def)
	assert.Empty(t, def.Items)

	moved := reloaded.ShipmentByID(extra.ID)
	require.NotNil(t, moved)
	require.Len(t, moved.Items, 1)
	assert.Equal(t, "sku-1", moved.Items[0].ProductID)

	require.NotNil(t, reloaded.BillingAddress)
	assert.Equal(t, "London", reloaded.BillingAddress.City)
}

func TestRepositorySaveDropsDeletedShipments(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	created := seedBasket(t, repo, uuid.New())
	loaded, err := repo.ByID(context.Background(), created.ID)
	require.NoError(t, err)

	extra := models.Shipment{ID: uuid.New(), BasketID: loaded.ID}
	loaded.Shipments = append(loaded.Shipments, extra)
	require.NoError(t, repo.Save(context.Background(), loaded))

	// drop it again
	loaded.Shipments = loaded.Shipments[:1]
	require.NoError(t, repo.Save(context.Background(), loaded))

	reloaded, err := repo.ByID(context.Background(), loaded.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Shipments, 1)
}

func TestRepositorySaveKeepsShipmentTimestamps(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	created := seedBasket(t, repo, uuid.New())
	loaded, err := repo.ByID(context.Background(), created.ID)
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	extra := models.Shipment{ID: uuid.New(), BasketID: loaded.ID, CreatedAt: later}
	loaded.Shipments = append(loaded.Shipments, extra)
	require.NoError(t, repo.Save(context.Background(), loaded))

	first, err := repo.ByID(context.Background(), loaded.ID)
	require.NoError(t, err)
	require.Len(t, first.Shipments, 2)
	assert.True(t, first.Shipments[0].IsDefault)

	// re-creating the child rows keeps their loaded timestamps, so the
	// created_at ordering survives repeated saves
	require.NoError(t, repo.Save(context.Background(), first))

	second, err := repo.ByID(context.Background(), loaded.ID)
	require.NoError(t, err)
	require.Len(t, second.Shipments, 2)
	assert.Equal(t, first.Shipments[0].ID, second.Shipments[0].ID)
	assert.Equal(t, first.Shipments[1].ID, second.Shipments[1].ID)
	assert.True(t, second.Shipments[1].CreatedAt.Equal(first.Shipments[1].CreatedAt))
}

func TestRepositoryActiveByCustomer(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	customerID := uuid.New()
	created := seedBasket(t, repo, customerID)

	found, err := repo.ActiveByCustomer(context.Background(), customerID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	require.Len(t, found.Shipments, 1)
	require.Len(t, found.Shipments[0].Items, 1)

	missing, err := repo.ActiveByCustomer(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryMarkConverted(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)

	customerID := uuid.New()
	created := seedBasket(t, repo, customerID)

	require.NoError(t, repo.MarkConverted(context.Background(), created.ID))

	active, err := repo.ActiveByCustomer(context.Background(), customerID)
	require.NoError(t, err)
	assert.Nil(t, active)

	loaded, err := repo.ByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BasketStatusConverted, loaded.Status)
}
