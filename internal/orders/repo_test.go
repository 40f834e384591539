package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yawboateng/marketgh-backend/internal/delivery"
	"github.com/yawboateng/marketgh-backend/pkg/config"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
)

func newOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE vendors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			contact TEXT,
			latitude NUMERIC NOT NULL DEFAULT 0,
			longitude NUMERIC NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE products (
			id TEXT PRIMARY KEY,
			vendor_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			price NUMERIC NOT NULL,
			weight NUMERIC NOT NULL DEFAULT 0,
			volume NUMERIC NOT NULL DEFAULT 0,
			has_variants INTEGER NOT NULL DEFAULT 0,
			stock_quantity INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE variants (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			title TEXT NOT NULL,
			price NUMERIC NOT NULL,
			stock_quantity INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE delivery_options (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			min_days INTEGER NOT NULL DEFAULT 0,
			max_days INTEGER NOT NULL DEFAULT 0,
			cost NUMERIC NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE coupons (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			discount_amount NUMERIC,
			discount_percentage NUMERIC,
			valid_from DATETIME NOT NULL,
			valid_to DATETIME NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			max_uses INTEGER NOT NULL DEFAULT 0,
			used_count INTEGER NOT NULL DEFAULT 0,
			min_purchase_amount NUMERIC NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			order_number TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			is_ordered INTEGER NOT NULL DEFAULT 0,
			payment_reference TEXT,
			subtotal NUMERIC NOT NULL,
			delivery_fee NUMERIC NOT NULL,
			packaging_fee NUMERIC NOT NULL,
			discount NUMERIC NOT NULL DEFAULT 0,
			total NUMERIC NOT NULL,
			coupon_id TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE order_products (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			variant_id TEXT,
			vendor_id TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price NUMERIC NOT NULL,
			amount NUMERIC NOT NULL,
			delivery_option_id TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE order_vendors (
			order_id TEXT NOT NULL,
			vendor_id TEXT NOT NULL,
			PRIMARY KEY (order_id, vendor_id)
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type orderFixture struct {
	vendor  models.Vendor
	product models.Product
	option  models.DeliveryOption
}

func seedOrderFixture(t *testing.T, db *gorm.DB) orderFixture {
	t.Helper()

	vendor := models.Vendor{ID: uuid.New(), Name: "Tema Wholesale", Email: "tema@example.com", Latitude: 5.64, Longitude: 0.01}
	require.NoError(t, db.Create(&vendor).Error)

	product := models.Product{
		ID:       uuid.New(),
		VendorID: vendor.ID,
		Title:    "Adinkra Mug",
		Status:   enums.ProductStatusActive,
		Price:    decimal.RequireFromString("40.00"),
	}
	require.NoError(t, db.Create(&product).Error)

	option := models.DeliveryOption{ID: uuid.New(), Name: "Standard", MinDays: 3, MaxDays: 3, Cost: decimal.RequireFromString("12.00")}
	require.NoError(t, db.Create(&option).Error)

	return orderFixture{vendor: vendor, product: product, option: option}
}

func buildOrder(fx orderFixture, userID uuid.UUID) *models.Order {
	optionID := fx.option.ID
	return &models.Order{
		ID:           uuid.New(),
		OrderNumber:  "MGH-TEST" + uuid.NewString()[:4],
		UserID:       userID,
		Status:       enums.OrderStatusPending,
		IsOrdered:    true,
		Subtotal:     decimal.RequireFromString("80.00"),
		DeliveryFee:  decimal.RequireFromString("12.00"),
		PackagingFee: decimal.RequireFromString("2.00"),
		Discount:     decimal.Zero,
		Total:        decimal.RequireFromString("94.00"),
		Products: []models.OrderProduct{{
			ProductID:        fx.product.ID,
			VendorID:         fx.vendor.ID,
			Quantity:         2,
			UnitPrice:        decimal.RequireFromString("40.00"),
			Amount:           decimal.RequireFromString("80.00"),
			DeliveryOptionID: &optionID,
		}},
	}
}

func TestCreateAndFindOrder(t *testing.T) {
	t.Parallel()

	db := newOrdersTestDB(t)
	repo := NewRepository(db)
	fx := seedOrderFixture(t, db)
	userID := uuid.New()
	ctx := context.Background()

	order := buildOrder(fx, userID)
	require.NoError(t, repo.Create(ctx, order, []models.Vendor{fx.vendor}))

	loaded, err := repo.FindByIDForUser(ctx, order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, loaded.OrderNumber)
	assert.True(t, loaded.IsOrdered)
	require.Len(t, loaded.Products, 1)
	assert.Equal(t, fx.product.Title, loaded.Products[0].Product.Title)
	assert.True(t, loaded.Products[0].Amount.Equal(decimal.RequireFromString("80.00")))
	require.Len(t, loaded.Vendors, 1)
	assert.Equal(t, fx.vendor.ID, loaded.Vendors[0].ID)

	byNumber, err := repo.FindByNumberForUser(ctx, order.OrderNumber, userID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestFindOrderScopedToUser(t *testing.T) {
	t.Parallel()

	db := newOrdersTestDB(t)
	repo := NewRepository(db)
	fx := seedOrderFixture(t, db)
	ctx := context.Background()

	order := buildOrder(fx, uuid.New())
	require.NoError(t, repo.Create(ctx, order, []models.Vendor{fx.vendor}))

	_, err := repo.FindByIDForUser(ctx, order.ID, uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListByUserNewestFirst(t *testing.T) {
	t.Parallel()

	db := newOrdersTestDB(t)
	repo := NewRepository(db)
	fx := seedOrderFixture(t, db)
	userID := uuid.New()
	ctx := context.Background()

	older := buildOrder(fx, userID)
	require.NoError(t, repo.Create(ctx, older, nil))
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", older.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	newer := buildOrder(fx, userID)
	require.NoError(t, repo.Create(ctx, newer, nil))

	listed, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, newer.ID, listed[0].ID)
	assert.Equal(t, older.ID, listed[1].ID)
}

type identityRates struct{}

func (identityRates) Convert(_ context.Context, amount decimal.Decimal, _ enums.Currency) decimal.Decimal {
	return amount.Round(2)
}

type tenthRates struct{}

func (tenthRates) Convert(_ context.Context, amount decimal.Decimal, _ enums.Currency) decimal.Decimal {
	return amount.Mul(decimal.RequireFromString("0.1")).Round(2)
}

func TestDetailRendersVendorBreakdown(t *testing.T) {
	t.Parallel()

	db := newOrdersTestDB(t)
	repo := NewRepository(db)
	fx := seedOrderFixture(t, db)
	userID := uuid.New()
	ctx := context.Background()

	order := buildOrder(fx, userID)
	require.NoError(t, repo.Create(ctx, order, []models.Vendor{fx.vendor}))

	calc := delivery.NewCalculator(config.DeliveryConfig{SameDayCutoffHour: 12})
	svc, err := NewService(repo, calc, identityRates{})
	require.NoError(t, err)

	detail, err := svc.Detail(ctx, order.ID, userID, enums.BaseCurrency)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, detail.OrderNumber)
	assert.True(t, detail.Total.Equal(decimal.RequireFromString("94.00")))
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, "Adinkra Mug", detail.Lines[0].ProductTitle)
	require.Len(t, detail.Vendors, 1)
	assert.Equal(t, "Tema Wholesale", detail.Vendors[0].VendorName)
	assert.Equal(t, 2, detail.Vendors[0].ItemCount)
	assert.Equal(t, "In 3 days", detail.Vendors[0].DeliveryLabel)
}

func TestDetailConvertsAggregatesOnce(t *testing.T) {
	t.Parallel()

	db := newOrdersTestDB(t)
	repo := NewRepository(db)
	fx := seedOrderFixture(t, db)
	userID := uuid.New()
	ctx := context.Background()

	order := buildOrder(fx, userID)
	require.NoError(t, repo.Create(ctx, order, []models.Vendor{fx.vendor}))

	calc := delivery.NewCalculator(config.DeliveryConfig{SameDayCutoffHour: 12})
	svc, err := NewService(repo, calc, tenthRates{})
	require.NoError(t, err)

	detail, err := svc.Detail(ctx, order.ID, userID, enums.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, detail.Subtotal.Equal(decimal.RequireFromString("8.00")))
	assert.True(t, detail.Total.Equal(decimal.RequireFromString("9.40")))
}
