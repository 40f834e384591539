package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yawboateng/marketgh-backend/internal/cart"
	"github.com/yawboateng/marketgh-backend/internal/catalog"
	"github.com/yawboateng/marketgh-backend/internal/coupons"
	"github.com/yawboateng/marketgh-backend/internal/delivery"
	"github.com/yawboateng/marketgh-backend/internal/orders"
	"github.com/yawboateng/marketgh-backend/internal/pricing"
	"github.com/yawboateng/marketgh-backend/pkg/config"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
	"github.com/yawboateng/marketgh-backend/pkg/outbox"
)

func newCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

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
		`CREATE TABLE product_delivery_options (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			delivery_option_id TEXT NOT NULL,
			is_default INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			UNIQUE (product_id, delivery_option_id)
		)`,
		`CREATE TABLE profiles (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			latitude NUMERIC,
			longitude NUMERIC,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE carts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE cart_items (
			id TEXT PRIMARY KEY,
			cart_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			variant_id TEXT,
			quantity INTEGER NOT NULL DEFAULT 1,
			delivery_option_id TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE (cart_id, product_id, variant_id)
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
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type identityRates struct{}

func (identityRates) Convert(_ context.Context, amount decimal.Decimal, _ enums.Currency) decimal.Decimal {
	return amount.Round(2)
}

type fixture struct {
	svc    *Service
	db     *gorm.DB
	vendor *models.Vendor
	option *models.DeliveryOption
}

func newCheckoutFixture(t *testing.T) *fixture {
	t.Helper()

	db := newCheckoutTestDB(t)
	engine := pricing.NewEngine(config.PricingConfig{
		PackagingWeightRate: decimal.NewFromInt(1),
		PackagingVolumeRate: decimal.NewFromInt(1),
	}, identityRates{})
	calc := delivery.NewCalculator(config.DeliveryConfig{
		DefaultLatitude:   5.5600,
		DefaultLongitude:  -0.2050,
		SameDayCutoffHour: 12,
	})

	svc, err := NewService(Deps{
		Carts:    cart.NewRepository(db),
		Catalog:  catalog.NewRepository(db),
		Orders:   orders.NewRepository(db),
		Coupons:  coupons.NewRepository(db),
		Pricing:  engine,
		Delivery: calc,
		Rates:    identityRates{},
		Outbox:   outbox.NewService(outbox.NewRepository(db), nil),
		Tx:       testTxRunner{db: db},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	vendor := &models.Vendor{ID: uuid.New(), Name: "Makola Traders", Email: "makola@example.com", Latitude: 5.5600, Longitude: -0.2050}
	if err := db.Create(vendor).Error; err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	option := &models.DeliveryOption{ID: uuid.New(), Name: "Standard", MinDays: 2, MaxDays: 2, Cost: decimal.RequireFromString("10.00")}
	if err := db.Create(option).Error; err != nil {
		t.Fatalf("seed option: %v", err)
	}
	return &fixture{svc: svc, db: db, vendor: vendor, option: option}
}

func (f *fixture) seedProduct(t *testing.T, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		VendorID:      f.vendor.ID,
		Title:         "Kente Throw",
		Status:        enums.ProductStatusActive,
		Price:         decimal.RequireFromString(price),
		Weight:        decimal.RequireFromString("0.5"),
		Volume:        decimal.RequireFromString("0.001"),
		StockQuantity: stock,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	link := &models.ProductDeliveryOption{ID: uuid.New(), ProductID: product.ID, DeliveryOptionID: f.option.ID, IsDefault: true}
	if err := f.db.Create(link).Error; err != nil {
		t.Fatalf("seed product delivery option: %v", err)
	}
	return product
}

func (f *fixture) seedCart(t *testing.T, userID uuid.UUID, product *models.Product, variantID *uuid.UUID, quantity int) {
	t.Helper()
	c := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusActive}
	if err := f.db.Create(c).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	optionID := f.option.ID
	item := &models.CartItem{
		ID:               uuid.New(),
		CartID:           c.ID,
		ProductID:        product.ID,
		VariantID:        variantID,
		Quantity:         quantity,
		DeliveryOptionID: &optionID,
	}
	if err := f.db.Create(item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
}

// seedProductNoDefault links the shared option without a default flag, so a
// cart line with no explicit selection resolves to no option.
func (f *fixture) seedProductNoDefault(t *testing.T, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		VendorID:      f.vendor.ID,
		Title:         "Bolga Basket",
		Status:        enums.ProductStatusActive,
		Price:         decimal.RequireFromString(price),
		Weight:        decimal.RequireFromString("0.5"),
		Volume:        decimal.RequireFromString("0.001"),
		StockQuantity: stock,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	link := &models.ProductDeliveryOption{ID: uuid.New(), ProductID: product.ID, DeliveryOptionID: f.option.ID, IsDefault: false}
	if err := f.db.Create(link).Error; err != nil {
		t.Fatalf("seed product delivery option: %v", err)
	}
	return product
}

func (f *fixture) seedProductNoOptions(t *testing.T, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		VendorID:      f.vendor.ID,
		Title:         "Adinkra Stamp",
		Status:        enums.ProductStatusActive,
		Price:         decimal.RequireFromString(price),
		Weight:        decimal.RequireFromString("0.5"),
		Volume:        decimal.RequireFromString("0.001"),
		StockQuantity: stock,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *fixture) seedCartNoSelection(t *testing.T, userID uuid.UUID, product *models.Product, quantity int) {
	t.Helper()
	c := &models.Cart{ID: uuid.New(), UserID: userID, Status: enums.CartStatusActive}
	if err := f.db.Create(c).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	item := &models.CartItem{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: product.ID,
		Quantity:  quantity,
	}
	if err := f.db.Create(item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
}

func TestPreviewEmptyCart(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)

	_, err := f.svc.Preview(context.Background(), Input{UserID: uuid.New(), Currency: enums.BaseCurrency})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPreviewContinuesWithoutDeliverySelection(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProductNoDefault(t, "25.00", 10)
	userID := uuid.New()
	f.seedCartNoSelection(t, userID, product, 2)

	preview, err := f.svc.Preview(context.Background(), Input{UserID: userID, Currency: enums.BaseCurrency})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	if len(preview.DeliverySelectionNeeded) != 1 || preview.DeliverySelectionNeeded[0] != product.ID {
		t.Fatalf("expected product %s awaiting selection, got %v", product.ID, preview.DeliverySelectionNeeded)
	}
	if len(preview.Items) != 1 || preview.Items[0].DeliveryOptionID != nil {
		t.Fatalf("expected item without delivery option, got %+v", preview.Items)
	}
	if len(preview.Vendors) != 1 {
		t.Fatalf("expected 1 vendor leg, got %d", len(preview.Vendors))
	}
	if preview.Vendors[0].DeliveryLabel != "Delivery option not selected" {
		t.Fatalf("expected unselected label, got %q", preview.Vendors[0].DeliveryLabel)
	}
	if !preview.Vendors[0].DeliveryFee.IsZero() {
		t.Fatalf("expected unpriced leg, got fee %s", preview.Vendors[0].DeliveryFee)
	}
	if !preview.Subtotal.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected subtotal 50.00, got %s", preview.Subtotal)
	}

	_, err = f.svc.Confirm(context.Background(), ConfirmInput{Input: Input{UserID: userID, Currency: enums.BaseCurrency}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on confirm, got %v", err)
	}
}

func TestPreviewFailsWithoutAnyDeliveryOptions(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProductNoOptions(t, "25.00", 10)
	userID := uuid.New()
	f.seedCartNoSelection(t, userID, product, 1)

	_, err := f.svc.Preview(context.Background(), Input{UserID: userID, Currency: enums.BaseCurrency})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "no delivery options available for some items" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestPreviewTotals(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProduct(t, "25.00", 10)
	userID := uuid.New()
	f.seedCart(t, userID, product, nil, 2)

	preview, err := f.svc.Preview(context.Background(), Input{UserID: userID, Currency: enums.BaseCurrency})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	if !preview.Subtotal.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected subtotal 50.00, got %s", preview.Subtotal)
	}
	if !preview.PackagingFee.Equal(decimal.RequireFromString("1.00")) {
		t.Fatalf("expected packaging 1.00, got %s", preview.PackagingFee)
	}
	// vendor and buyer share the default point, so the band multiplier is 1
	if !preview.DeliveryFee.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected delivery 10.00, got %s", preview.DeliveryFee)
	}
	if !preview.Total.Equal(decimal.RequireFromString("61.00")) {
		t.Fatalf("expected total 61.00, got %s", preview.Total)
	}
	if len(preview.Vendors) != 1 {
		t.Fatalf("expected 1 vendor leg, got %d", len(preview.Vendors))
	}
	if preview.Vendors[0].DeliveryLabel != "In 2 days" {
		t.Fatalf("expected label 'In 2 days', got %q", preview.Vendors[0].DeliveryLabel)
	}
	if preview.Coupon != nil {
		t.Fatalf("expected no coupon status, got %+v", preview.Coupon)
	}
}

func TestPreviewCouponDowngrade(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProduct(t, "25.00", 10)
	userID := uuid.New()
	f.seedCart(t, userID, product, nil, 2)

	preview, err := f.svc.Preview(context.Background(), Input{UserID: userID, Currency: enums.BaseCurrency, CouponCode: "NOPE"})
	if err != nil {
		t.Fatalf("Preview with unknown coupon: %v", err)
	}
	if preview.Coupon == nil || preview.Coupon.Applied {
		t.Fatalf("expected downgraded coupon status, got %+v", preview.Coupon)
	}
	if !preview.Total.Equal(decimal.RequireFromString("61.00")) {
		t.Fatalf("unknown coupon must not change the total, got %s", preview.Total)
	}

	amount := decimal.RequireFromString("5.00")
	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           "SAVE5",
		DiscountAmount: &amount,
		ValidFrom:      time.Now().Add(-time.Hour),
		ValidTo:        time.Now().Add(time.Hour),
		Active:         true,
	}
	if err := f.db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}

	preview, err = f.svc.Preview(context.Background(), Input{UserID: userID, Currency: enums.BaseCurrency, CouponCode: "SAVE5"})
	if err != nil {
		t.Fatalf("Preview with valid coupon: %v", err)
	}
	if preview.Coupon == nil || !preview.Coupon.Applied {
		t.Fatalf("expected applied coupon, got %+v", preview.Coupon)
	}
	if !preview.Discount.Equal(amount) {
		t.Fatalf("expected discount 5.00, got %s", preview.Discount)
	}
	if !preview.Total.Equal(decimal.RequireFromString("56.00")) {
		t.Fatalf("expected total 56.00, got %s", preview.Total)
	}
}

func TestConfirmCreatesOrder(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProduct(t, "25.00", 10)
	amount := decimal.RequireFromString("5.00")
	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           "SAVE5",
		DiscountAmount: &amount,
		ValidFrom:      time.Now().Add(-time.Hour),
		ValidTo:        time.Now().Add(time.Hour),
		Active:         true,
		MaxUses:        3,
	}
	if err := f.db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	userID := uuid.New()
	f.seedCart(t, userID, product, nil, 2)

	ctx := context.Background()
	result, err := f.svc.Confirm(ctx, ConfirmInput{
		Input:            Input{UserID: userID, Currency: enums.BaseCurrency, CouponCode: "SAVE5"},
		PaymentReference: "flw-12345",
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if result.OrderNumber == "" || result.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected result %+v", result)
	}
	if !result.Total.Equal(decimal.RequireFromString("56.00")) {
		t.Fatalf("expected total 56.00, got %s", result.Total)
	}

	var order models.Order
	if err := f.db.Preload("Products").Preload("Vendors").First(&order, "id = ?", result.OrderID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if !order.IsOrdered || order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending ordered order, got %+v", order)
	}
	if order.PaymentReference != "flw-12345" {
		t.Fatalf("expected payment reference recorded, got %q", order.PaymentReference)
	}
	if len(order.Products) != 1 || order.Products[0].Quantity != 2 {
		t.Fatalf("expected one snapshot of quantity 2, got %+v", order.Products)
	}
	if !order.Products[0].UnitPrice.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("expected snapshot unit price 25.00, got %s", order.Products[0].UnitPrice)
	}
	if len(order.Vendors) != 1 || order.Vendors[0].ID != f.vendor.ID {
		t.Fatalf("expected vendor linked, got %+v", order.Vendors)
	}

	var stocked models.Product
	if err := f.db.First(&stocked, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stocked.StockQuantity != 8 {
		t.Fatalf("expected stock 8 after confirm, got %d", stocked.StockQuantity)
	}

	var used models.Coupon
	if err := f.db.First(&used, "id = ?", coupon.ID).Error; err != nil {
		t.Fatalf("load coupon: %v", err)
	}
	if used.UsedCount != 1 {
		t.Fatalf("expected coupon used once, got %d", used.UsedCount)
	}

	var carts int64
	if err := f.db.Model(&models.Cart{}).Where("user_id = ?", userID).Count(&carts).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if carts != 0 {
		t.Fatal("expected cart torn down after confirm")
	}

	var event models.OutboxEvent
	if err := f.db.First(&event, "aggregate_id = ? AND event_type = ?", order.ID, enums.EventOrderConfirmed).Error; err != nil {
		t.Fatalf("load outbox event: %v", err)
	}

	var eventTypes []string
	if err := f.db.Model(&models.OutboxEvent{}).Order("event_type").Pluck("event_type", &eventTypes).Error; err != nil {
		t.Fatalf("list outbox events: %v", err)
	}
	want := []string{"cart_converted", "coupon_redeemed", "order_confirmed", "stock_decremented"}
	if len(eventTypes) != len(want) {
		t.Fatalf("expected %d outbox events, got %v", len(want), eventTypes)
	}
	for i, typ := range want {
		if eventTypes[i] != typ {
			t.Fatalf("expected event %s at position %d, got %v", typ, i, eventTypes)
		}
	}
}

func TestConfirmInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProduct(t, "25.00", 1)
	userID := uuid.New()
	f.seedCart(t, userID, product, nil, 2)

	_, err := f.svc.Confirm(context.Background(), ConfirmInput{Input: Input{UserID: userID, Currency: enums.BaseCurrency}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var stocked models.Product
	if err := f.db.First(&stocked, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stocked.StockQuantity != 1 {
		t.Fatalf("stock must be untouched after rollback, got %d", stocked.StockQuantity)
	}

	var ordersCount int64
	if err := f.db.Model(&models.Order{}).Count(&ordersCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if ordersCount != 0 {
		t.Fatalf("expected no orders, got %d", ordersCount)
	}

	var carts int64
	if err := f.db.Model(&models.Cart{}).Where("user_id = ?", userID).Count(&carts).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if carts != 1 {
		t.Fatal("cart must survive a failed confirm")
	}
}

func TestConfirmSequentialStockExhaustion(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProduct(t, "25.00", 3)
	first := uuid.New()
	second := uuid.New()
	f.seedCart(t, first, product, nil, 2)
	f.seedCart(t, second, product, nil, 2)

	ctx := context.Background()
	if _, err := f.svc.Confirm(ctx, ConfirmInput{Input: Input{UserID: first, Currency: enums.BaseCurrency}}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	_, err := f.svc.Confirm(ctx, ConfirmInput{Input: Input{UserID: second, Currency: enums.BaseCurrency}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected second confirm to exhaust stock, got %v", err)
	}

	var stocked models.Product
	if err := f.db.First(&stocked, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stocked.StockQuantity != 1 {
		t.Fatalf("expected stock 1 after one confirm, got %d", stocked.StockQuantity)
	}
}

func TestConfirmDecrementsVariantStock(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProduct(t, "25.00", 5)
	variant := &models.Variant{
		ID:            uuid.New(),
		ProductID:     product.ID,
		Title:         "Large",
		Price:         decimal.RequireFromString("30.00"),
		StockQuantity: 4,
	}
	if err := f.db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	userID := uuid.New()
	variantID := variant.ID
	f.seedCart(t, userID, product, &variantID, 3)

	result, err := f.svc.Confirm(context.Background(), ConfirmInput{Input: Input{UserID: userID, Currency: enums.BaseCurrency}})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	var stockedVariant models.Variant
	if err := f.db.First(&stockedVariant, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if stockedVariant.StockQuantity != 1 {
		t.Fatalf("expected variant stock 1, got %d", stockedVariant.StockQuantity)
	}

	var stockedProduct models.Product
	if err := f.db.First(&stockedProduct, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stockedProduct.StockQuantity != 5 {
		t.Fatalf("product stock must be untouched for variant lines, got %d", stockedProduct.StockQuantity)
	}

	var snapshot models.OrderProduct
	if err := f.db.First(&snapshot, "order_id = ?", result.OrderID).Error; err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if !snapshot.UnitPrice.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("expected variant price snapshot 30.00, got %s", snapshot.UnitPrice)
	}
}
