package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
)

func activeCoupon() *models.Coupon {
	amount := decimal.RequireFromString("5.00")
	return &models.Coupon{
		ID:                uuid.New(),
		Code:              "SAVE5",
		DiscountAmount:    &amount,
		ValidFrom:         time.Now().Add(-time.Hour),
		ValidTo:           time.Now().Add(time.Hour),
		Active:            true,
		MaxUses:           10,
		MinPurchaseAmount: decimal.RequireFromString("20.00"),
	}
}

func TestValidateRejectsInvalidStates(t *testing.T) {
	t.Parallel()

	now := time.Now()
	subtotal := decimal.RequireFromString("50.00")

	if err := Validate(activeCoupon(), subtotal, now); err != nil {
		t.Fatalf("expected valid coupon, got %v", err)
	}

	inactive := activeCoupon()
	inactive.Active = false
	if err := Validate(inactive, subtotal, now); err == nil {
		t.Fatal("expected inactive coupon to be rejected")
	}

	expired := activeCoupon()
	expired.ValidTo = now.Add(-time.Minute)
	if err := Validate(expired, subtotal, now); err == nil {
		t.Fatal("expected expired coupon to be rejected")
	}

	exhausted := activeCoupon()
	exhausted.UsedCount = exhausted.MaxUses
	if err := Validate(exhausted, subtotal, now); err == nil {
		t.Fatal("expected exhausted coupon to be rejected")
	}

	if err := Validate(activeCoupon(), decimal.RequireFromString("19.99"), now); err == nil {
		t.Fatal("expected subtotal below minimum to be rejected")
	}
	if typed := pkgerrors.As(Validate(activeCoupon(), decimal.Zero, now)); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatal("expected a validation-coded error")
	}
}

func TestDiscountFixedAmountWinsOverPercentage(t *testing.T) {
	t.Parallel()

	subtotal := decimal.RequireFromString("200.00")

	coupon := activeCoupon()
	pct := decimal.NewFromInt(10)
	coupon.DiscountPercentage = &pct
	if got := Discount(coupon, subtotal); !got.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected fixed 5.00, got %s", got)
	}

	coupon.DiscountAmount = nil
	if got := Discount(coupon, subtotal); !got.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected 10%% = 20.00, got %s", got)
	}

	coupon.DiscountPercentage = nil
	if got := Discount(coupon, subtotal); !got.Equal(decimal.Zero) {
		t.Fatalf("expected zero discount, got %s", got)
	}
}

func TestDiscountPercentageRoundsHalfUp(t *testing.T) {
	t.Parallel()

	coupon := activeCoupon()
	coupon.DiscountAmount = nil
	pct := decimal.RequireFromString("7.5")
	coupon.DiscountPercentage = &pct

	// 7.5% of 33.40 = 2.505 -> 2.51
	got := Discount(coupon, decimal.RequireFromString("33.40"))
	if !got.Equal(decimal.RequireFromString("2.51")) {
		t.Fatalf("expected 2.51, got %s", got)
	}
}

func newCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:coupons_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	schema := `
CREATE TABLE coupons (
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
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func TestIncrementUsageStopsAtMaxUses(t *testing.T) {
	t.Parallel()

	db := newCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	coupon := activeCoupon()
	coupon.MaxUses = 2
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.IncrementUsage(ctx, coupon.ID); err != nil {
			t.Fatalf("increment %d failed: %v", i+1, err)
		}
	}

	err := repo.IncrementUsage(ctx, coupon.ID)
	if err == nil {
		t.Fatal("expected third increment to fail")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}

	var stored models.Coupon
	if err := db.First(&stored, "id = ?", coupon.ID).Error; err != nil {
		t.Fatalf("load coupon: %v", err)
	}
	if stored.UsedCount != 2 {
		t.Fatalf("expected used_count 2, got %d", stored.UsedCount)
	}
}

func TestFindByCodeIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	db := newCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	coupon := activeCoupon()
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}

	found, err := repo.FindByCode(ctx, " save5 ")
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if found.ID != coupon.ID {
		t.Fatalf("expected coupon %s, got %s", coupon.ID, found.ID)
	}

	_, err = repo.FindByCode(ctx, "NOPE")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
