package coupons

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Validate checks whether the coupon can be applied to a purchase of the
// given base-currency subtotal at the given time.
func Validate(coupon *models.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if coupon == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if !coupon.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidTo) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon is outside its validity window")
	}
	if coupon.MaxUses > 0 && coupon.UsedCount >= coupon.MaxUses {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	}
	if subtotal.LessThan(coupon.MinPurchaseAmount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "subtotal below coupon minimum purchase").
			WithDetails(map[string]any{"min_purchase_amount": coupon.MinPurchaseAmount.String()})
	}
	return nil
}

// Discount computes the discount a valid coupon grants: the fixed amount when
// set, otherwise the percentage of the subtotal, half-up to two decimals.
func Discount(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	if coupon.DiscountAmount != nil && coupon.DiscountAmount.IsPositive() {
		return coupon.DiscountAmount.Round(2)
	}
	if coupon.DiscountPercentage != nil && coupon.DiscountPercentage.IsPositive() {
		return subtotal.Mul(*coupon.DiscountPercentage).Div(oneHundred).Round(2)
	}
	return decimal.Zero
}
