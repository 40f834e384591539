package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/yawboateng/marketgh-backend/internal/cart"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxCurrency  contextKey = "currency"
	ctxGuestCart contextKey = "guest_cart"
)

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok && v != uuid.Nil {
		return v, true
	}
	return uuid.Nil, false
}

// WithUserID injects the authenticated user id into the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

func CurrencyFromContext(ctx context.Context) enums.Currency {
	if ctx == nil {
		return enums.BaseCurrency
	}
	if v, ok := ctx.Value(ctxCurrency).(enums.Currency); ok && v != "" {
		return v
	}
	return enums.BaseCurrency
}

// WithCurrency injects the display currency into the context.
func WithCurrency(ctx context.Context, currency enums.Currency) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCurrency, currency)
}

func GuestCartFromContext(ctx context.Context) []cart.GuestLine {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxGuestCart).([]cart.GuestLine); ok {
		return v
	}
	return nil
}

// WithGuestCart injects the parsed guest cart lines into the context.
func WithGuestCart(ctx context.Context, lines []cart.GuestLine) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxGuestCart, lines)
}
