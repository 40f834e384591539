package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/pkg/config"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
)

// SourceKind tags where a line's unit price came from.
type SourceKind string

const (
	SourceVariant SourceKind = "variant"
	SourceProduct SourceKind = "product"
)

// PriceSource is the resolved unit price for a cart line, fixed once at cart
// read so every later computation in the request sees the same price.
type PriceSource struct {
	Kind      SourceKind
	VariantID *uuid.UUID
	Price     decimal.Decimal
}

// ResolvePriceSource picks the variant price when the line has a variant,
// otherwise the product price.
func ResolvePriceSource(product *models.Product, variant *models.Variant) PriceSource {
	if variant != nil {
		id := variant.ID
		return PriceSource{Kind: SourceVariant, VariantID: &id, Price: variant.Price}
	}
	return PriceSource{Kind: SourceProduct, Price: product.Price}
}

type converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, currency enums.Currency) decimal.Decimal
}

// Line is one cart line with its pricing inputs resolved.
type Line struct {
	ProductID        uuid.UUID
	Product          *models.Product
	Variant          *models.Variant
	Quantity         int
	DeliveryOptionID *uuid.UUID
}

// LineQuote carries exact base-currency figures plus display projections.
type LineQuote struct {
	ProductID        uuid.UUID
	VariantID        *uuid.UUID
	VendorID         uuid.UUID
	Quantity         int
	Source           PriceSource
	UnitPrice        decimal.Decimal
	Amount           decimal.Decimal
	PackagingFee     decimal.Decimal
	DeliveryOptionID *uuid.UUID
	DisplayUnitPrice decimal.Decimal
	DisplayAmount    decimal.Decimal
}

// Quote is a priced cart. Subtotal and PackagingFee are exact base-currency
// sums; the Display fields are converted once from those sums, never summed
// from converted parts.
type Quote struct {
	Currency            enums.Currency
	Lines               []LineQuote
	Subtotal            decimal.Decimal
	PackagingFee        decimal.Decimal
	DisplaySubtotal     decimal.Decimal
	DisplayPackagingFee decimal.Decimal
}

// Engine computes line amounts and packaging fees.
type Engine struct {
	cfg   config.PricingConfig
	rates converter
}

// NewEngine builds a pricing engine with the configured packaging rates.
func NewEngine(cfg config.PricingConfig, rates converter) *Engine {
	return &Engine{cfg: cfg, rates: rates}
}

// LineAmount is the exact extended amount for a line. No rounding happens
// before aggregation.
func (e *Engine) LineAmount(source PriceSource, quantity int) decimal.Decimal {
	return source.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

// PackagingFee charges weight and volume additively, per unit.
func (e *Engine) PackagingFee(product *models.Product, quantity int) decimal.Decimal {
	perUnit := product.Weight.Mul(e.cfg.PackagingWeightRate).
		Add(product.Volume.Mul(e.cfg.PackagingVolumeRate))
	return perUnit.Mul(decimal.NewFromInt(int64(quantity)))
}

// QuoteCart prices every line and aggregates in the base currency before any
// conversion.
func (e *Engine) QuoteCart(ctx context.Context, lines []Line, currency enums.Currency) Quote {
	quote := Quote{
		Currency:     currency,
		Lines:        make([]LineQuote, 0, len(lines)),
		Subtotal:     decimal.Zero,
		PackagingFee: decimal.Zero,
	}

	for _, line := range lines {
		source := ResolvePriceSource(line.Product, line.Variant)
		amount := e.LineAmount(source, line.Quantity)
		packaging := e.PackagingFee(line.Product, line.Quantity)

		lq := LineQuote{
			ProductID:        line.ProductID,
			VariantID:        source.VariantID,
			VendorID:         line.Product.VendorID,
			Quantity:         line.Quantity,
			Source:           source,
			UnitPrice:        source.Price,
			Amount:           amount,
			PackagingFee:     packaging,
			DeliveryOptionID: line.DeliveryOptionID,
			DisplayUnitPrice: e.rates.Convert(ctx, source.Price, currency),
			DisplayAmount:    e.rates.Convert(ctx, amount, currency),
		}
		quote.Lines = append(quote.Lines, lq)
		quote.Subtotal = quote.Subtotal.Add(amount)
		quote.PackagingFee = quote.PackagingFee.Add(packaging)
	}

	quote.DisplaySubtotal = e.rates.Convert(ctx, quote.Subtotal, currency)
	quote.DisplayPackagingFee = e.rates.Convert(ctx, quote.PackagingFee, currency)
	return quote
}
