package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yawboateng/marketgh-backend/internal/cart"
	"github.com/yawboateng/marketgh-backend/internal/catalog"
	"github.com/yawboateng/marketgh-backend/internal/coupons"
	"github.com/yawboateng/marketgh-backend/internal/delivery"
	"github.com/yawboateng/marketgh-backend/internal/orders"
	"github.com/yawboateng/marketgh-backend/internal/pricing"
	"github.com/yawboateng/marketgh-backend/pkg/db"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
	"github.com/yawboateng/marketgh-backend/pkg/logger"
	"github.com/yawboateng/marketgh-backend/pkg/metrics"
	"github.com/yawboateng/marketgh-backend/pkg/outbox"
)

const (
	orderNumberPrefix   = "MGH-"
	orderNumberAttempts = 5

	labelDeliveryNotSelected = "Delivery option not selected"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, currency enums.Currency) decimal.Decimal
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service orchestrates checkout: a read-only preview and the transactional
// confirmation that turns a cart into an order.
type Service struct {
	carts    *cart.Repository
	catalog  *catalog.Repository
	orders   *orders.Repository
	coupons  *coupons.Repository
	pricing  *pricing.Engine
	delivery *delivery.Calculator
	rates    converter
	outbox   eventEmitter
	metrics  *metrics.CheckoutMetrics
	tx       txRunner
	logg     *logger.Logger
	now      func() time.Time
}

// Deps carries the checkout service's collaborators.
type Deps struct {
	Carts    *cart.Repository
	Catalog  *catalog.Repository
	Orders   *orders.Repository
	Coupons  *coupons.Repository
	Pricing  *pricing.Engine
	Delivery *delivery.Calculator
	Rates    converter
	Outbox   eventEmitter
	Metrics  *metrics.CheckoutMetrics
	Tx       txRunner
	Logger   *logger.Logger
}

// NewService validates the dependency set and builds the orchestrator.
func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("catalog repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("order repository required")
	case deps.Coupons == nil:
		return nil, fmt.Errorf("coupon repository required")
	case deps.Pricing == nil:
		return nil, fmt.Errorf("pricing engine required")
	case deps.Delivery == nil:
		return nil, fmt.Errorf("delivery calculator required")
	case deps.Rates == nil:
		return nil, fmt.Errorf("rate converter required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{
		carts:    deps.Carts,
		catalog:  deps.Catalog,
		orders:   deps.Orders,
		coupons:  deps.Coupons,
		pricing:  deps.Pricing,
		delivery: deps.Delivery,
		rates:    deps.Rates,
		outbox:   deps.Outbox,
		metrics:  deps.Metrics,
		tx:       deps.Tx,
		logg:     deps.Logger,
		now:      time.Now,
	}, nil
}

// Input identifies the buyer and the requested display currency.
type Input struct {
	UserID     uuid.UUID
	Currency   enums.Currency
	CouponCode string
}

// ConfirmInput extends Input with the payment reference recorded on the
// order.
type ConfirmInput struct {
	Input
	PaymentReference string
}

// ItemPreview is one cart line as it will be charged, in display currency.
type ItemPreview struct {
	ProductID        uuid.UUID
	VariantID        *uuid.UUID
	VendorID         uuid.UUID
	Quantity         int
	UnitPrice        decimal.Decimal
	Amount           decimal.Decimal
	DeliveryOptionID *uuid.UUID
}

// VendorPreview is the delivery leg for one vendor's shipment.
type VendorPreview struct {
	VendorID      uuid.UUID
	VendorName    string
	DeliveryFee   decimal.Decimal
	DeliveryLabel string
}

// CouponStatus reports what happened to the submitted coupon code. An
// invalid coupon downgrades to no discount instead of failing the preview.
type CouponStatus struct {
	Code     string
	Applied  bool
	Reason   string
	Discount decimal.Decimal
}

// Preview is the full checkout quote in the requested display currency.
// DeliverySelectionNeeded lists products whose lines still need a delivery
// option picked before Confirm will accept the cart.
type Preview struct {
	Currency                enums.Currency
	Items                   []ItemPreview
	Vendors                 []VendorPreview
	Subtotal                decimal.Decimal
	PackagingFee            decimal.Decimal
	DeliveryFee             decimal.Decimal
	Discount                decimal.Decimal
	Total                   decimal.Decimal
	Coupon                  *CouponStatus
	DeliverySelectionNeeded []uuid.UUID
}

// ConfirmResult identifies the order created by Confirm.
type ConfirmResult struct {
	OrderID     uuid.UUID
	OrderNumber string
	Status      enums.OrderStatus
	Currency    enums.Currency
	Total       decimal.Decimal
}

// lineDraft pairs a priced line with its resolved delivery option.
type lineDraft struct {
	quote  pricing.LineQuote
	item   models.CartItem
	option *models.DeliveryOption
}

// vendorDraft is one shipment: the vendor plus the option whose cost prices
// the leg. With several options selected across the vendor's lines, the most
// expensive one prices the shipment.
type vendorDraft struct {
	vendor *models.Vendor
	option *models.DeliveryOption
	fee    decimal.Decimal
	label  string
}

// draft carries the exact base-currency checkout figures shared by Preview
// and Confirm.
type draft struct {
	cart         *models.Cart
	lines        []lineDraft
	unselected   []uuid.UUID
	quote        pricing.Quote
	vendors      []vendorDraft
	deliveryFee  decimal.Decimal
	coupon       *models.Coupon
	couponStatus *CouponStatus
	discount     decimal.Decimal
	total        decimal.Decimal
}

// Preview prices the user's cart without touching stock, coupons or orders.
func (s *Service) Preview(ctx context.Context, input Input) (*Preview, error) {
	d, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.renderPreview(ctx, d, input.Currency), nil
}

func (s *Service) build(ctx context.Context, input Input) (*draft, error) {
	userCart, err := s.carts.FindByUser(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, err
	}
	if len(userCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines, missing, unselected := s.resolveLines(userCart.Items)
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no delivery options available for some items").
			WithDetails(map[string]any{"product_ids": uuidStrings(missing)})
	}

	pricingLines := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		pricingLines = append(pricingLines, pricing.Line{
			ProductID:        line.item.ProductID,
			Product:          line.item.Product,
			Variant:          line.item.Variant,
			Quantity:         line.item.Quantity,
			DeliveryOptionID: line.item.DeliveryOptionID,
		})
	}
	quote := s.pricing.QuoteCart(ctx, pricingLines, input.Currency)
	for i := range lines {
		lines[i].quote = quote.Lines[i]
	}

	profile, err := s.catalog.GetProfile(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	buyer := s.delivery.BuyerPoint(profile)

	vendors := s.resolveVendors(lines, buyer)
	deliveryFee := decimal.Zero
	for _, v := range vendors {
		deliveryFee = deliveryFee.Add(v.fee)
	}

	d := &draft{
		cart:        userCart,
		lines:       lines,
		unselected:  unselected,
		quote:       quote,
		vendors:     vendors,
		deliveryFee: deliveryFee,
		discount:    decimal.Zero,
	}

	if code := strings.TrimSpace(input.CouponCode); code != "" {
		s.applyCoupon(ctx, d, code)
	}

	d.total = quote.Subtotal.Add(quote.PackagingFee).Add(deliveryFee).Sub(d.discount)
	if d.total.IsNegative() {
		d.total = decimal.Zero
	}
	return d, nil
}

// resolveLines matches each cart item to its delivery option: the buyer's
// selection when present, else the product default. Products exposing no
// options at all are reported as missing; products whose options carry no
// selection and no default keep a nil option and are reported as unselected,
// so the preview can continue and ask the buyer to choose.
func (s *Service) resolveLines(items []models.CartItem) (lines []lineDraft, missing, unselected []uuid.UUID) {
	lines = make([]lineDraft, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		if len(item.Product.DeliveryOptions) == 0 {
			missing = append(missing, item.ProductID)
			continue
		}
		option := optionForItem(item)
		if option == nil {
			unselected = append(unselected, item.ProductID)
		}
		lines = append(lines, lineDraft{item: item, option: option})
	}
	return lines, missing, unselected
}

func optionForItem(item models.CartItem) *models.DeliveryOption {
	if item.DeliveryOptionID != nil {
		for i := range item.Product.DeliveryOptions {
			link := item.Product.DeliveryOptions[i]
			if link.DeliveryOptionID == *item.DeliveryOptionID && link.DeliveryOption != nil {
				return link.DeliveryOption
			}
		}
	}
	return delivery.ResolveDefaultOption(item.Product.DeliveryOptions)
}

func (s *Service) resolveVendors(lines []lineDraft, buyer delivery.Point) []vendorDraft {
	byVendor := make(map[uuid.UUID]*vendorDraft)
	var order []uuid.UUID
	for _, line := range lines {
		vendor := line.item.Product.Vendor
		if vendor == nil {
			continue
		}
		existing, ok := byVendor[vendor.ID]
		if !ok {
			byVendor[vendor.ID] = &vendorDraft{vendor: vendor, option: line.option}
			order = append(order, vendor.ID)
			continue
		}
		if line.option != nil && (existing.option == nil || line.option.Cost.GreaterThan(existing.option.Cost)) {
			existing.option = line.option
		}
	}

	now := s.now()
	vendors := make([]vendorDraft, 0, len(order))
	for _, id := range order {
		v := byVendor[id]
		if v.option == nil {
			// every line for this vendor is awaiting a selection, so the
			// leg cannot be priced yet
			v.fee = decimal.Zero
			v.label = labelDeliveryNotSelected
			vendors = append(vendors, *v)
			continue
		}
		point := delivery.Point{Latitude: v.vendor.Latitude, Longitude: v.vendor.Longitude}
		v.fee = s.delivery.Fee(point, buyer, v.option.Cost)
		v.label = s.delivery.DateRangeLabel(v.option.MinDays, v.option.MaxDays, now)
		vendors = append(vendors, *v)
	}
	return vendors
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// applyCoupon validates the submitted code against the exact subtotal. Any
// rejection downgrades to a zero discount and is reported in the status.
func (s *Service) applyCoupon(ctx context.Context, d *draft, code string) {
	status := &CouponStatus{Code: code, Discount: decimal.Zero}
	d.couponStatus = status

	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		status.Reason = "coupon not found"
		return
	}
	if err := coupons.Validate(coupon, d.quote.Subtotal, s.now()); err != nil {
		status.Reason = rejectionReason(err)
		return
	}
	d.coupon = coupon
	d.discount = coupons.Discount(coupon, d.quote.Subtotal)
	status.Applied = true
	status.Discount = d.discount
}

func rejectionReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "coupon rejected"
}

func (s *Service) renderPreview(ctx context.Context, d *draft, currency enums.Currency) *Preview {
	preview := &Preview{
		Currency:     currency,
		Items:        make([]ItemPreview, 0, len(d.lines)),
		Vendors:      make([]VendorPreview, 0, len(d.vendors)),
		Subtotal:     d.quote.DisplaySubtotal,
		PackagingFee: d.quote.DisplayPackagingFee,
		DeliveryFee:  s.rates.Convert(ctx, d.deliveryFee, currency),
		Discount:     s.rates.Convert(ctx, d.discount, currency),
		Total:        s.rates.Convert(ctx, d.total, currency),

		DeliverySelectionNeeded: d.unselected,
	}
	for _, line := range d.lines {
		var optionID *uuid.UUID
		if line.option != nil {
			id := line.option.ID
			optionID = &id
		}
		preview.Items = append(preview.Items, ItemPreview{
			ProductID:        line.quote.ProductID,
			VariantID:        line.quote.VariantID,
			VendorID:         line.quote.VendorID,
			Quantity:         line.quote.Quantity,
			UnitPrice:        line.quote.DisplayUnitPrice,
			Amount:           line.quote.DisplayAmount,
			DeliveryOptionID: optionID,
		})
	}
	for _, v := range d.vendors {
		preview.Vendors = append(preview.Vendors, VendorPreview{
			VendorID:      v.vendor.ID,
			VendorName:    v.vendor.Name,
			DeliveryFee:   s.rates.Convert(ctx, v.fee, currency),
			DeliveryLabel: v.label,
		})
	}
	if d.couponStatus != nil {
		status := *d.couponStatus
		status.Discount = s.rates.Convert(ctx, status.Discount, currency)
		preview.Coupon = &status
	}
	return preview
}

// Confirm turns the cart into an order inside one transaction: stock is
// decremented with a conditional update per line, prices are frozen into
// order snapshots, coupon usage is taken, the confirmation event is written
// to the outbox, and the cart is torn down last. Any failure rolls the whole
// transaction back.
func (s *Service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	started := s.now()

	d, err := s.build(ctx, input.Input)
	if err != nil {
		s.recordFailure(started, err)
		return nil, err
	}
	if len(d.unselected) > 0 {
		err = pkgerrors.New(pkgerrors.CodeValidation, "delivery option not selected for some items").
			WithDetails(map[string]any{"product_ids": uuidStrings(d.unselected)})
		s.recordFailure(started, err)
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cat := s.catalog.WithTx(tx)
		for _, line := range d.lines {
			if line.item.VariantID != nil {
				if err := cat.DecrementVariantStock(ctx, *line.item.VariantID, line.item.Quantity); err != nil {
					return err
				}
				continue
			}
			if err := cat.DecrementProductStock(ctx, line.item.ProductID, line.item.Quantity); err != nil {
				return err
			}
		}

		order, err = s.createOrder(ctx, tx, input, d)
		if err != nil {
			return err
		}

		if d.coupon != nil {
			if err := s.coupons.WithTx(tx).IncrementUsage(ctx, d.coupon.ID); err != nil {
				return err
			}
		}

		if s.outbox != nil {
			if err := s.emitConfirmed(ctx, tx, input, d, order); err != nil {
				return err
			}
			if err := s.emitCompanions(ctx, tx, input, d, order); err != nil {
				return err
			}
		}

		return s.carts.WithTx(tx).DeleteCart(ctx, d.cart.ID)
	})
	if err != nil {
		err = classifyConfirmErr(err)
		s.recordFailure(started, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveDuration("success", s.now().Sub(started))
		s.metrics.IncSuccess(string(input.Currency))
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
		s.logg.Info(logCtx, "checkout confirmed")
	}

	return &ConfirmResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Currency:    input.Currency,
		Total:       s.rates.Convert(ctx, d.total, input.Currency),
	}, nil
}

func (s *Service) createOrder(ctx context.Context, tx *gorm.DB, input ConfirmInput, d *draft) (*models.Order, error) {
	snapshots := make([]models.OrderProduct, 0, len(d.lines))
	for _, line := range d.lines {
		optionID := line.option.ID
		snapshots = append(snapshots, models.OrderProduct{
			ProductID:        line.quote.ProductID,
			VariantID:        line.quote.VariantID,
			VendorID:         line.quote.VendorID,
			Quantity:         line.quote.Quantity,
			UnitPrice:        line.quote.UnitPrice.Round(2),
			Amount:           line.quote.Amount.Round(2),
			DeliveryOptionID: &optionID,
		})
	}

	vendors := make([]models.Vendor, 0, len(d.vendors))
	for _, v := range d.vendors {
		vendors = append(vendors, *v.vendor)
	}

	var couponID *uuid.UUID
	if d.coupon != nil {
		id := d.coupon.ID
		couponID = &id
	}

	repo := s.orders.WithTx(tx)
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order := &models.Order{
			ID:               uuid.New(),
			OrderNumber:      newOrderNumber(),
			UserID:           input.UserID,
			Status:           enums.OrderStatusPending,
			IsOrdered:        true,
			PaymentReference: input.PaymentReference,
			Subtotal:         d.quote.Subtotal.Round(2),
			DeliveryFee:      d.deliveryFee.Round(2),
			PackagingFee:     d.quote.PackagingFee.Round(2),
			Discount:         d.discount.Round(2),
			Total:            d.total.Round(2),
			CouponID:         couponID,
			Products:         snapshots,
		}
		err := repo.Create(ctx, order, vendors)
		if err == nil {
			return order, nil
		}
		if !db.IsUniqueViolation(err, "order_number") {
			return nil, err
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "order number collision persisted")
}

func (s *Service) emitConfirmed(ctx context.Context, tx *gorm.DB, input ConfirmInput, d *draft, order *models.Order) error {
	vendorIDs := make([]string, 0, len(d.vendors))
	for _, v := range d.vendors {
		vendorIDs = append(vendorIDs, v.vendor.ID.String())
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderConfirmed,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: input.UserID},
		Data: map[string]any{
			"order_number":      order.OrderNumber,
			"user_id":           input.UserID.String(),
			"subtotal":          order.Subtotal.String(),
			"delivery_fee":      order.DeliveryFee.String(),
			"packaging_fee":     order.PackagingFee.String(),
			"discount":          order.Discount.String(),
			"total":             order.Total.String(),
			"currency":          string(enums.BaseCurrency),
			"display_currency":  string(input.Currency),
			"payment_reference": order.PaymentReference,
			"vendor_ids":        vendorIDs,
		},
		Version: 1,
	})
}

// emitCompanions writes the secondary events consumers key on: the cart
// conversion (deduped, since a confirm retry replays the same cart id), the
// coupon redemption, and the stock movement for the inventory feed.
func (s *Service) emitCompanions(ctx context.Context, tx *gorm.DB, input ConfirmInput, d *draft, order *models.Order) error {
	actor := &outbox.ActorRef{UserID: input.UserID}

	if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCartConverted,
		AggregateType: enums.AggregateCart,
		AggregateID:   d.cart.ID,
		Actor:         actor,
		Data: map[string]any{
			"cart_id":      d.cart.ID.String(),
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
		Version: 1,
	}); err != nil {
		return err
	}

	if d.coupon != nil {
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCouponRedeemed,
			AggregateType: enums.AggregateCoupon,
			AggregateID:   d.coupon.ID,
			Actor:         actor,
			Data: map[string]any{
				"code":     d.coupon.Code,
				"order_id": order.ID.String(),
				"discount": order.Discount.String(),
			},
			Version: 1,
		}); err != nil {
			return err
		}
	}

	movements := make([]map[string]any, 0, len(d.lines))
	for _, line := range d.lines {
		movement := map[string]any{
			"product_id": line.item.ProductID.String(),
			"quantity":   line.item.Quantity,
		}
		if line.item.VariantID != nil {
			movement["variant_id"] = line.item.VariantID.String()
		}
		movements = append(movements, movement)
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockDecremented,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data:          map[string]any{"order_number": order.OrderNumber, "lines": movements},
		Version:       1,
	})
}

// classifyConfirmErr keeps coded domain errors intact and wraps anything else
// as a state conflict so callers see the rollback cause.
func classifyConfirmErr(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "checkout aborted")
}

func (s *Service) recordFailure(started time.Time, err error) {
	if s.metrics == nil {
		return
	}
	reason := "internal"
	if typed := pkgerrors.As(err); typed != nil {
		reason = strings.ToLower(string(typed.Code()))
	}
	s.metrics.ObserveDuration("failure", s.now().Sub(started))
	s.metrics.IncFailure(reason)
}

func newOrderNumber() string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return orderNumberPrefix + entropy[:8]
}
