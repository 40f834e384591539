package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/internal/delivery"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
)

type converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, currency enums.Currency) decimal.Decimal
}

// Service renders confirmed orders for receipt and detail reads.
type Service struct {
	repo     *Repository
	delivery *delivery.Calculator
	rates    converter
	now      func() time.Time
}

// NewService builds the order read service.
func NewService(repo *Repository, calc *delivery.Calculator, rates converter) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if calc == nil {
		return nil, fmt.Errorf("delivery calculator required")
	}
	if rates == nil {
		return nil, fmt.Errorf("rate converter required")
	}
	return &Service{repo: repo, delivery: calc, rates: rates, now: time.Now}, nil
}

// LineView is one frozen order line in display currency.
type LineView struct {
	ProductID    uuid.UUID
	ProductTitle string
	VariantID    *uuid.UUID
	VariantTitle string
	VendorID     uuid.UUID
	Quantity     int
	UnitPrice    decimal.Decimal
	Amount       decimal.Decimal
}

// VendorView is one vendor's share of the order with its delivery window.
type VendorView struct {
	VendorID      uuid.UUID
	VendorName    string
	ItemCount     int
	Amount        decimal.Decimal
	DeliveryLabel string
}

// DetailView is the full order detail in the requested display currency.
type DetailView struct {
	OrderID          uuid.UUID
	OrderNumber      string
	Status           enums.OrderStatus
	PaymentReference string
	Currency         enums.Currency
	Lines            []LineView
	Vendors          []VendorView
	Subtotal         decimal.Decimal
	DeliveryFee      decimal.Decimal
	PackagingFee     decimal.Decimal
	Discount         decimal.Decimal
	Total            decimal.Decimal
	CreatedAt        time.Time
}

// Detail loads the user's order and renders it in the display currency.
// Monetary aggregates convert the frozen base-currency columns once.
func (s *Service) Detail(ctx context.Context, orderID, userID uuid.UUID, currency enums.Currency) (*DetailView, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, order, currency), nil
}

// DetailByNumber is the order-number variant of Detail.
func (s *Service) DetailByNumber(ctx context.Context, orderNumber string, userID uuid.UUID, currency enums.Currency) (*DetailView, error) {
	order, err := s.repo.FindByNumberForUser(ctx, orderNumber, userID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, order, currency), nil
}

func (s *Service) render(ctx context.Context, order *models.Order, currency enums.Currency) *DetailView {
	view := &DetailView{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		Status:           order.Status,
		PaymentReference: order.PaymentReference,
		Currency:         currency,
		Lines:            make([]LineView, 0, len(order.Products)),
		Subtotal:         s.rates.Convert(ctx, order.Subtotal, currency),
		DeliveryFee:      s.rates.Convert(ctx, order.DeliveryFee, currency),
		PackagingFee:     s.rates.Convert(ctx, order.PackagingFee, currency),
		Discount:         s.rates.Convert(ctx, order.Discount, currency),
		Total:            s.rates.Convert(ctx, order.Total, currency),
		CreatedAt:        order.CreatedAt,
	}

	type vendorAgg struct {
		items  int
		amount decimal.Decimal
		option *models.DeliveryOption
	}
	byVendor := make(map[uuid.UUID]*vendorAgg)

	for i := range order.Products {
		snapshot := order.Products[i]
		line := LineView{
			ProductID: snapshot.ProductID,
			VariantID: snapshot.VariantID,
			VendorID:  snapshot.VendorID,
			Quantity:  snapshot.Quantity,
			UnitPrice: s.rates.Convert(ctx, snapshot.UnitPrice, currency),
			Amount:    s.rates.Convert(ctx, snapshot.Amount, currency),
		}
		if snapshot.Product != nil {
			line.ProductTitle = snapshot.Product.Title
		}
		if snapshot.Variant != nil {
			line.VariantTitle = snapshot.Variant.Title
		}
		view.Lines = append(view.Lines, line)

		agg, ok := byVendor[snapshot.VendorID]
		if !ok {
			agg = &vendorAgg{amount: decimal.Zero}
			byVendor[snapshot.VendorID] = agg
		}
		agg.items += snapshot.Quantity
		agg.amount = agg.amount.Add(snapshot.Amount)
		if snapshot.DeliveryOption != nil {
			if agg.option == nil || snapshot.DeliveryOption.Cost.GreaterThan(agg.option.Cost) {
				agg.option = snapshot.DeliveryOption
			}
		}
	}

	// labels are relative to the confirmation date, not the read date
	confirmedAt := order.CreatedAt
	if confirmedAt.IsZero() {
		confirmedAt = s.now()
	}
	view.Vendors = make([]VendorView, 0, len(order.Vendors))
	for i := range order.Vendors {
		vendor := order.Vendors[i]
		vv := VendorView{VendorID: vendor.ID, VendorName: vendor.Name, Amount: decimal.Zero}
		if agg, ok := byVendor[vendor.ID]; ok {
			vv.ItemCount = agg.items
			vv.Amount = s.rates.Convert(ctx, agg.amount, currency)
			if agg.option != nil {
				vv.DeliveryLabel = s.delivery.DateRangeLabel(agg.option.MinDays, agg.option.MaxDays, confirmedAt)
			}
		}
		view.Vendors = append(view.Vendors, vv)
	}
	return view
}
