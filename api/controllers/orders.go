package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/api/middleware"
	"github.com/yawboateng/marketgh-backend/api/responses"
	ordersvc "github.com/yawboateng/marketgh-backend/internal/orders"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
	"github.com/yawboateng/marketgh-backend/pkg/logger"
)

type orderReader interface {
	Detail(ctx context.Context, orderID, userID uuid.UUID, currency enums.Currency) (*ordersvc.DetailView, error)
}

type orderLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

type orderLineResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductTitle string          `json:"product_title"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	VariantTitle string          `json:"variant_title,omitempty"`
	VendorID     uuid.UUID       `json:"vendor_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Amount       decimal.Decimal `json:"amount"`
}

type orderVendorResponse struct {
	VendorID      uuid.UUID       `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	ItemCount     int             `json:"item_count"`
	Amount        decimal.Decimal `json:"amount"`
	DeliveryLabel string          `json:"delivery_label,omitempty"`
}

type orderDetailResponse struct {
	OrderID          uuid.UUID             `json:"order_id"`
	OrderNumber      string                `json:"order_number"`
	Status           string                `json:"status"`
	PaymentReference string                `json:"payment_reference,omitempty"`
	Currency         string                `json:"currency"`
	Lines            []orderLineResponse   `json:"lines"`
	Vendors          []orderVendorResponse `json:"vendors"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	DeliveryFee      decimal.Decimal       `json:"delivery_fee"`
	PackagingFee     decimal.Decimal       `json:"packaging_fee"`
	Discount         decimal.Decimal       `json:"discount"`
	Total            decimal.Decimal       `json:"total"`
	CreatedAt        time.Time             `json:"created_at"`
}

func newOrderDetailResponse(detail *ordersvc.DetailView) orderDetailResponse {
	resp := orderDetailResponse{
		OrderID:          detail.OrderID,
		OrderNumber:      detail.OrderNumber,
		Status:           string(detail.Status),
		PaymentReference: detail.PaymentReference,
		Currency:         string(detail.Currency),
		Lines:            make([]orderLineResponse, 0, len(detail.Lines)),
		Vendors:          make([]orderVendorResponse, 0, len(detail.Vendors)),
		Subtotal:         detail.Subtotal,
		DeliveryFee:      detail.DeliveryFee,
		PackagingFee:     detail.PackagingFee,
		Discount:         detail.Discount,
		Total:            detail.Total,
		CreatedAt:        detail.CreatedAt,
	}
	for _, line := range detail.Lines {
		resp.Lines = append(resp.Lines, orderLineResponse{
			ProductID:    line.ProductID,
			ProductTitle: line.ProductTitle,
			VariantID:    line.VariantID,
			VariantTitle: line.VariantTitle,
			VendorID:     line.VendorID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Amount:       line.Amount,
		})
	}
	for _, vendor := range detail.Vendors {
		resp.Vendors = append(resp.Vendors, orderVendorResponse{
			VendorID:      vendor.VendorID,
			VendorName:    vendor.VendorName,
			ItemCount:     vendor.ItemCount,
			Amount:        vendor.Amount,
			DeliveryLabel: vendor.DeliveryLabel,
		})
	}
	return resp
}

// OrderDetail renders one of the user's orders with its vendor breakdown.
func OrderDetail(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		detail, err := svc.Detail(r.Context(), orderID, userID, middleware.CurrencyFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderDetailResponse(detail))
	}
}

type orderSummaryResponse struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrdersList returns the user's order history, newest first.
func OrdersList(repo orderLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		listed, err := repo.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summaries := make([]orderSummaryResponse, 0, len(listed))
		for _, order := range listed {
			summaries = append(summaries, orderSummaryResponse{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Status:      string(order.Status),
				Total:       order.Total,
				CreatedAt:   order.CreatedAt,
			})
		}
		responses.WriteSuccess(w, summaries)
	}
}
