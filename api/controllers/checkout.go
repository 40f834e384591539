package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/api/middleware"
	"github.com/yawboateng/marketgh-backend/api/responses"
	"github.com/yawboateng/marketgh-backend/api/validators"
	checkoutsvc "github.com/yawboateng/marketgh-backend/internal/checkout"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
	"github.com/yawboateng/marketgh-backend/pkg/logger"
)

type checkoutService interface {
	Preview(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Preview, error)
	Confirm(ctx context.Context, input checkoutsvc.ConfirmInput) (*checkoutsvc.ConfirmResult, error)
}

type previewItemResponse struct {
	ProductID        uuid.UUID       `json:"product_id"`
	VariantID        *uuid.UUID      `json:"variant_id,omitempty"`
	VendorID         uuid.UUID       `json:"vendor_id"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Amount           decimal.Decimal `json:"amount"`
	DeliveryOptionID *uuid.UUID      `json:"delivery_option_id,omitempty"`
}

type previewVendorResponse struct {
	VendorID      uuid.UUID       `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	DeliveryLabel string          `json:"delivery_label"`
}

type previewCouponResponse struct {
	Code     string          `json:"code"`
	Applied  bool            `json:"applied"`
	Reason   string          `json:"reason,omitempty"`
	Discount decimal.Decimal `json:"discount"`
}

type previewResponse struct {
	Currency     string                  `json:"currency"`
	Items        []previewItemResponse   `json:"items"`
	Vendors      []previewVendorResponse `json:"vendors"`
	Subtotal     decimal.Decimal         `json:"subtotal"`
	PackagingFee decimal.Decimal         `json:"packaging_fee"`
	DeliveryFee  decimal.Decimal         `json:"delivery_fee"`
	Discount     decimal.Decimal         `json:"discount"`
	Total        decimal.Decimal         `json:"total"`
	Coupon       *previewCouponResponse  `json:"coupon,omitempty"`

	DeliverySelectionNeeded []uuid.UUID `json:"delivery_selection_needed,omitempty"`
}

func newPreviewResponse(preview *checkoutsvc.Preview) previewResponse {
	resp := previewResponse{
		Currency:     string(preview.Currency),
		Items:        make([]previewItemResponse, 0, len(preview.Items)),
		Vendors:      make([]previewVendorResponse, 0, len(preview.Vendors)),
		Subtotal:     preview.Subtotal,
		PackagingFee: preview.PackagingFee,
		DeliveryFee:  preview.DeliveryFee,
		Discount:     preview.Discount,
		Total:        preview.Total,

		DeliverySelectionNeeded: preview.DeliverySelectionNeeded,
	}
	for _, item := range preview.Items {
		resp.Items = append(resp.Items, previewItemResponse{
			ProductID:        item.ProductID,
			VariantID:        item.VariantID,
			VendorID:         item.VendorID,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			Amount:           item.Amount,
			DeliveryOptionID: item.DeliveryOptionID,
		})
	}
	for _, vendor := range preview.Vendors {
		resp.Vendors = append(resp.Vendors, previewVendorResponse{
			VendorID:      vendor.VendorID,
			VendorName:    vendor.VendorName,
			DeliveryFee:   vendor.DeliveryFee,
			DeliveryLabel: vendor.DeliveryLabel,
		})
	}
	if preview.Coupon != nil {
		resp.Coupon = &previewCouponResponse{
			Code:     preview.Coupon.Code,
			Applied:  preview.Coupon.Applied,
			Reason:   preview.Coupon.Reason,
			Discount: preview.Coupon.Discount,
		}
	}
	return resp
}

// CheckoutPreview prices the cart with delivery legs and optional coupon.
func CheckoutPreview(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		preview, err := svc.Preview(r.Context(), checkoutsvc.Input{
			UserID:     userID,
			Currency:   middleware.CurrencyFromContext(r.Context()),
			CouponCode: r.URL.Query().Get("coupon"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPreviewResponse(preview))
	}
}

type confirmRequest struct {
	CouponCode       string `json:"coupon_code,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty" validate:"omitempty,max=128"`
}

type confirmResponse struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	Currency    string          `json:"currency"`
	Total       decimal.Decimal `json:"total"`
}

// CheckoutConfirm places the order. The idempotency middleware guards this
// route, so a client retry replays the original response.
func CheckoutConfirm(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), checkoutsvc.ConfirmInput{
			Input: checkoutsvc.Input{
				UserID:     userID,
				Currency:   middleware.CurrencyFromContext(r.Context()),
				CouponCode: payload.CouponCode,
			},
			PaymentReference: payload.PaymentReference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, confirmResponse{
			OrderID:     result.OrderID,
			OrderNumber: result.OrderNumber,
			Status:      string(result.Status),
			Currency:    string(result.Currency),
			Total:       result.Total,
		})
	}
}
