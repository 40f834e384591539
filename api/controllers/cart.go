package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/api/middleware"
	"github.com/yawboateng/marketgh-backend/api/responses"
	"github.com/yawboateng/marketgh-backend/api/validators"
	cartsvc "github.com/yawboateng/marketgh-backend/internal/cart"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
	"github.com/yawboateng/marketgh-backend/pkg/logger"
)

type cartService interface {
	View(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*cartsvc.View, error)
	GuestView(ctx context.Context, guest []cartsvc.GuestLine, currency enums.Currency) *cartsvc.View
	TotalQuantity(ctx context.Context, userID uuid.UUID) (int, error)
	AddItem(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (*cartsvc.AddItemResult, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) error
	MergeGuestIntoUser(ctx context.Context, userID uuid.UUID, lines []cartsvc.GuestLine) error
	SetDeliveryOption(ctx context.Context, userID, productID, optionID uuid.UUID) error
}

type cartItemResponse struct {
	ProductID        uuid.UUID       `json:"product_id"`
	ProductTitle     string          `json:"product_title"`
	VariantID        *uuid.UUID      `json:"variant_id,omitempty"`
	VariantTitle     string          `json:"variant_title,omitempty"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Amount           decimal.Decimal `json:"amount"`
	DeliveryOptionID *uuid.UUID      `json:"delivery_option_id,omitempty"`
}

type cartResponse struct {
	CartID        *uuid.UUID         `json:"cart_id,omitempty"`
	Currency      string             `json:"currency"`
	Items         []cartItemResponse `json:"items"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	PackagingFee  decimal.Decimal    `json:"packaging_fee"`
	TotalQuantity int                `json:"total_quantity"`
	Guest         bool               `json:"guest"`
}

func newCartResponse(view *cartsvc.View, guest bool) cartResponse {
	resp := cartResponse{
		CartID:        view.CartID,
		Currency:      string(view.Currency),
		Items:         make([]cartItemResponse, 0, len(view.Items)),
		TotalAmount:   view.TotalAmount,
		PackagingFee:  view.PackagingFee,
		TotalQuantity: view.TotalQuantity,
		Guest:         guest,
	}
	for _, item := range view.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID:        item.ProductID,
			ProductTitle:     item.ProductTitle,
			VariantID:        item.VariantID,
			VariantTitle:     item.VariantTitle,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			Amount:           item.Amount,
			DeliveryOptionID: item.DeliveryOptionID,
		})
	}
	return resp
}

// CartFetch renders the cart for the requester: the persisted cart for an
// authenticated user, the header-borne guest cart otherwise.
func CartFetch(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currency := middleware.CurrencyFromContext(r.Context())

		if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
			view, err := svc.View(r.Context(), userID, currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, newCartResponse(view, false))
			return
		}

		lines := middleware.GuestCartFromContext(r.Context())
		view := svc.GuestView(r.Context(), lines, currency)
		responses.WriteSuccess(w, newCartResponse(view, true))
	}
}

type cartSummaryResponse struct {
	Currency      string          `json:"currency"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PackagingFee  decimal.Decimal `json:"packaging_fee"`
	TotalQuantity int             `json:"total_quantity"`
	Guest         bool            `json:"guest"`
}

// CartSummary renders the cart totals without line items, for drawers and
// order summaries.
func CartSummary(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currency := middleware.CurrencyFromContext(r.Context())

		if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
			view, err := svc.View(r.Context(), userID, currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, cartSummaryResponse{
				Currency:      string(view.Currency),
				TotalAmount:   view.TotalAmount,
				PackagingFee:  view.PackagingFee,
				TotalQuantity: view.TotalQuantity,
			})
			return
		}

		lines := middleware.GuestCartFromContext(r.Context())
		view := svc.GuestView(r.Context(), lines, currency)
		responses.WriteSuccess(w, cartSummaryResponse{
			Currency:      string(view.Currency),
			TotalAmount:   view.TotalAmount,
			PackagingFee:  view.PackagingFee,
			TotalQuantity: view.TotalQuantity,
			Guest:         true,
		})
	}
}

// CartQuantity returns the badge count for the cart icon.
func CartQuantity(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
			total, err := svc.TotalQuantity(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]int{"quantity": total})
			return
		}

		lines := middleware.GuestCartFromContext(r.Context())
		responses.WriteSuccess(w, map[string]int{"quantity": cartsvc.GuestTotalQuantity(lines)})
	}
}

type addItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required"`
}

// CartAddItem applies a quantity delta to a cart line.
func CartAddItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddItem(r.Context(), userID, cartsvc.AddItemInput{
			ProductID: payload.ProductID,
			VariantID: payload.VariantID,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message":  result.Message,
			"quantity": result.Quantity,
			"in_cart":  result.InCart,
			"removed":  result.Removed,
		})
	}
}

type removeItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
}

// CartRemoveItem deletes a cart line outright.
func CartRemoveItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload removeItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), userID, payload.ProductID, payload.VariantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Item removed from cart."})
	}
}

type syncCartRequest struct {
	Items []cartsvc.GuestLine `json:"items"`
}

// CartSync folds the client's guest cart into the authenticated user's cart
// after login.
func CartSync(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload syncCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MergeGuestIntoUser(r.Context(), userID, payload.Items); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.View(r.Context(), userID, middleware.CurrencyFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(view, false))
	}
}

type deliveryOptionRequest struct {
	ProductID        uuid.UUID `json:"product_id" validate:"required"`
	DeliveryOptionID uuid.UUID `json:"delivery_option_id" validate:"required"`
}

// CartDeliveryOption selects a delivery option for all cart lines of a
// product.
func CartDeliveryOption(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload deliveryOptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetDeliveryOption(r.Context(), userID, payload.ProductID, payload.DeliveryOptionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Delivery option updated."})
	}
}
