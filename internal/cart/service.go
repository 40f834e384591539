package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yawboateng/marketgh-backend/internal/catalog"
	"github.com/yawboateng/marketgh-backend/internal/delivery"
	"github.com/yawboateng/marketgh-backend/internal/pricing"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
	"github.com/yawboateng/marketgh-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns cart reads and mutations for authenticated users, and builds
// ephemeral views for guest carts.
type Service struct {
	repo    *Repository
	catalog *catalog.Repository
	pricing *pricing.Engine
	tx      txRunner
	logg    *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, cat *catalog.Repository, engine *pricing.Engine, tx txRunner, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repo, catalog: cat, pricing: engine, tx: tx, logg: logg}, nil
}

// AddItemInput is a quantity delta for one (product, variant) line. Negative
// deltas decrease; a line dropping below 1 is removed.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// AddItemResult reports the line state after the mutation.
type AddItemResult struct {
	Message  string
	Quantity int
	InCart   bool
	Removed  bool
}

// AddItem applies a quantity delta to the user's cart.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*AddItemResult, error) {
	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.VariantID != nil {
		if _, err := s.catalog.GetVariant(ctx, *input.VariantID, product.ID); err != nil {
			return nil, err
		}
	}

	var result AddItemResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreateByUser(ctx, userID)
		if err != nil {
			return err
		}

		item, err := repo.FindItem(ctx, cart.ID, product.ID, input.VariantID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if input.Quantity < 1 {
				result = AddItemResult{Message: "Item removed from cart.", Removed: true}
				return nil
			}
			line := &models.CartItem{
				CartID:           cart.ID,
				ProductID:        product.ID,
				VariantID:        input.VariantID,
				Quantity:         input.Quantity,
				DeliveryOptionID: defaultOptionID(product),
			}
			if err := repo.CreateItem(ctx, line); err != nil {
				return err
			}
			result = AddItemResult{Message: "Item added to cart.", Quantity: line.Quantity, InCart: true}
			return nil
		case err != nil:
			return err
		}

		newQuantity := item.Quantity + input.Quantity
		if newQuantity < 1 {
			if err := repo.DeleteItem(ctx, item.ID); err != nil {
				return err
			}
			result = AddItemResult{Message: "Item removed from cart.", Removed: true}
			return nil
		}
		if err := repo.UpdateItemQuantity(ctx, item.ID, newQuantity); err != nil {
			return err
		}
		message := "Item quantity increased."
		if input.Quantity < 0 {
			message = "Item quantity decreased."
		}
		result = AddItemResult{Message: message, Quantity: newQuantity, InCart: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveItem deletes the (product, variant) line from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) error {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if variantID != nil {
		if _, err := s.catalog.GetVariant(ctx, *variantID, product.ID); err != nil {
			return err
		}
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return err
	}
	item, err := s.repo.FindItem(ctx, cart.ID, productID, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return err
	}
	return s.repo.DeleteItem(ctx, item.ID)
}

// MergeGuestIntoUser folds a guest cart payload into the user's persisted
// cart on login: quantities of matching lines are summed, other lines are
// created. An empty payload is a no-op; lines referencing unknown products or
// variants are skipped.
func (s *Service) MergeGuestIntoUser(ctx context.Context, userID uuid.UUID, lines []GuestLine) error {
	if len(lines) == 0 {
		return nil
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cat := s.catalog.WithTx(tx)

		cart, err := repo.GetOrCreateByUser(ctx, userID)
		if err != nil {
			return err
		}

		for _, line := range lines {
			product, err := cat.GetProduct(ctx, line.ProductID)
			if err != nil {
				s.skipLine(ctx, line, err)
				continue
			}
			if line.VariantID != nil {
				if _, err := cat.GetVariant(ctx, *line.VariantID, product.ID); err != nil {
					s.skipLine(ctx, line, err)
					continue
				}
			}

			item, err := repo.FindItem(ctx, cart.ID, product.ID, line.VariantID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				created := &models.CartItem{
					CartID:           cart.ID,
					ProductID:        product.ID,
					VariantID:        line.VariantID,
					Quantity:         line.Quantity,
					DeliveryOptionID: defaultOptionID(product),
				}
				if err := repo.CreateItem(ctx, created); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if err := repo.UpdateItemQuantity(ctx, item.ID, item.Quantity+line.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Service) skipLine(ctx context.Context, line GuestLine, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": line.ProductID.String()})
	s.logg.Error(logCtx, "skipping guest cart line", err)
}

// SetDeliveryOption updates the selected delivery option on every cart line
// of the product.
func (s *Service) SetDeliveryOption(ctx context.Context, userID, productID, optionID uuid.UUID) error {
	if _, err := s.catalog.GetDeliveryOption(ctx, optionID); err != nil {
		return err
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return err
	}
	rows, err := s.repo.SetDeliveryOptionForProduct(ctx, cart.ID, productID, optionID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no cart items for product")
	}
	return nil
}

// ItemView is one cart line with display-currency money.
type ItemView struct {
	ProductID        uuid.UUID
	ProductTitle     string
	VariantID        *uuid.UUID
	VariantTitle     string
	Quantity         int
	UnitPrice        decimal.Decimal
	Amount           decimal.Decimal
	DeliveryOptionID *uuid.UUID
}

// View is a rendered cart. TotalAmount and PackagingFee convert the exact
// base-currency aggregates once.
type View struct {
	CartID        *uuid.UUID
	Currency      enums.Currency
	Items         []ItemView
	TotalAmount   decimal.Decimal
	PackagingFee  decimal.Decimal
	TotalQuantity int
}

// View renders the user's cart in the requested currency. A user without a
// cart gets an empty view, not an error.
func (s *Service) View(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*View, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyView(currency), nil
		}
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(cart.Items))
	for i := range cart.Items {
		item := cart.Items[i]
		if item.Product == nil {
			continue
		}
		lines = append(lines, pricing.Line{
			ProductID:        item.ProductID,
			Product:          item.Product,
			Variant:          item.Variant,
			Quantity:         item.Quantity,
			DeliveryOptionID: item.DeliveryOptionID,
		})
	}

	view := s.render(ctx, lines, currency)
	cartID := cart.ID
	view.CartID = &cartID
	return view, nil
}

// GuestView renders a guest cart payload without persisting anything. Lines
// referencing unknown products or variants are skipped.
func (s *Service) GuestView(ctx context.Context, guest []GuestLine, currency enums.Currency) *View {
	lines := make([]pricing.Line, 0, len(guest))
	for _, line := range guest {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			s.skipLine(ctx, line, err)
			continue
		}
		var variant *models.Variant
		if line.VariantID != nil {
			variant, err = s.catalog.GetVariant(ctx, *line.VariantID, product.ID)
			if err != nil {
				s.skipLine(ctx, line, err)
				continue
			}
		}
		lines = append(lines, pricing.Line{
			ProductID: product.ID,
			Product:   product,
			Variant:   variant,
			Quantity:  line.Quantity,
		})
	}
	return s.render(ctx, lines, currency)
}

func (s *Service) render(ctx context.Context, lines []pricing.Line, currency enums.Currency) *View {
	quote := s.pricing.QuoteCart(ctx, lines, currency)

	view := &View{
		Currency:     currency,
		Items:        make([]ItemView, 0, len(quote.Lines)),
		TotalAmount:  quote.DisplaySubtotal,
		PackagingFee: quote.DisplayPackagingFee,
	}
	for i, lq := range quote.Lines {
		item := ItemView{
			ProductID:        lq.ProductID,
			ProductTitle:     lines[i].Product.Title,
			VariantID:        lq.VariantID,
			Quantity:         lq.Quantity,
			UnitPrice:        lq.DisplayUnitPrice,
			Amount:           lq.DisplayAmount,
			DeliveryOptionID: lq.DeliveryOptionID,
		}
		if lines[i].Variant != nil {
			item.VariantTitle = lines[i].Variant.Title
		}
		view.Items = append(view.Items, item)
		view.TotalQuantity += lq.Quantity
	}
	return view
}

func emptyView(currency enums.Currency) *View {
	return &View{
		Currency:     currency,
		Items:        []ItemView{},
		TotalAmount:  decimal.Zero,
		PackagingFee: decimal.Zero,
	}
}

// TotalQuantity reports the summed quantity across the user's cart.
func (s *Service) TotalQuantity(ctx context.Context, userID uuid.UUID) (int, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return s.repo.TotalQuantity(ctx, cart.ID)
}

func defaultOptionID(product *models.Product) *uuid.UUID {
	option := delivery.ResolveDefaultOption(product.DeliveryOptions)
	if option == nil {
		return nil
	}
	id := option.ID
	return &id
}
