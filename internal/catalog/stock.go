package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
)

// DecrementProductStock takes quantity units off the product's stock pool.
// The guard lives in the WHERE clause so two concurrent checkouts cannot both
// take the last unit.
func (r *Repository) DecrementProductStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient product stock").
			WithDetails(map[string]any{"product_id": productID.String(), "requested": quantity})
	}
	return nil
}

// DecrementVariantStock is the variant-level counterpart. Lines with a
// variant decrement here, never on the parent product.
func (r *Repository) DecrementVariantStock(ctx context.Context, variantID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient variant stock").
			WithDetails(map[string]any{"variant_id": variantID.String(), "requested": quantity})
	}
	return nil
}
