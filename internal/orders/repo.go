package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	pkgerrors "github.com/yawboateng/marketgh-backend/pkg/errors"
)

// Repository exposes persistence operations for confirmed orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create persists the order with its product snapshots and links the vendors
// that fulfil it. Callers run this inside the confirmation transaction.
func (r *Repository) Create(ctx context.Context, order *models.Order, vendors []models.Vendor) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Products {
		if order.Products[i].ID == uuid.Nil {
			order.Products[i].ID = uuid.New()
		}
		order.Products[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return err
	}
	if len(vendors) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(order).Association("Vendors").Append(&vendors)
}

// FindByIDForUser loads an order with its snapshots and vendors, scoped to
// the owning user.
func (r *Repository) FindByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Products").
		Preload("Products.Product").
		Preload("Products.Variant").
		Preload("Products.DeliveryOption").
		Preload("Vendors").
		Preload("Coupon").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

// FindByNumberForUser is the order-number variant of FindByIDForUser.
func (r *Repository) FindByNumberForUser(ctx context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Products").
		Preload("Products.Product").
		Preload("Products.Variant").
		Preload("Products.DeliveryOption").
		Preload("Vendors").
		Preload("Coupon").
		Where("order_number = ? AND user_id = ?", orderNumber, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first, without snapshots.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}
