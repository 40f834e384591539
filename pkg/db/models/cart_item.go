package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one product (or variant) line inside a cart. The unique index
// keeps one row per (cart, product, variant) tuple; quantity changes update
// the row in place.
type CartItem struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID           uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_line"`
	ProductID        uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_line"`
	VariantID        *uuid.UUID `gorm:"column:variant_id;type:uuid;uniqueIndex:ux_cart_items_line"`
	Quantity         int        `gorm:"column:quantity;not null;default:1"`
	DeliveryOptionID *uuid.UUID `gorm:"column:delivery_option_id;type:uuid"`
	Product          *Product   `gorm:"foreignKey:ProductID"`
	Variant          *Variant   `gorm:"foreignKey:VariantID"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
