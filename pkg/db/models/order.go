package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/pkg/enums"
)

// Order is a confirmed checkout snapshot. Monetary columns are frozen in the
// base currency at confirmation time; display conversion happens on read.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string            `gorm:"column:order_number;not null;uniqueIndex"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	IsOrdered        bool              `gorm:"column:is_ordered;not null;default:false"`
	PaymentReference string            `gorm:"column:payment_reference"`
	Subtotal         decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee      decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	PackagingFee     decimal.Decimal   `gorm:"column:packaging_fee;type:numeric(12,2);not null"`
	Discount         decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total            decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	CouponID         *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	Coupon           *Coupon           `gorm:"foreignKey:CouponID"`
	Vendors          []Vendor          `gorm:"many2many:order_vendors"`
	Products         []OrderProduct    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderProduct freezes one cart line at confirmation: unit price and extended
// amount as charged, plus the delivery option the buyer picked for it.
type OrderProduct struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID        *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	VendorID         uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null"`
	Quantity         int             `gorm:"column:quantity;not null"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Amount           decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	DeliveryOptionID *uuid.UUID      `gorm:"column:delivery_option_id;type:uuid"`
	Product          *Product        `gorm:"foreignKey:ProductID"`
	Variant          *Variant        `gorm:"foreignKey:VariantID"`
	DeliveryOption   *DeliveryOption `gorm:"foreignKey:DeliveryOptionID"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}
