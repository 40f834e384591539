package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryOption is a vendor-offered shipping method with a delivery window
// expressed in whole days from the order date.
type DeliveryOption struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	MinDays   int             `gorm:"column:min_days;not null;default:0"`
	MaxDays   int             `gorm:"column:max_days;not null;default:0"`
	Cost      decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductDeliveryOption links a product to the delivery options it ships
// with. At most one row per product carries the default flag.
type ProductDeliveryOption struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_delivery"`
	DeliveryOptionID uuid.UUID       `gorm:"column:delivery_option_id;type:uuid;not null;uniqueIndex:ux_product_delivery"`
	IsDefault        bool            `gorm:"column:is_default;not null;default:false"`
	DeliveryOption   *DeliveryOption `gorm:"foreignKey:DeliveryOptionID"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}
