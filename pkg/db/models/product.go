package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/pkg/enums"
)

// Product represents the canonical vendor listing. All monetary columns are
// stored in the base currency; weight is kilograms and volume cubic metres.
type Product struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null"`
	Title           string                  `gorm:"column:title;not null"`
	Status          enums.ProductStatus     `gorm:"column:status;not null;default:'active'"`
	Price           decimal.Decimal         `gorm:"column:price;type:numeric(12,2);not null"`
	Weight          decimal.Decimal         `gorm:"column:weight;type:numeric(10,3);not null;default:0"`
	Volume          decimal.Decimal         `gorm:"column:volume;type:numeric(10,4);not null;default:0"`
	HasVariants     bool                    `gorm:"column:has_variants;not null;default:false"`
	StockQuantity   int                     `gorm:"column:stock_quantity;not null;default:0"`
	Vendor          *Vendor                 `gorm:"foreignKey:VendorID"`
	Variants        []Variant               `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	DeliveryOptions []ProductDeliveryOption `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
