package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is a discount code. Exactly one of DiscountAmount or
// DiscountPercentage is expected to be set; amount wins when both are.
type Coupon struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string           `gorm:"column:code;not null;uniqueIndex"`
	DiscountAmount     *decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2)"`
	DiscountPercentage *decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2)"`
	ValidFrom          time.Time        `gorm:"column:valid_from;not null"`
	ValidTo            time.Time        `gorm:"column:valid_to;not null"`
	Active             bool             `gorm:"column:active;not null;default:true"`
	MaxUses            int              `gorm:"column:max_uses;not null;default:0"`
	UsedCount          int              `gorm:"column:used_count;not null;default:0"`
	MinPurchaseAmount  decimal.Decimal  `gorm:"column:min_purchase_amount;type:numeric(12,2);not null;default:0"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
