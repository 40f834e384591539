package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/pkg/enums"
)

// CurrencyRate is the last known conversion rate from the base currency,
// refreshed opportunistically whenever the upstream API answers.
type CurrencyRate struct {
	Currency  enums.Currency  `gorm:"column:currency;primaryKey"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(18,8);not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
