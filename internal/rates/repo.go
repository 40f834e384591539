package rates

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
)

// Repository persists the currency_rates fallback table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a rates repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertAll writes the latest snapshot, replacing rates per currency.
func (r *Repository) UpsertAll(ctx context.Context, rows []models.CurrencyRate) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "currency"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
		}).
		Create(&rows).Error
}

// LoadAll returns every stored rate keyed by currency.
func (r *Repository) LoadAll(ctx context.Context) (map[enums.Currency]models.CurrencyRate, error) {
	var rows []models.CurrencyRate
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.Currency]models.CurrencyRate, len(rows))
	for _, row := range rows {
		out[row.Currency] = row
	}
	return out, nil
}
