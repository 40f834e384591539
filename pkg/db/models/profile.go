package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds buyer delivery coordinates. Nil coordinates fall back to the
// configured city-centre defaults.
type Profile struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Latitude  *float64  `gorm:"column:latitude;type:numeric(9,6)"`
	Longitude *float64  `gorm:"column:longitude;type:numeric(9,6)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
