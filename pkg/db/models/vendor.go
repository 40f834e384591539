package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a seller with a physical dispatch location used for
// distance-based delivery fees.
type Vendor struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null"`
	Contact   string    `gorm:"column:contact"`
	Latitude  float64   `gorm:"column:latitude;type:numeric(9,6);not null"`
	Longitude float64   `gorm:"column:longitude;type:numeric(9,6);not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
