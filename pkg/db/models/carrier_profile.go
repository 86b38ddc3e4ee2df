package models

import (
	"time"

	"github.com/google/uuid"
)

// CarrierProfile identifies a bidding carrier. MC and DOT numbers are the
// grouping keys for fleet-level leaderboards.
type CarrierProfile struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;type:text;not null"`
	MCNumber     *string   `gorm:"column:mc_number;type:text;index"`
	DOTNumber    *string   `gorm:"column:dot_number;type:text;index"`
	ContactEmail *string   `gorm:"column:contact_email;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CarrierProfile) TableName() string { return "carrier_profiles" }
