package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CarrierBid is one append-only ledger entry. Rows are never updated or
// deleted once written.
type CarrierBid struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID uuid.UUID       `gorm:"column:auction_id;type:uuid;not null;index"`
	CarrierID uuid.UUID       `gorm:"column:carrier_id;type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Notes     *string         `gorm:"column:notes;type:text"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz;default:now()"`
}

func (CarrierBid) TableName() string { return "carrier_bids" }
