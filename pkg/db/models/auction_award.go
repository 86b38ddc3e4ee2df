package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionAward records an adjudication decision. A partial unique index on
// auction_id where superseded_at is null guarantees at most one current
// award per auction; re-awards stamp the old row and insert a new one in
// the same transaction.
type AuctionAward struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID    uuid.UUID       `gorm:"column:auction_id;type:uuid;not null;index"`
	BidID        uuid.UUID       `gorm:"column:bid_id;type:uuid;not null"`
	CarrierID    uuid.UUID       `gorm:"column:carrier_id;type:uuid;not null;index"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Reason       *string         `gorm:"column:reason;type:text"`
	AwardedBy    string          `gorm:"column:awarded_by;type:text;not null"`
	AwardedAt    time.Time       `gorm:"column:awarded_at;type:timestamptz;not null"`
	SupersededAt *time.Time      `gorm:"column:superseded_at;type:timestamptz"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (AuctionAward) TableName() string { return "auction_awards" }

// CurrentAwardConstraint matches the partial unique index enforcing the
// single-current-award invariant.
const CurrentAwardConstraint = "auction_awards_current_unique"
