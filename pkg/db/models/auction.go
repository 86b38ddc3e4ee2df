package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/haulbid/bidboard-backend/pkg/enums"
)

// Auction is a freight load posted for reverse bidding. The bidding window
// is fixed: ExpiresAt is always ReceivedAt plus the clock window. Stops is
// the ordered route ("CITY, ST" entries, first pickup to final drop); the
// flat origin/dest columns repeat the endpoints for searching.
type Auction struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BidNumber     string              `gorm:"column:bid_number;type:text;not null;uniqueIndex"`
	OriginCity    string              `gorm:"column:origin_city;type:text;not null"`
	OriginState   string              `gorm:"column:origin_state;type:text;not null"`
	DestCity      string              `gorm:"column:dest_city;type:text;not null"`
	DestState     string              `gorm:"column:dest_state;type:text;not null"`
	EquipmentType string              `gorm:"column:equipment_type;type:text;not null"`
	WeightLbs     *int                `gorm:"column:weight_lbs"`
	DistanceMiles *int                `gorm:"column:distance_miles"`
	Stops         pq.StringArray      `gorm:"column:stops;type:text[]"`
	PickupDate    *time.Time          `gorm:"column:pickup_date;type:timestamptz"`
	DeliveryDate  *time.Time          `gorm:"column:delivery_date;type:timestamptz"`
	StartingPrice *decimal.Decimal    `gorm:"column:starting_price;type:numeric(12,2)"`
	Tags          pq.StringArray      `gorm:"column:tags;type:text[]"`
	Status        enums.AuctionStatus `gorm:"column:status;type:auction_status;not null;default:active"`
	ReceivedAt    time.Time           `gorm:"column:received_at;type:timestamptz;not null"`
	ExpiresAt     time.Time           `gorm:"column:expires_at;type:timestamptz;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Auction) TableName() string { return "auctions" }
