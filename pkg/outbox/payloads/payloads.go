// Package payloads holds the versioned event schemas carried inside outbox
// envelopes. Consumers decode into these types, so fields are only ever
// added, never renamed or removed.
package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionCreatedEvent announces a new load on the bid board.
type AuctionCreatedEvent struct {
	AuctionID     uuid.UUID `json:"auctionId"`
	BidNumber     string    `json:"bidNumber"`
	OriginCity    string    `json:"originCity"`
	OriginState   string    `json:"originState"`
	DestCity      string    `json:"destCity"`
	DestState     string    `json:"destState"`
	EquipmentType string    `json:"equipmentType"`
	ReceivedAt    time.Time `json:"receivedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// AuctionExpiredEvent marks the end of an auction's bidding window.
type AuctionExpiredEvent struct {
	AuctionID uuid.UUID `json:"auctionId"`
	BidNumber string    `json:"bidNumber"`
	ExpiredAt time.Time `json:"expiredAt"`
	BidCount  int64     `json:"bidCount"`
}

// BidPlacedEvent records one ledger entry.
type BidPlacedEvent struct {
	BidID     uuid.UUID       `json:"bidId"`
	AuctionID uuid.UUID       `json:"auctionId"`
	CarrierID uuid.UUID       `json:"carrierId"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placedAt"`
}

// AwardCreatedEvent announces the current award for an auction.
type AwardCreatedEvent struct {
	AwardID   uuid.UUID       `json:"awardId"`
	AuctionID uuid.UUID       `json:"auctionId"`
	BidID     uuid.UUID       `json:"bidId"`
	CarrierID uuid.UUID       `json:"carrierId"`
	Amount    decimal.Decimal `json:"amount"`
	AwardedBy string          `json:"awardedBy"`
	AwardedAt time.Time       `json:"awardedAt"`
	// ReAward is true when this award superseded a previous one.
	ReAward bool `json:"reAward"`
}

// AwardSupersededEvent marks a previous award as replaced.
type AwardSupersededEvent struct {
	AwardID         uuid.UUID  `json:"awardId"`
	AuctionID       uuid.UUID  `json:"auctionId"`
	CarrierID       uuid.UUID  `json:"carrierId"`
	ReplacedByBidID *uuid.UUID `json:"replacedByBidId,omitempty"`
	SupersededAt    time.Time  `json:"supersededAt"`
}

// NotificationRequestedEvent asks the notify worker to persist and fan out
// an in-app notification.
type NotificationRequestedEvent struct {
	CarrierID uuid.UUID `json:"carrierId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      *string   `json:"link,omitempty"`
}
