package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/pkg/db/models"
)

// AuctionStat is one auction's ledger rollup, joined with its current
// award when one exists.
type AuctionStat struct {
	AuctionID         uuid.UUID        `gorm:"column:auction_id"`
	BidCount          int64            `gorm:"column:bid_count"`
	LowestBid         *decimal.Decimal `gorm:"column:lowest_bid"`
	HighestBid        *decimal.Decimal `gorm:"column:highest_bid"`
	WinningBid        *decimal.Decimal `gorm:"column:winning_bid"`
	MinutesToFirstBid *float64         `gorm:"column:minutes_to_first_bid"`
}

// Repository reads the raw aggregates the scoring math runs on.
type Repository interface {
	CarrierBidCounts(ctx context.Context, carrierID uuid.UUID, since *time.Time) (total int64, competitive int64, err error)
	CarrierWinCount(ctx context.Context, carrierID uuid.UUID, since *time.Time) (int64, error)
	AuctionStats(ctx context.Context, since *time.Time) ([]AuctionStat, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository wires the analytics repository to a gorm handle.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// CarrierBidCounts returns the carrier's bid total plus how many of those
// bids landed within 5% of the auction's lowest bid. The lowest-bid
// baseline honors the same timeframe filter as the carrier's own bids.
func (r *repositoryImpl) CarrierBidCounts(ctx context.Context, carrierID uuid.UUID, since *time.Time) (int64, int64, error) {
	floor := r.db.WithContext(ctx).
		Model(&models.CarrierBid{}).
		Select("auction_id, MIN(amount) AS lowest").
		Group("auction_id")
	if since != nil {
		floor = floor.Where("created_at >= ?", *since)
	}

	query := r.db.WithContext(ctx).
		Model(&models.CarrierBid{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE carrier_bids.amount <= floors.lowest * 1.05) AS competitive").
		Joins("JOIN (?) AS floors ON floors.auction_id = carrier_bids.auction_id", floor).
		Where("carrier_bids.carrier_id = ?", carrierID)
	if since != nil {
		query = query.Where("carrier_bids.created_at >= ?", *since)
	}

	var row struct {
		Total       int64 `gorm:"column:total"`
		Competitive int64 `gorm:"column:competitive"`
	}
	if err := query.Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Total, row.Competitive, nil
}

// CarrierWinCount counts only current awards; superseded rows never count
// as wins.
func (r *repositoryImpl) CarrierWinCount(ctx context.Context, carrierID uuid.UUID, since *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AuctionAward{}).
		Where("carrier_id = ? AND superseded_at IS NULL", carrierID)
	if since != nil {
		query = query.Where("awarded_at >= ?", *since)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *repositoryImpl) AuctionStats(ctx context.Context, since *time.Time) ([]AuctionStat, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Select(`auctions.id AS auction_id,
			COUNT(carrier_bids.id) AS bid_count,
			MIN(carrier_bids.amount) AS lowest_bid,
			MAX(carrier_bids.amount) AS highest_bid,
			MAX(auction_awards.amount) AS winning_bid,
			EXTRACT(EPOCH FROM (MIN(carrier_bids.created_at) - auctions.received_at)) / 60 AS minutes_to_first_bid`).
		Joins("LEFT JOIN carrier_bids ON carrier_bids.auction_id = auctions.id").
		Joins("LEFT JOIN auction_awards ON auction_awards.auction_id = auctions.id AND auction_awards.superseded_at IS NULL").
		Group("auctions.id, auctions.received_at")
	if since != nil {
		query = query.Where("auctions.received_at >= ?", *since)
	}

	var rows []AuctionStat
	err := query.Scan(&rows).Error
	return rows, err
}
