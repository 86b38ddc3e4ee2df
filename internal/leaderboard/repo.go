package leaderboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/pkg/db/models"
)

// CarrierRow is one carrier's raw aggregate counters for a timeframe.
// Rates are never computed in SQL so grouped views can re-derive them
// from summed numerators and denominators.
type CarrierRow struct {
	CarrierID       uuid.UUID       `gorm:"column:carrier_id"`
	CarrierName     string          `gorm:"column:carrier_name"`
	MCNumber        *string         `gorm:"column:mc_number"`
	DOTNumber       *string         `gorm:"column:dot_number"`
	TotalBids       int64           `gorm:"column:total_bids"`
	CompetitiveBids int64           `gorm:"column:competitive_bids"`
	Wins            int64           `gorm:"column:wins"`
	BidSum          decimal.Decimal `gorm:"column:bid_sum"`
	Revenue         decimal.Decimal `gorm:"column:revenue"`
	LastBidAt       *time.Time      `gorm:"column:last_bid_at"`
}

// Repository reads the per-carrier aggregates the rankings run on.
type Repository interface {
	CarrierStats(ctx context.Context, since *time.Time) ([]CarrierRow, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository wires the leaderboard repository to a gorm handle.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// CarrierStats pulls one row per carrier that has placed at least one bid
// in the timeframe. Wins count only current awards; the competitive
// counter uses each auction's lowest bid within the same timeframe as
// its baseline.
func (r *repositoryImpl) CarrierStats(ctx context.Context, since *time.Time) ([]CarrierRow, error) {
	floor := r.db.WithContext(ctx).
		Model(&models.CarrierBid{}).
		Select("auction_id, MIN(amount) AS lowest").
		Group("auction_id")
	bids := r.db.WithContext(ctx).
		Model(&models.CarrierBid{}).
		Select(`carrier_id,
			COUNT(*) AS total_bids,
			COUNT(*) FILTER (WHERE carrier_bids.amount <= floors.lowest * 1.05) AS competitive_bids,
			COALESCE(SUM(carrier_bids.amount), 0) AS bid_sum,
			MAX(carrier_bids.created_at) AS last_bid_at`).
		Joins("JOIN (?) AS floors ON floors.auction_id = carrier_bids.auction_id", floor).
		Group("carrier_id")
	awards := r.db.WithContext(ctx).
		Model(&models.AuctionAward{}).
		Select("carrier_id, COUNT(*) AS wins, COALESCE(SUM(amount), 0) AS revenue").
		Where("superseded_at IS NULL").
		Group("carrier_id")
	if since != nil {
		floor = floor.Where("created_at >= ?", *since)
		bids = bids.Where("carrier_bids.created_at >= ?", *since)
		awards = awards.Where("awarded_at >= ?", *since)
	}

	var rows []CarrierRow
	err := r.db.WithContext(ctx).
		Model(&models.CarrierProfile{}).
		Select(`carrier_profiles.id AS carrier_id,
			carrier_profiles.name AS carrier_name,
			carrier_profiles.mc_number,
			carrier_profiles.dot_number,
			ledger.total_bids,
			ledger.competitive_bids,
			ledger.bid_sum,
			ledger.last_bid_at,
			COALESCE(won.wins, 0) AS wins,
			COALESCE(won.revenue, 0) AS revenue`).
		Joins("JOIN (?) AS ledger ON ledger.carrier_id = carrier_profiles.id", bids).
		Joins("LEFT JOIN (?) AS won ON won.carrier_id = carrier_profiles.id", awards).
		Scan(&rows).Error
	return rows, err
}
