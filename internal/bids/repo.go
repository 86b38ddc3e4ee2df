package bids

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/pkg/db/models"
)

// Repository exposes persistence helpers for the bid ledger. The ledger is
// append-only: there is no update or delete surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bid *models.CarrierBid) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CarrierBid, error)
	ListByAuction(ctx context.Context, auctionID uuid.UUID, limit, offset int) ([]models.CarrierBid, int64, error)
	CountByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error)
	Lowest(ctx context.Context, auctionID uuid.UUID) (*models.CarrierBid, error)
	LowestFor(ctx context.Context, auctionID, carrierID uuid.UUID) (*models.CarrierBid, error)
	Summary(ctx context.Context, auctionID uuid.UUID) (LedgerSummary, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a bid ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// LedgerSummary aggregates one auction's ledger in a single query.
type LedgerSummary struct {
	BidCount   int64            `gorm:"column:bid_count"`
	LowestBid  *decimal.Decimal `gorm:"column:lowest_bid"`
	HighestBid *decimal.Decimal `gorm:"column:highest_bid"`
	AverageBid *decimal.Decimal `gorm:"column:average_bid"`
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, bid *models.CarrierBid) error {
	return r.db.WithContext(ctx).Create(bid).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.CarrierBid, error) {
	var bid models.CarrierBid
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// ListByAuction returns one page of the ledger in ranking order: lowest
// price first, ties broken by earliest arrival, then id for stability.
func (r *repositoryImpl) ListByAuction(ctx context.Context, auctionID uuid.UUID, limit, offset int) ([]models.CarrierBid, int64, error) {
	total, err := r.CountByAuction(ctx, auctionID)
	if err != nil {
		return nil, 0, err
	}

	var rows []models.CarrierBid
	err = r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount ASC, created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *repositoryImpl) CountByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.CarrierBid{}).
		Where("auction_id = ?", auctionID).
		Count(&total).Error
	return total, err
}

func (r *repositoryImpl) Lowest(ctx context.Context, auctionID uuid.UUID) (*models.CarrierBid, error) {
	var bid models.CarrierBid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount ASC, created_at ASC, id ASC").
		First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// LowestFor returns one carrier's best bid on the auction, nil when they
// never bid.
func (r *repositoryImpl) LowestFor(ctx context.Context, auctionID, carrierID uuid.UUID) (*models.CarrierBid, error) {
	var bid models.CarrierBid
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND carrier_id = ?", auctionID, carrierID).
		Order("amount ASC, created_at ASC, id ASC").
		First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

func (r *repositoryImpl) Summary(ctx context.Context, auctionID uuid.UUID) (LedgerSummary, error) {
	var summary LedgerSummary
	err := r.db.WithContext(ctx).
		Model(&models.CarrierBid{}).
		Select(`COUNT(*) AS bid_count,
			MIN(amount) AS lowest_bid,
			MAX(amount) AS highest_bid,
			AVG(amount) AS average_bid`).
		Where("auction_id = ?", auctionID).
		Scan(&summary).Error
	return summary, err
}
