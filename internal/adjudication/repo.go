package adjudication

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/pkg/db/models"
)

// Repository persists award rows and answers the bid lookups the
// adjudication flow needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, award *models.AuctionAward) error
	Current(ctx context.Context, auctionID uuid.UUID) (*models.AuctionAward, error)
	Supersede(ctx context.Context, awardID uuid.UUID, at time.Time) (int64, error)
	HistoryByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.AuctionAward, error)
	LowestBidFor(ctx context.Context, auctionID, carrierID uuid.UUID) (*models.CarrierBid, error)
	SuggestedWinner(ctx context.Context, auctionID uuid.UUID) (*models.CarrierBid, error)
	Bidders(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository wires the award repository to a gorm handle.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, award *models.AuctionAward) error {
	return r.db.WithContext(ctx).Create(award).Error
}

// Current returns the one non-superseded award for the auction, or nil.
func (r *repositoryImpl) Current(ctx context.Context, auctionID uuid.UUID) (*models.AuctionAward, error) {
	var award models.AuctionAward
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND superseded_at IS NULL", auctionID).
		First(&award).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &award, nil
}

// Supersede stamps one award row and reports how many rows matched. Zero
// means another writer already superseded it.
func (r *repositoryImpl) Supersede(ctx context.Context, awardID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AuctionAward{}).
		Where("id = ? AND superseded_at IS NULL", awardID).
		Update("superseded_at", at)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) HistoryByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.AuctionAward, error) {
	var awards []models.AuctionAward
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("awarded_at DESC, id DESC").
		Find(&awards).Error
	return awards, err
}

// LowestBidFor returns the carrier's best offer on the auction, or nil
// when the carrier never bid.
func (r *repositoryImpl) LowestBidFor(ctx context.Context, auctionID, carrierID uuid.UUID) (*models.CarrierBid, error) {
	var bid models.CarrierBid
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND carrier_id = ?", auctionID, carrierID).
		Order("amount ASC, created_at ASC, id ASC").
		First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// SuggestedWinner is the top of the ledger ranking: lowest amount, ties
// broken by earliest placement.
func (r *repositoryImpl) SuggestedWinner(ctx context.Context, auctionID uuid.UUID) (*models.CarrierBid, error) {
	var bid models.CarrierBid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount ASC, created_at ASC, id ASC").
		First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *repositoryImpl) Bidders(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.CarrierBid{}).
		Where("auction_id = ?", auctionID).
		Distinct("carrier_id").
		Pluck("carrier_id", &ids).Error
	return ids, err
}
