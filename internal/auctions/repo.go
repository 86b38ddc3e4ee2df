package auctions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/pkg/db/models"
	"github.com/haulbid/bidboard-backend/pkg/enums"
)

// Repository exposes persistence helpers for auctions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, auction *models.Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	GetByBidNumber(ctx context.Context, bidNumber string) (*models.Auction, error)
	ListBoard(ctx context.Context, params boardParams) ([]BoardRow, int64, error)
	FindExpiring(ctx context.Context, now time.Time, limit int) ([]models.Auction, error)
	SetStatus(ctx context.Context, id uuid.UUID, from, to enums.AuctionStatus) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an auction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type boardParams struct {
	Status enums.AuctionStatus
	Query  string
	Tag    string
	Limit  int
	Offset int
}

// BoardRow is one auction plus its ledger aggregates, loaded in a single
// query so the board renders without N+1 lookups.
type BoardRow struct {
	models.Auction
	BidCount  int64            `gorm:"column:bid_count"`
	LowestBid *decimal.Decimal `gorm:"column:lowest_bid"`
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, auction *models.Auction) error {
	return r.db.WithContext(ctx).Create(auction).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auction, nil
}

func (r *repositoryImpl) GetByBidNumber(ctx context.Context, bidNumber string) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).Where("bid_number = ?", bidNumber).First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auction, nil
}

func (r *repositoryImpl) ListBoard(ctx context.Context, params boardParams) ([]BoardRow, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Auction{})
	if params.Status != "" {
		query = query.Where("auctions.status = ?", params.Status)
	}
	if trimmed := strings.TrimSpace(params.Query); trimmed != "" {
		like := "%" + strings.ToLower(trimmed) + "%"
		query = query.Where(
			"LOWER(bid_number) LIKE ? OR LOWER(origin_city) LIKE ? OR LOWER(dest_city) LIKE ? OR LOWER(equipment_type) LIKE ?",
			like, like, like, like,
		)
	}
	if tag := strings.TrimSpace(params.Tag); tag != "" {
		query = query.Where("? = ANY(tags)", tag)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []BoardRow
	err := query.
		Select(`auctions.*,
			(SELECT COUNT(*) FROM carrier_bids cb WHERE cb.auction_id = auctions.id) AS bid_count,
			(SELECT MIN(cb.amount) FROM carrier_bids cb WHERE cb.auction_id = auctions.id) AS lowest_bid`).
		Order("expires_at ASC, id ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *repositoryImpl) FindExpiring(ctx context.Context, now time.Time, limit int) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", enums.AuctionStatusActive, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// SetStatus flips the status only when the row still holds the expected one,
// so concurrent sweepers cannot double-process an auction.
func (r *repositoryImpl) SetStatus(ctx context.Context, id uuid.UUID, from, to enums.AuctionStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
