package bids

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/internal/auctionclock"
	"github.com/haulbid/bidboard-backend/pkg/changefeed"
	"github.com/haulbid/bidboard-backend/pkg/db/models"
	"github.com/haulbid/bidboard-backend/pkg/enums"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/outbox"
	"github.com/haulbid/bidboard-backend/pkg/outbox/payloads"
	"github.com/haulbid/bidboard-backend/pkg/pagination"
)

// BidPageSize is the fixed ledger page size.
const BidPageSize = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type feedPublisher interface {
	Publish(event changefeed.Event) changefeed.Event
}

// auctionReader is the slice of the auction repository the ledger needs.
type auctionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
}

// Service defines bid ledger operations.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (*models.CarrierBid, error)
	List(ctx context.Context, auctionID uuid.UUID, page int) (*ListResult, error)
	Count(ctx context.Context, auctionID uuid.UUID) (int64, error)
	Lowest(ctx context.Context, auctionID uuid.UUID) (*models.CarrierBid, error)
	Summary(ctx context.Context, auctionID uuid.UUID, carrierID *uuid.UUID) (*SummaryResult, error)
}

type service struct {
	repo     Repository
	auctions auctionReader
	tx       txRunner
	out      outboxPublisher
	feed     feedPublisher
	now      func() time.Time
}

// PlaceInput captures one carrier's offer on a load.
type PlaceInput struct {
	AuctionID uuid.UUID       `json:"auctionId" validate:"required"`
	CarrierID uuid.UUID       `json:"carrierId" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Notes     *string         `json:"notes,omitempty"`
}

// ListResult is one ranked ledger page.
type ListResult struct {
	Items []models.CarrierBid `json:"items"`
	Meta  pagination.Meta     `json:"meta"`
}

// SummaryResult aggregates the ledger plus the live clock for one auction.
// Carrier fields are populated only when the caller identified themselves.
type SummaryResult struct {
	AuctionID       uuid.UUID           `json:"auctionId"`
	BidCount        int64               `json:"bidCount"`
	LowestBid       *decimal.Decimal    `json:"lowestBid,omitempty"`
	LowestCarrierID *uuid.UUID          `json:"lowestCarrierId,omitempty"`
	HighestBid      *decimal.Decimal    `json:"highestBid,omitempty"`
	AverageBid      *decimal.Decimal    `json:"averageBid,omitempty"`
	CarrierBestBid  *decimal.Decimal    `json:"carrierBestBid,omitempty"`
	TimeLeftSeconds int64               `json:"timeLeftSeconds"`
	ClockStatus     auctionclock.Status `json:"clockStatus"`
}

// NewService builds the ledger service with the required dependencies.
func NewService(repo Repository, auctions auctionReader, tx txRunner, out outboxPublisher, feed feedPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bids repository required")
	}
	if auctions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auction reader required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if out == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	if feed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "change feed required")
	}
	return &service{
		repo:     repo,
		auctions: auctions,
		tx:       tx,
		out:      out,
		feed:     feed,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Place(ctx context.Context, input PlaceInput) (*models.CarrierBid, error) {
	if input.AuctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	if input.CarrierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}
	if input.Amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}

	bid := &models.CarrierBid{
		AuctionID: input.AuctionID,
		CarrierID: input.CarrierID,
		Amount:    input.Amount,
		Notes:     normalizeNotes(input.Notes),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		auction, err := s.auctions.GetByID(ctx, input.AuctionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
		}
		if auction == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		if auctionclock.StatusAt(auction.ExpiresAt, s.now()) == auctionclock.StatusExpired {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bidding window closed")
		}

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append bid")
		}
		return s.out.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBidPlaced,
			AggregateType: enums.AggregateCarrierBid,
			AggregateID:   bid.ID,
			Version:       1,
			Data: payloads.BidPlacedEvent{
				BidID:     bid.ID,
				AuctionID: bid.AuctionID,
				CarrierID: bid.CarrierID,
				Amount:    bid.Amount,
				PlacedAt:  bid.CreatedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishFeed(changefeed.EntityBid, string(enums.EventBidPlaced), bid.AuctionID, map[string]any{
		"bidId":     bid.ID,
		"auctionId": bid.AuctionID,
		"carrierId": bid.CarrierID,
		"amount":    bid.Amount,
	})
	return bid, nil
}

func (s *service) List(ctx context.Context, auctionID uuid.UUID, page int) (*ListResult, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	params := pagination.Normalize(pagination.Params{Page: page, PageSize: BidPageSize}, BidPageSize, BidPageSize)
	rows, total, err := s.repo.ListByAuction(ctx, auctionID, params.PageSize, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
	}
	return &ListResult{
		Items: rows,
		Meta:  pagination.BuildMeta(params, total),
	}, nil
}

func (s *service) Count(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	if auctionID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	total, err := s.repo.CountByAuction(ctx, auctionID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count bids")
	}
	return total, nil
}

func (s *service) Lowest(ctx context.Context, auctionID uuid.UUID) (*models.CarrierBid, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	bid, err := s.repo.Lowest(ctx, auctionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lowest bid")
	}
	return bid, nil
}

func (s *service) Summary(ctx context.Context, auctionID uuid.UUID, carrierID *uuid.UUID) (*SummaryResult, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}
	if auction == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
	}

	summary, err := s.repo.Summary(ctx, auctionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize ledger")
	}

	now := s.now()
	result := &SummaryResult{
		AuctionID:       auctionID,
		BidCount:        summary.BidCount,
		LowestBid:       summary.LowestBid,
		HighestBid:      summary.HighestBid,
		AverageBid:      summary.AverageBid,
		TimeLeftSeconds: auctionclock.TimeLeftSeconds(auction.ExpiresAt, now),
		ClockStatus:     auctionclock.StatusAt(auction.ExpiresAt, now),
	}

	if summary.BidCount > 0 {
		floor, err := s.repo.Lowest(ctx, auctionID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lowest bid")
		}
		if floor != nil {
			result.LowestCarrierID = &floor.CarrierID
		}
	}

	if carrierID != nil && *carrierID != uuid.Nil {
		best, err := s.repo.LowestFor(ctx, auctionID, *carrierID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load carrier bid")
		}
		if best != nil {
			result.CarrierBestBid = &best.Amount
		}
	}
	return result, nil
}

func (s *service) publishFeed(entity changefeed.Entity, eventType string, key uuid.UUID, payload map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.feed.Publish(changefeed.Event{
		Entity:  entity,
		Type:    eventType,
		Key:     key.String(),
		Payload: raw,
	})
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
