package adjudication

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/pkg/changefeed"
	"github.com/haulbid/bidboard-backend/pkg/db"
	"github.com/haulbid/bidboard-backend/pkg/db/models"
	"github.com/haulbid/bidboard-backend/pkg/enums"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/logger"
	"github.com/haulbid/bidboard-backend/pkg/outbox"
	"github.com/haulbid/bidboard-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type feedPublisher interface {
	Publish(event changefeed.Event) changefeed.Event
}

// Service adjudicates auctions: it grants awards, replaces them, and
// reads award state. There is no revoke; an award only ever leaves the
// current slot by being superseded.
type Service interface {
	Award(ctx context.Context, input AwardInput) (*models.AuctionAward, error)
	ReAward(ctx context.Context, input AwardInput) (*models.AuctionAward, error)
	Current(ctx context.Context, auctionID uuid.UUID) (*models.AuctionAward, error)
	History(ctx context.Context, auctionID uuid.UUID) ([]models.AuctionAward, error)
	SuggestWinner(ctx context.Context, auctionID uuid.UUID) (*models.CarrierBid, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	out   outboxPublisher
	feed  feedPublisher
	logg  *logger.Logger
	locks *keyedMutex
	now   func() time.Time
}

// AwardInput names the carrier to win an auction. The award amount is
// always the carrier's lowest bid on that auction. AwardedBy identifies
// the adjudicator making the call and is stored on the award row.
type AwardInput struct {
	AuctionID uuid.UUID `json:"auctionId" validate:"required"`
	CarrierID uuid.UUID `json:"carrierId" validate:"required"`
	AwardedBy string    `json:"awardedBy" validate:"required"`
	Reason    *string   `json:"reason,omitempty"`
}

// NewService builds the adjudication service with the required dependencies.
func NewService(repo Repository, tx txRunner, out outboxPublisher, feed feedPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "adjudication repository required")
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
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:  repo,
		tx:    tx,
		out:   out,
		feed:  feed,
		logg:  logg,
		locks: newKeyedMutex(),
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Award(ctx context.Context, input AwardInput) (*models.AuctionAward, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(input.AuctionID)
	defer unlock()

	var award *models.AuctionAward
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.Current(ctx, input.AuctionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current award")
		}
		if current != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction already awarded")
		}
		bid, err := repo.LowestBidFor(ctx, input.AuctionID, input.CarrierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load winning bid")
		}
		if bid == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "carrier has no bid on this auction")
		}

		award = s.buildAward(input, bid)
		if err := repo.Create(ctx, award); err != nil {
			if db.IsUniqueViolation(err, models.CurrentAwardConstraint) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "auction already awarded")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create award")
		}
		return s.emitAwardCreated(ctx, tx, award, false)
	})
	if err != nil {
		return nil, err
	}

	s.publishAwardFeed(string(enums.EventAwardCreated), award)
	s.notifyBidders(ctx, award, nil)
	return award, nil
}

func (s *service) ReAward(ctx context.Context, input AwardInput) (*models.AuctionAward, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(input.AuctionID)
	defer unlock()

	var (
		award    *models.AuctionAward
		replaced *models.AuctionAward
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.Current(ctx, input.AuctionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current award")
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no current award to replace")
		}
		bid, err := repo.LowestBidFor(ctx, input.AuctionID, input.CarrierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load winning bid")
		}
		if bid == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "carrier has no bid on this auction")
		}

		supersededAt := s.now()
		rows, err := repo.Supersede(ctx, current.ID, supersededAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "supersede award")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "current award changed, retry")
		}
		current.SupersededAt = &supersededAt
		replaced = current

		award = s.buildAward(input, bid)
		if err := repo.Create(ctx, award); err != nil {
			if db.IsUniqueViolation(err, models.CurrentAwardConstraint) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "current award changed, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create award")
		}

		if err := s.out.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAwardSuperseded,
			AggregateType: enums.AggregateAuctionAward,
			AggregateID:   replaced.ID,
			Version:       1,
			Data: payloads.AwardSupersededEvent{
				AwardID:         replaced.ID,
				AuctionID:       replaced.AuctionID,
				CarrierID:       replaced.CarrierID,
				ReplacedByBidID: &award.BidID,
				SupersededAt:    supersededAt,
			},
		}); err != nil {
			return err
		}
		return s.emitAwardCreated(ctx, tx, award, true)
	})
	if err != nil {
		return nil, err
	}

	s.publishAwardFeed(string(enums.EventAwardSuperseded), replaced)
	s.publishAwardFeed(string(enums.EventAwardCreated), award)
	s.notifyBidders(ctx, award, replaced)
	return award, nil
}

func (s *service) Current(ctx context.Context, auctionID uuid.UUID) (*models.AuctionAward, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	award, err := s.repo.Current(ctx, auctionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current award")
	}
	if award == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no current award")
	}
	return award, nil
}

func (s *service) History(ctx context.Context, auctionID uuid.UUID) ([]models.AuctionAward, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	awards, err := s.repo.HistoryByAuction(ctx, auctionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load award history")
	}
	return awards, nil
}

func (s *service) SuggestWinner(ctx context.Context, auctionID uuid.UUID) (*models.CarrierBid, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	bid, err := s.repo.SuggestedWinner(ctx, auctionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load suggested winner")
	}
	if bid == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction has no bids")
	}
	return bid, nil
}

func (s *service) buildAward(input AwardInput, bid *models.CarrierBid) *models.AuctionAward {
	return &models.AuctionAward{
		AuctionID: input.AuctionID,
		BidID:     bid.ID,
		CarrierID: bid.CarrierID,
		Amount:    bid.Amount,
		Reason:    input.Reason,
		AwardedBy: strings.TrimSpace(input.AwardedBy),
		AwardedAt: s.now(),
	}
}

func (s *service) emitAwardCreated(ctx context.Context, tx *gorm.DB, award *models.AuctionAward, reAward bool) error {
	return s.out.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAwardCreated,
		AggregateType: enums.AggregateAuctionAward,
		AggregateID:   award.ID,
		Version:       1,
		Data: payloads.AwardCreatedEvent{
			AwardID:   award.ID,
			AuctionID: award.AuctionID,
			BidID:     award.BidID,
			CarrierID: award.CarrierID,
			Amount:    award.Amount,
			AwardedBy: award.AwardedBy,
			AwardedAt: award.AwardedAt,
			ReAward:   reAward,
		},
	})
}

func (s *service) publishAwardFeed(eventType string, award *models.AuctionAward) {
	raw, err := json.Marshal(map[string]any{
		"awardId":   award.ID,
		"auctionId": award.AuctionID,
		"carrierId": award.CarrierID,
		"amount":    award.Amount,
		"awardedBy": award.AwardedBy,
	})
	if err != nil {
		return
	}
	s.feed.Publish(changefeed.Event{
		Entity:  changefeed.EntityAward,
		Type:    eventType,
		Key:     award.AuctionID.String(),
		Payload: raw,
	})
}

// notifyBidders queues one notification per bidder after the award
// commits. Failures are logged, never surfaced: the award already stands.
func (s *service) notifyBidders(ctx context.Context, award *models.AuctionAward, replaced *models.AuctionAward) {
	bidders, err := s.repo.Bidders(ctx, award.AuctionID)
	if err != nil {
		s.logg.Error(ctx, "load bidders for notification fan-out", err)
		return
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, carrierID := range bidders {
			notificationType := enums.NotificationTypeAwardLost
			message := "Another carrier won this load."
			switch {
			case carrierID == award.CarrierID:
				notificationType = enums.NotificationTypeAwardWon
				message = fmt.Sprintf("You won the load at $%s.", award.Amount.StringFixed(2))
			case replaced != nil && carrierID == replaced.CarrierID:
				notificationType = enums.NotificationTypeAwardReplaced
				message = "Your award on this load was replaced."
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventNotificationRequested,
				AggregateType: enums.AggregateNotification,
				AggregateID:   uuid.New(),
				Version:       1,
				Data: payloads.NotificationRequestedEvent{
					CarrierID: carrierID,
					Type:      string(notificationType),
					Title:     "Award decision",
					Message:   message,
				},
			}
			if err := s.out.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logg.Error(ctx, "queue award notifications", err)
	}
}

func validateInput(input AwardInput) error {
	if input.AuctionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	if input.CarrierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}
	if strings.TrimSpace(input.AwardedBy) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "awarded by required")
	}
	return nil
}
