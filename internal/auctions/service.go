package auctions

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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type feedPublisher interface {
	Publish(event changefeed.Event) changefeed.Event
}

// Service defines auction lifecycle operations.
type Service interface {
	Post(ctx context.Context, input PostInput) (*View, error)
	Get(ctx context.Context, id uuid.UUID) (*View, error)
	Board(ctx context.Context, params BoardParams) (*BoardResult, error)
	SweepExpired(ctx context.Context, limit int) (int, error)
}

type service struct {
	repo Repository
	tx   txRunner
	out  outboxPublisher
	feed feedPublisher
	now  func() time.Time
}

// PostInput captures a new load arriving on the board.
type PostInput struct {
	BidNumber     string           `json:"bidNumber" validate:"required"`
	OriginCity    string           `json:"originCity" validate:"required"`
	OriginState   string           `json:"originState" validate:"required,len=2"`
	DestCity      string           `json:"destCity" validate:"required"`
	DestState     string           `json:"destState" validate:"required,len=2"`
	EquipmentType string           `json:"equipmentType" validate:"required"`
	WeightLbs     *int             `json:"weightLbs,omitempty" validate:"omitempty,gt=0"`
	DistanceMiles *int             `json:"distanceMiles,omitempty" validate:"omitempty,gt=0"`
	// Stops is the ordered route; when omitted it defaults to the
	// origin/dest pair.
	Stops         []string         `json:"stops,omitempty"`
	PickupDate    *time.Time       `json:"pickupDate,omitempty"`
	DeliveryDate  *time.Time       `json:"deliveryDate,omitempty"`
	StartingPrice *decimal.Decimal `json:"startingPrice,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	// ReceivedAt defaults to now; intake pipelines that replay history
	// may supply the original receipt time.
	ReceivedAt *time.Time `json:"receivedAt,omitempty"`
}

// View is an auction with its clock state computed at read time.
type View struct {
	models.Auction
	ClockStatus     auctionclock.Status `json:"clockStatus"`
	TimeLeftSeconds int64               `json:"timeLeftSeconds"`
	BidCount        int64               `json:"bidCount"`
	LowestBid       *decimal.Decimal    `json:"lowestBid,omitempty"`
}

// BoardParams filters the public bid board.
type BoardParams struct {
	Status enums.AuctionStatus
	Query  string
	Tag    string
	Page   pagination.Params
}

// BoardResult is one page of the bid board.
type BoardResult struct {
	Items []View          `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

// NewService builds the auction service with the required dependencies.
func NewService(repo Repository, tx txRunner, out outboxPublisher, feed feedPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auctions repository required")
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
		repo: repo,
		tx:   tx,
		out:  out,
		feed: feed,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Post(ctx context.Context, input PostInput) (*View, error) {
	bidNumber := strings.TrimSpace(input.BidNumber)
	if bidNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid number required")
	}
	if input.StartingPrice != nil && input.StartingPrice.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "starting price must be positive")
	}

	receivedAt := s.now()
	if input.ReceivedAt != nil && !input.ReceivedAt.IsZero() {
		receivedAt = input.ReceivedAt.UTC()
	}

	originCity := strings.TrimSpace(input.OriginCity)
	originState := strings.ToUpper(strings.TrimSpace(input.OriginState))
	destCity := strings.TrimSpace(input.DestCity)
	destState := strings.ToUpper(strings.TrimSpace(input.DestState))
	stops := normalizeStops(input.Stops)
	if len(stops) == 0 {
		stops = normalizeStops([]string{
			originCity + ", " + originState,
			destCity + ", " + destState,
		})
	}

	auction := &models.Auction{
		BidNumber:     bidNumber,
		OriginCity:    originCity,
		OriginState:   originState,
		DestCity:      destCity,
		DestState:     destState,
		EquipmentType: strings.TrimSpace(input.EquipmentType),
		WeightLbs:     input.WeightLbs,
		DistanceMiles: input.DistanceMiles,
		Stops:         stops,
		PickupDate:    input.PickupDate,
		DeliveryDate:  input.DeliveryDate,
		StartingPrice: input.StartingPrice,
		Tags:          input.Tags,
		Status:        enums.AuctionStatusActive,
		ReceivedAt:    receivedAt,
		ExpiresAt:     auctionclock.ExpiresAt(receivedAt),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.GetByBidNumber(ctx, bidNumber)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check bid number")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "bid number already posted")
		}
		if err := repo.Create(ctx, auction); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create auction")
		}
		return s.out.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionCreated,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Version:       1,
			Data: payloads.AuctionCreatedEvent{
				AuctionID:     auction.ID,
				BidNumber:     auction.BidNumber,
				OriginCity:    auction.OriginCity,
				OriginState:   auction.OriginState,
				DestCity:      auction.DestCity,
				DestState:     auction.DestState,
				EquipmentType: auction.EquipmentType,
				ReceivedAt:    auction.ReceivedAt,
				ExpiresAt:     auction.ExpiresAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishFeed(changefeed.EntityAuction, string(enums.EventAuctionCreated), auction.ID, map[string]any{
		"auctionId": auction.ID,
		"bidNumber": auction.BidNumber,
		"expiresAt": auction.ExpiresAt,
	})

	view := s.buildView(BoardRow{Auction: *auction})
	return &view, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	auction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}
	if auction == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
	}
	view := s.buildView(BoardRow{Auction: *auction})
	return &view, nil
}

func (s *service) Board(ctx context.Context, params BoardParams) (*BoardResult, error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid auction status")
	}
	page := pagination.Normalize(params.Page, pagination.DefaultPageSize, pagination.MaxPageSize)
	rows, total, err := s.repo.ListBoard(ctx, boardParams{
		Status: params.Status,
		Query:  params.Query,
		Tag:    params.Tag,
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list board")
	}

	items := make([]View, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.buildView(row))
	}
	return &BoardResult{
		Items: items,
		Meta:  pagination.BuildMeta(page, total),
	}, nil
}

// SweepExpired flips auctions whose window has closed and emits the expiry
// event for each. It returns how many auctions were transitioned.
func (s *service) SweepExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	now := s.now()
	expiring, err := s.repo.FindExpiring(ctx, now, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find expiring auctions")
	}

	swept := 0
	for _, auction := range expiring {
		auction := auction
		flipped := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			ok, err := repo.SetStatus(ctx, auction.ID, enums.AuctionStatusActive, enums.AuctionStatusExpired)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire auction")
			}
			if !ok {
				// another sweeper got there first
				return nil
			}
			flipped = true
			return s.out.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventAuctionExpired,
				AggregateType: enums.AggregateAuction,
				AggregateID:   auction.ID,
				Version:       1,
				Data: payloads.AuctionExpiredEvent{
					AuctionID: auction.ID,
					BidNumber: auction.BidNumber,
					ExpiredAt: now,
				},
			})
		})
		if err != nil {
			return swept, err
		}
		if !flipped {
			continue
		}
		swept++
		s.publishFeed(changefeed.EntityAuction, string(enums.EventAuctionExpired), auction.ID, map[string]any{
			"auctionId": auction.ID,
			"bidNumber": auction.BidNumber,
		})
	}
	return swept, nil
}

func (s *service) buildView(row BoardRow) View {
	now := s.now()
	return View{
		Auction:         row.Auction,
		ClockStatus:     auctionclock.StatusAt(row.ExpiresAt, now),
		TimeLeftSeconds: auctionclock.TimeLeftSeconds(row.ExpiresAt, now),
		BidCount:        row.BidCount,
		LowestBid:       row.LowestBid,
	}
}

func normalizeStops(stops []string) []string {
	out := make([]string, 0, len(stops))
	for _, stop := range stops {
		stop = strings.TrimSpace(stop)
		if stop == "" {
			continue
		}
		out = append(out, strings.ToUpper(stop))
	}
	return out
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
