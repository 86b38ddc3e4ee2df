package auctions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/internal/auctionclock"
	"github.com/haulbid/bidboard-backend/pkg/changefeed"
	"github.com/haulbid/bidboard-backend/pkg/db/models"
	"github.com/haulbid/bidboard-backend/pkg/enums"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/outbox"
)

type fakeRepository struct {
	createFn         func(ctx context.Context, auction *models.Auction) error
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	getByBidNumberFn func(ctx context.Context, bidNumber string) (*models.Auction, error)
	listBoardFn      func(ctx context.Context, params boardParams) ([]BoardRow, int64, error)
	findExpiringFn   func(ctx context.Context, now time.Time, limit int) ([]models.Auction, error)
	setStatusFn      func(ctx context.Context, id uuid.UUID, from, to enums.AuctionStatus) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, auction *models.Auction) error {
	if f.createFn != nil {
		return f.createFn(ctx, auction)
	}
	auction.ID = uuid.New()
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeRepository) GetByBidNumber(ctx context.Context, bidNumber string) (*models.Auction, error) {
	if f.getByBidNumberFn != nil {
		return f.getByBidNumberFn(ctx, bidNumber)
	}
	return nil, nil
}

func (f *fakeRepository) ListBoard(ctx context.Context, params boardParams) ([]BoardRow, int64, error) {
	if f.listBoardFn != nil {
		return f.listBoardFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeRepository) FindExpiring(ctx context.Context, now time.Time, limit int) ([]models.Auction, error) {
	if f.findExpiringFn != nil {
		return f.findExpiringFn(ctx, now, limit)
	}
	return nil, nil
}

func (f *fakeRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to enums.AuctionStatus) (bool, error) {
	if f.setStatusFn != nil {
		return f.setStatusFn(ctx, id, from, to)
	}
	return true, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeFeed struct {
	events []changefeed.Event
}

func (f *fakeFeed) Publish(event changefeed.Event) changefeed.Event {
	f.events = append(f.events, event)
	return event
}

func newTestService(t *testing.T, repo Repository, out *fakeOutbox, feed *fakeFeed, now time.Time) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{}, out, feed)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	svc.(*service).now = func() time.Time { return now }
	return svc
}

func TestPostSetsClockAndEmitsEvents(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := &fakeOutbox{}
	feed := &fakeFeed{}
	svc := newTestService(t, &fakeRepository{}, out, feed, now)

	view, err := svc.Post(context.Background(), PostInput{
		BidNumber:     "LOAD-1001",
		OriginCity:    "Dallas",
		OriginState:   "tx",
		DestCity:      "Atlanta",
		DestState:     "GA",
		EquipmentType: "reefer",
	})
	if err != nil {
		t.Fatalf("unexpected post error: %v", err)
	}
	if !view.ExpiresAt.Equal(now.Add(auctionclock.Window)) {
		t.Fatalf("expected expiry %v, got %v", now.Add(auctionclock.Window), view.ExpiresAt)
	}
	if view.OriginState != "TX" {
		t.Fatalf("expected state to be upcased, got %q", view.OriginState)
	}
	if view.ClockStatus != auctionclock.StatusActive {
		t.Fatalf("expected fresh auction to be active")
	}
	if len(out.events) != 1 || out.events[0].EventType != enums.EventAuctionCreated {
		t.Fatalf("expected one auction_created outbox event, got %+v", out.events)
	}
	if len(feed.events) != 1 || feed.events[0].Entity != changefeed.EntityAuction {
		t.Fatalf("expected one auction feed event, got %+v", feed.events)
	}
}

func TestPostCarriesRouteDetails(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var created *models.Auction
	repo := &fakeRepository{
		createFn: func(ctx context.Context, auction *models.Auction) error {
			auction.ID = uuid.New()
			created = auction
			return nil
		},
	}
	svc := newTestService(t, repo, &fakeOutbox{}, &fakeFeed{}, now)

	distance := 940
	delivery := now.Add(30 * time.Hour)
	view, err := svc.Post(context.Background(), PostInput{
		BidNumber:     "LOAD-1002",
		OriginCity:    "Dallas",
		OriginState:   "TX",
		DestCity:      "Atlanta",
		DestState:     "GA",
		EquipmentType: "van",
		DistanceMiles: &distance,
		Stops:         []string{" dallas, tx 75201 ", "", "Birmingham, AL 35203", "atlanta, ga 30303"},
		DeliveryDate:  &delivery,
	})
	if err != nil {
		t.Fatalf("unexpected post error: %v", err)
	}
	wantStops := []string{"DALLAS, TX 75201", "BIRMINGHAM, AL 35203", "ATLANTA, GA 30303"}
	if len(created.Stops) != len(wantStops) {
		t.Fatalf("expected %d stops, got %v", len(wantStops), created.Stops)
	}
	for i, stop := range wantStops {
		if created.Stops[i] != stop {
			t.Fatalf("stop %d: expected %q, got %q", i, stop, created.Stops[i])
		}
	}
	if created.DistanceMiles == nil || *created.DistanceMiles != 940 {
		t.Fatalf("expected distance 940, got %v", created.DistanceMiles)
	}
	if created.DeliveryDate == nil || !created.DeliveryDate.Equal(delivery) {
		t.Fatalf("expected delivery %v, got %v", delivery, created.DeliveryDate)
	}
	if view.DistanceMiles == nil || *view.DistanceMiles != 940 {
		t.Fatalf("view should carry the distance, got %v", view.DistanceMiles)
	}
}

func TestPostDefaultsStopsToEndpoints(t *testing.T) {
	now := time.Now().UTC()
	var created *models.Auction
	repo := &fakeRepository{
		createFn: func(ctx context.Context, auction *models.Auction) error {
			auction.ID = uuid.New()
			created = auction
			return nil
		},
	}
	svc := newTestService(t, repo, &fakeOutbox{}, &fakeFeed{}, now)

	if _, err := svc.Post(context.Background(), PostInput{
		BidNumber:     "LOAD-1003",
		OriginCity:    "Dallas",
		OriginState:   "tx",
		DestCity:      "Atlanta",
		DestState:     "ga",
		EquipmentType: "van",
	}); err != nil {
		t.Fatalf("unexpected post error: %v", err)
	}
	if len(created.Stops) != 2 || created.Stops[0] != "DALLAS, TX" || created.Stops[1] != "ATLANTA, GA" {
		t.Fatalf("expected endpoint stops, got %v", created.Stops)
	}
}

func TestPostRejectsDuplicateBidNumber(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepository{
		getByBidNumberFn: func(ctx context.Context, bidNumber string) (*models.Auction, error) {
			return &models.Auction{ID: uuid.New(), BidNumber: bidNumber}, nil
		},
	}
	svc := newTestService(t, repo, &fakeOutbox{}, &fakeFeed{}, now)

	_, err := svc.Post(context.Background(), PostInput{BidNumber: "LOAD-1001"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestGetComputesTimeLeft(t *testing.T) {
	received := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := received.Add(10 * time.Minute)
	repo := &fakeRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
			return &models.Auction{ID: id, ReceivedAt: received, ExpiresAt: auctionclock.ExpiresAt(received)}, nil
		},
	}
	svc := newTestService(t, repo, &fakeOutbox{}, &fakeFeed{}, now)

	view, err := svc.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if view.TimeLeftSeconds != 15*60 {
		t.Fatalf("expected 900 seconds left, got %d", view.TimeLeftSeconds)
	}
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeOutbox{}, &fakeFeed{}, time.Now().UTC())
	_, err := svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSweepExpiredSkipsRowsAnotherSweeperTook(t *testing.T) {
	now := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	stale := models.Auction{ID: uuid.New(), BidNumber: "LOAD-1", ReceivedAt: now.Add(-time.Hour)}
	taken := models.Auction{ID: uuid.New(), BidNumber: "LOAD-2", ReceivedAt: now.Add(-time.Hour)}

	repo := &fakeRepository{
		findExpiringFn: func(ctx context.Context, at time.Time, limit int) ([]models.Auction, error) {
			return []models.Auction{stale, taken}, nil
		},
		setStatusFn: func(ctx context.Context, id uuid.UUID, from, to enums.AuctionStatus) (bool, error) {
			return id == stale.ID, nil
		},
	}
	out := &fakeOutbox{}
	svc := newTestService(t, repo, out, &fakeFeed{}, now)

	swept, err := svc.SweepExpired(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept auction, got %d", swept)
	}
	if len(out.events) != 1 || out.events[0].AggregateID != stale.ID {
		t.Fatalf("expected expiry event only for the row we flipped, got %+v", out.events)
	}
}
