package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haulbid/bidboard-backend/internal/adjudication"
	"github.com/haulbid/bidboard-backend/internal/analytics"
	"github.com/haulbid/bidboard-backend/internal/auctions"
	"github.com/haulbid/bidboard-backend/internal/bids"
	"github.com/haulbid/bidboard-backend/internal/carriers"
	"github.com/haulbid/bidboard-backend/internal/leaderboard"
	"github.com/haulbid/bidboard-backend/internal/notifications"
	"github.com/haulbid/bidboard-backend/pkg/changefeed"
	"github.com/haulbid/bidboard-backend/pkg/config"
	"github.com/haulbid/bidboard-backend/pkg/db/models"
	"github.com/haulbid/bidboard-backend/pkg/enums"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuctions struct{}

func (stubAuctions) Post(context.Context, auctions.PostInput) (*auctions.View, error) {
	return &auctions.View{}, nil
}
func (stubAuctions) Get(context.Context, uuid.UUID) (*auctions.View, error) {
	return &auctions.View{}, nil
}
func (stubAuctions) Board(context.Context, auctions.BoardParams) (*auctions.BoardResult, error) {
	return &auctions.BoardResult{}, nil
}
func (stubAuctions) SweepExpired(context.Context, int) (int, error) { return 0, nil }

type stubBids struct{}

func (stubBids) Place(context.Context, bids.PlaceInput) (*models.CarrierBid, error) {
	return &models.CarrierBid{}, nil
}
func (stubBids) List(context.Context, uuid.UUID, int) (*bids.ListResult, error) {
	return &bids.ListResult{}, nil
}
func (stubBids) Lowest(context.Context, uuid.UUID) (*models.CarrierBid, error) {
	return nil, nil
}
func (stubBids) Count(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (stubBids) Summary(context.Context, uuid.UUID, *uuid.UUID) (*bids.SummaryResult, error) {
	return &bids.SummaryResult{}, nil
}

type stubAdjudication struct{}

func (stubAdjudication) Award(context.Context, adjudication.AwardInput) (*models.AuctionAward, error) {
	return &models.AuctionAward{}, nil
}
func (stubAdjudication) ReAward(context.Context, adjudication.AwardInput) (*models.AuctionAward, error) {
	return &models.AuctionAward{}, nil
}
func (stubAdjudication) Current(context.Context, uuid.UUID) (*models.AuctionAward, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no current award")
}
func (stubAdjudication) History(context.Context, uuid.UUID) ([]models.AuctionAward, error) {
	return nil, nil
}
func (stubAdjudication) SuggestWinner(context.Context, uuid.UUID) (*models.CarrierBid, error) {
	return &models.CarrierBid{}, nil
}

type stubAnalytics struct{}

func (stubAnalytics) CompetitivenessScore(context.Context, uuid.UUID, enums.LeaderboardTimeframe) (decimal.Decimal, error) {
	return decimal.NewFromInt(50), nil
}
func (stubAnalytics) WinRate(context.Context, uuid.UUID, enums.LeaderboardTimeframe) (decimal.Decimal, error) {
	return decimal.NewFromInt(10), nil
}
func (stubAnalytics) MarketEfficiency(context.Context, enums.LeaderboardTimeframe) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (stubAnalytics) AuctionInsights(context.Context, enums.LeaderboardTimeframe) (*analytics.Insights, error) {
	return &analytics.Insights{}, nil
}

type stubLeaderboard struct{}

func (stubLeaderboard) RankIndividual(context.Context, enums.LeaderboardTimeframe, enums.LeaderboardSortKey, int) ([]leaderboard.Entry, error) {
	return nil, nil
}
func (stubLeaderboard) RankGrouped(context.Context, enums.LeaderboardTimeframe, leaderboard.GroupBy, enums.LeaderboardSortKey, int) ([]leaderboard.GroupEntry, error) {
	return nil, nil
}

type stubCarriers struct{}

func (stubCarriers) Register(context.Context, carriers.RegisterInput) (*models.CarrierProfile, error) {
	return &models.CarrierProfile{}, nil
}
func (stubCarriers) Update(context.Context, uuid.UUID, carriers.RegisterInput) (*models.CarrierProfile, error) {
	return &models.CarrierProfile{}, nil
}
func (stubCarriers) Get(context.Context, uuid.UUID) (*models.CarrierProfile, error) {
	return &models.CarrierProfile{}, nil
}
func (stubCarriers) List(context.Context, carriers.ListParams) (*carriers.ListResult, error) {
	return &carriers.ListResult{}, nil
}

type stubNotifications struct{}

func (stubNotifications) List(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}
func (stubNotifications) UnreadCount(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (stubNotifications) MarkRead(context.Context, uuid.UUID, uuid.UUID) error  { return nil }
func (stubNotifications) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	feed := changefeed.New(changefeed.Options{SubscriberBuffer: 8})
	t.Cleanup(func() { feed.Close() })
	return NewRouter(Deps{
		Config:        &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:            stubPinger{},
		Redis:         stubPinger{},
		Feed:          feed,
		Auctions:      stubAuctions{},
		Bids:          stubBids{},
		Adjudication:  stubAdjudication{},
		Analytics:     stubAnalytics{},
		Leaderboard:   stubLeaderboard{},
		Carriers:      stubCarriers{},
		Notifications: stubNotifications{},
	})
}

func TestRouterRoutes(t *testing.T) {
	router := testRouter(t)
	auctionID := uuid.NewString()
	carrierID := uuid.NewString()

	cases := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"health live", http.MethodGet, "/health/live", http.StatusOK},
		{"health ready", http.MethodGet, "/health/ready", http.StatusOK},
		{"ping", http.MethodGet, "/ping", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"board", http.MethodGet, "/api/v1/auctions?status=active", http.StatusOK},
		{"auction detail", http.MethodGet, "/api/v1/auctions/" + auctionID, http.StatusOK},
		{"bids page", http.MethodGet, "/api/v1/auctions/" + auctionID + "/bids?page=1", http.StatusOK},
		{"bid summary", http.MethodGet, "/api/v1/auctions/" + auctionID + "/bids/summary", http.StatusOK},
		{"current award missing", http.MethodGet, "/api/v1/auctions/" + auctionID + "/award", http.StatusNotFound},
		{"award history", http.MethodGet, "/api/v1/auctions/" + auctionID + "/award/history", http.StatusOK},
		{"carrier score", http.MethodGet, "/api/v1/carriers/" + carrierID + "/score?timeframe=30d", http.StatusOK},
		{"leaderboard", http.MethodGet, "/api/v1/leaderboard?sortBy=win_rate", http.StatusOK},
		{"grouped leaderboard", http.MethodGet, "/api/v1/leaderboard/grouped?groupBy=mc", http.StatusOK},
		{"grouped leaderboard bad key", http.MethodGet, "/api/v1/leaderboard/grouped?groupBy=fleet", http.StatusBadRequest},
		{"insights", http.MethodGet, "/api/v1/analytics/insights", http.StatusOK},
		{"notifications", http.MethodGet, "/api/v1/carriers/" + carrierID + "/notifications", http.StatusOK},
		{"bad auction id", http.MethodGet, "/api/v1/auctions/not-a-uuid", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("%s %s: expected %d, got %d (%s)", tc.method, tc.target, tc.status, w.Code, w.Body.String())
			}
		})
	}
}
