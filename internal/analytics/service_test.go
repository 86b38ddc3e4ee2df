package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haulbid/bidboard-backend/pkg/enums"
)

type fakeRepository struct {
	total       int64
	competitive int64
	wins        int64
	stats       []AuctionStat
	gotSince    *time.Time
}

func (f *fakeRepository) CarrierBidCounts(ctx context.Context, carrierID uuid.UUID, since *time.Time) (int64, int64, error) {
	f.gotSince = since
	return f.total, f.competitive, nil
}

func (f *fakeRepository) CarrierWinCount(ctx context.Context, carrierID uuid.UUID, since *time.Time) (int64, error) {
	return f.wins, nil
}

func (f *fakeRepository) AuctionStats(ctx context.Context, since *time.Time) ([]AuctionStat, error) {
	f.gotSince = since
	return f.stats, nil
}

func dec(value string) *decimal.Decimal {
	parsed := decimal.RequireFromString(value)
	return &parsed
}

func stat(bidCount int64, lowest, highest, winning string) AuctionStat {
	s := AuctionStat{AuctionID: uuid.New(), BidCount: bidCount}
	if lowest != "" {
		s.LowestBid = dec(lowest)
	}
	if highest != "" {
		s.HighestBid = dec(highest)
	}
	if winning != "" {
		s.WinningBid = dec(winning)
	}
	return s
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestCompetitivenessScore(t *testing.T) {
	svc := newTestService(t, &fakeRepository{total: 10, competitive: 6})
	score, err := svc.CompetitivenessScore(context.Background(), uuid.New(), enums.Timeframe30d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !score.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("6 of 10 competitive bids should score 60, got %s", score)
	}
}

func TestCompetitivenessScoreZeroBids(t *testing.T) {
	svc := newTestService(t, &fakeRepository{})
	score, err := svc.CompetitivenessScore(context.Background(), uuid.New(), enums.TimeframeAll)
	if err != nil {
		t.Fatalf("zero bids must not error: %v", err)
	}
	if !score.IsZero() {
		t.Fatalf("zero bids should score 0, got %s", score)
	}
}

func TestWinRate(t *testing.T) {
	svc := newTestService(t, &fakeRepository{total: 8, wins: 2})
	rate, err := svc.WinRate(context.Background(), uuid.New(), enums.Timeframe90d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("2 wins over 8 bids should be 25, got %s", rate)
	}
}

func TestMarketEfficiency(t *testing.T) {
	repo := &fakeRepository{
		stats: []AuctionStat{
			stat(3, "1000", "1200", "1000"),
			stat(2, "900", "1100", "1000"),
			// single-bid auction contributes to avg winning bid only
			stat(1, "1000", "1000", "1000"),
			// unawarded auction is ignored
			stat(4, "800", "950", ""),
		},
	}
	svc := newTestService(t, repo)
	efficiency, err := svc.MarketEfficiency(context.Background(), enums.TimeframeAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// avgWinning = 1000, avgSpread = (200 + 100) / 2 = 150 -> 85%
	if !efficiency.Equal(decimal.NewFromInt(85)) {
		t.Fatalf("expected efficiency 85, got %s", efficiency)
	}
}

func TestMarketEfficiencyCanGoNegative(t *testing.T) {
	repo := &fakeRepository{
		stats: []AuctionStat{stat(2, "100", "350", "100")},
	}
	svc := newTestService(t, repo)
	efficiency, err := svc.MarketEfficiency(context.Background(), enums.TimeframeAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// spread 250 over winning 100 -> (1 - 2.5) x 100 = -150, unclamped
	if !efficiency.Equal(decimal.NewFromInt(-150)) {
		t.Fatalf("efficiency must not be clamped, got %s", efficiency)
	}
}

func TestAuctionInsights(t *testing.T) {
	minutes := 12.0
	awarded := stat(3, "1000", "1200", "1000")
	awarded.MinutesToFirstBid = &minutes
	repo := &fakeRepository{
		stats: []AuctionStat{
			awarded,
			stat(1, "900", "900", ""),
			stat(0, "", "", ""),
		},
	}
	svc := newTestService(t, repo)

	insights, err := svc.AuctionInsights(context.Background(), enums.Timeframe7d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if insights.TotalAuctions != 3 || insights.NoBidAuctions != 1 ||
		insights.SingleBidAuctions != 1 || insights.CompetitiveAuctions != 1 {
		t.Fatalf("auction classification wrong: %+v", insights)
	}
	if !insights.AvgBidsPerAuction.Equal(decimal.RequireFromString("1.33")) {
		t.Fatalf("expected 1.33 avg bids, got %s", insights.AvgBidsPerAuction)
	}
	if !insights.AvgMinutesToFirstBid.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected 12 minutes to first bid, got %s", insights.AvgMinutesToFirstBid)
	}
	if !insights.AvgWinningBid.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected avg winning bid 1000, got %s", insights.AvgWinningBid)
	}
}

func TestCutoffFor(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
	if CutoffFor(enums.TimeframeAll, now) != nil {
		t.Fatal("all time should have no cutoff")
	}
	today := CutoffFor(enums.TimeframeToday, now)
	if today == nil || !today.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("today should cut at midnight UTC, got %v", today)
	}
	week := CutoffFor(enums.Timeframe7d, now)
	if week == nil || !week.Equal(now.AddDate(0, 0, -7)) {
		t.Fatalf("7d cutoff wrong: %v", week)
	}
}
