package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haulbid/bidboard-backend/pkg/enums"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Service computes the scoring metrics derived from the bid ledger and
// award history.
type Service interface {
	CompetitivenessScore(ctx context.Context, carrierID uuid.UUID, tf enums.LeaderboardTimeframe) (decimal.Decimal, error)
	WinRate(ctx context.Context, carrierID uuid.UUID, tf enums.LeaderboardTimeframe) (decimal.Decimal, error)
	MarketEfficiency(ctx context.Context, tf enums.LeaderboardTimeframe) (decimal.Decimal, error)
	AuctionInsights(ctx context.Context, tf enums.LeaderboardTimeframe) (*Insights, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// Insights is the market-wide rollup for one timeframe.
type Insights struct {
	Timeframe            enums.LeaderboardTimeframe `json:"timeframe"`
	TotalAuctions        int64                      `json:"totalAuctions"`
	NoBidAuctions        int64                      `json:"noBidAuctions"`
	SingleBidAuctions    int64                      `json:"singleBidAuctions"`
	CompetitiveAuctions  int64                      `json:"competitiveAuctions"`
	AvgBidsPerAuction    decimal.Decimal            `json:"avgBidsPerAuction"`
	AvgWinningBid        decimal.Decimal            `json:"avgWinningBid"`
	AvgBidSpread         decimal.Decimal            `json:"avgBidSpread"`
	MarketEfficiency     decimal.Decimal            `json:"marketEfficiency"`
	AvgMinutesToFirstBid decimal.Decimal            `json:"avgMinutesToFirstBid"`
}

// NewService builds the analytics service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analytics repository required")
	}
	return &service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// CompetitivenessScore is the share of the carrier's bids that landed
// within 5% of each auction's lowest bid, as a percentage. Zero bids
// reports 0, never an error.
func (s *service) CompetitivenessScore(ctx context.Context, carrierID uuid.UUID, tf enums.LeaderboardTimeframe) (decimal.Decimal, error) {
	if carrierID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}
	total, competitive, err := s.repo.CarrierBidCounts(ctx, carrierID, CutoffFor(tf, s.now()))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count carrier bids")
	}
	if total == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(competitive).
		Div(decimal.NewFromInt(total)).
		Mul(hundred).
		Round(2), nil
}

// WinRate is current awards over total bids, as a percentage.
func (s *service) WinRate(ctx context.Context, carrierID uuid.UUID, tf enums.LeaderboardTimeframe) (decimal.Decimal, error) {
	if carrierID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}
	cutoff := CutoffFor(tf, s.now())
	total, _, err := s.repo.CarrierBidCounts(ctx, carrierID, cutoff)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count carrier bids")
	}
	if total == 0 {
		return decimal.Zero, nil
	}
	wins, err := s.repo.CarrierWinCount(ctx, carrierID, cutoff)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count carrier wins")
	}
	return decimal.NewFromInt(wins).
		Div(decimal.NewFromInt(total)).
		Mul(hundred).
		Round(2), nil
}

// MarketEfficiency is (1 - avgBidSpread/avgWinningBid) x 100, where the
// spread is highest bid minus winning bid over awarded auctions with at
// least two bids. The value is reported raw and can go negative.
func (s *service) MarketEfficiency(ctx context.Context, tf enums.LeaderboardTimeframe) (decimal.Decimal, error) {
	stats, err := s.repo.AuctionStats(ctx, CutoffFor(tf, s.now()))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction stats")
	}
	_, _, efficiency := spreadAndEfficiency(stats)
	return efficiency, nil
}

func (s *service) AuctionInsights(ctx context.Context, tf enums.LeaderboardTimeframe) (*Insights, error) {
	stats, err := s.repo.AuctionStats(ctx, CutoffFor(tf, s.now()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction stats")
	}

	insights := &Insights{Timeframe: tf, TotalAuctions: int64(len(stats))}
	var (
		totalBids    int64
		firstBidSum  decimal.Decimal
		firstBidRows int64
	)
	for _, stat := range stats {
		totalBids += stat.BidCount
		switch {
		case stat.BidCount == 0:
			insights.NoBidAuctions++
		case stat.BidCount == 1:
			insights.SingleBidAuctions++
		default:
			insights.CompetitiveAuctions++
		}
		if stat.MinutesToFirstBid != nil {
			firstBidSum = firstBidSum.Add(decimal.NewFromFloat(*stat.MinutesToFirstBid))
			firstBidRows++
		}
	}
	if insights.TotalAuctions > 0 {
		insights.AvgBidsPerAuction = decimal.NewFromInt(totalBids).
			Div(decimal.NewFromInt(insights.TotalAuctions)).
			Round(2)
	}
	if firstBidRows > 0 {
		insights.AvgMinutesToFirstBid = firstBidSum.
			Div(decimal.NewFromInt(firstBidRows)).
			Round(1)
	}

	avgWinning, avgSpread, efficiency := spreadAndEfficiency(stats)
	insights.AvgWinningBid = avgWinning
	insights.AvgBidSpread = avgSpread
	insights.MarketEfficiency = efficiency
	return insights, nil
}

// spreadAndEfficiency averages winning bids over awarded auctions and
// spreads over awarded auctions with two or more bids, then folds both
// into the efficiency percentage. No awarded auctions yields all zeros.
func spreadAndEfficiency(stats []AuctionStat) (avgWinning, avgSpread, efficiency decimal.Decimal) {
	var (
		winningSum  decimal.Decimal
		winningRows int64
		spreadSum   decimal.Decimal
		spreadRows  int64
	)
	for _, stat := range stats {
		if stat.WinningBid == nil {
			continue
		}
		winningSum = winningSum.Add(*stat.WinningBid)
		winningRows++
		if stat.BidCount >= 2 && stat.HighestBid != nil {
			spreadSum = spreadSum.Add(stat.HighestBid.Sub(*stat.WinningBid))
			spreadRows++
		}
	}
	if winningRows == 0 {
		return decimal.Zero, decimal.Zero, decimal.Zero
	}
	avgWinning = winningSum.Div(decimal.NewFromInt(winningRows)).Round(2)
	if spreadRows > 0 {
		avgSpread = spreadSum.Div(decimal.NewFromInt(spreadRows)).Round(2)
	}
	if avgWinning.IsZero() {
		return avgWinning, avgSpread, decimal.Zero
	}
	efficiency = decimal.NewFromInt(1).
		Sub(avgSpread.Div(avgWinning)).
		Mul(hundred).
		Round(2)
	return avgWinning, avgSpread, efficiency
}
