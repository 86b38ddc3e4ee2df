package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haulbid/bidboard-backend/internal/analytics"
	"github.com/haulbid/bidboard-backend/pkg/enums"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/logger"
)

// GroupBy selects the regulatory identity used for fleet grouping.
type GroupBy string

const (
	GroupByMC  GroupBy = "mc"
	GroupByDOT GroupBy = "dot"
)

// ParseGroupBy converts raw input into GroupBy.
func ParseGroupBy(value string) (GroupBy, error) {
	switch GroupBy(value) {
	case GroupByMC:
		return GroupByMC, nil
	case GroupByDOT:
		return GroupByDOT, nil
	}
	return "", fmt.Errorf("invalid group key %q", value)
}

// DefaultLimit caps leaderboard responses when callers pass none.
const DefaultLimit = 50

var hundred = decimal.NewFromInt(100)

// Entry is one carrier's leaderboard line.
type Entry struct {
	CarrierID       uuid.UUID       `json:"carrierId"`
	CarrierName     string          `json:"carrierName"`
	MCNumber        *string         `json:"mcNumber,omitempty"`
	DOTNumber       *string         `json:"dotNumber,omitempty"`
	TotalBids       int64           `json:"totalBids"`
	Wins            int64           `json:"wins"`
	WinRate         decimal.Decimal `json:"winRate"`
	AvgBid          decimal.Decimal `json:"avgBid"`
	Revenue         decimal.Decimal `json:"revenue"`
	Competitiveness decimal.Decimal `json:"competitiveness"`
	LastBidAt       *time.Time      `json:"lastBidAt,omitempty"`
}

// GroupEntry is one MC- or DOT-keyed fleet line. Rates come from summed
// numerators and denominators, never from averaging member rates.
type GroupEntry struct {
	GroupKey        string          `json:"groupKey"`
	CarrierCount    int             `json:"carrierCount"`
	TotalBids       int64           `json:"totalBids"`
	Wins            int64           `json:"wins"`
	WinRate         decimal.Decimal `json:"winRate"`
	AvgBid          decimal.Decimal `json:"avgBid"`
	Revenue         decimal.Decimal `json:"revenue"`
	Competitiveness decimal.Decimal `json:"competitiveness"`
	TopCarrier      string          `json:"topCarrier"`
	LastBidAt       *time.Time      `json:"lastBidAt,omitempty"`
}

type cacheStore interface {
	CacheKey(parts ...string) string
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service ranks carriers individually and by fleet.
type Service interface {
	RankIndividual(ctx context.Context, tf enums.LeaderboardTimeframe, sortKey enums.LeaderboardSortKey, limit int) ([]Entry, error)
	RankGrouped(ctx context.Context, tf enums.LeaderboardTimeframe, groupBy GroupBy, sortKey enums.LeaderboardSortKey, limit int) ([]GroupEntry, error)
}

type service struct {
	repo     Repository
	cache    cacheStore
	logg     *logger.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewService builds the leaderboard service. The cache is optional;
// passing nil disables the read-through layer.
func NewService(repo Repository, cache cacheStore, logg *logger.Logger, cacheTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "leaderboard repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &service{
		repo:     repo,
		cache:    cache,
		logg:     logg,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) RankIndividual(ctx context.Context, tf enums.LeaderboardTimeframe, sortKey enums.LeaderboardSortKey, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)
	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.CacheKey("leaderboard", "individual", string(tf), string(sortKey), fmt.Sprint(limit))
		var cached []Entry
		if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
			s.logg.Warn(ctx, "leaderboard cache read failed: "+err.Error())
		} else if hit {
			return cached, nil
		}
	}

	rows, err := s.repo.CarrierStats(ctx, analytics.CutoffFor(tf, s.now()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load carrier stats")
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, buildEntry(row))
	}
	sortEntries(entries, sortKey)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, entries, s.cacheTTL); err != nil {
			s.logg.Warn(ctx, "leaderboard cache write failed: "+err.Error())
		}
	}
	return entries, nil
}

func (s *service) RankGrouped(ctx context.Context, tf enums.LeaderboardTimeframe, groupBy GroupBy, sortKey enums.LeaderboardSortKey, limit int) ([]GroupEntry, error) {
	if groupBy != GroupByMC && groupBy != GroupByDOT {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group key must be mc or dot")
	}
	limit = normalizeLimit(limit)
	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.CacheKey("leaderboard", "grouped", string(groupBy), string(tf), string(sortKey), fmt.Sprint(limit))
		var cached []GroupEntry
		if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
			s.logg.Warn(ctx, "leaderboard cache read failed: "+err.Error())
		} else if hit {
			return cached, nil
		}
	}

	rows, err := s.repo.CarrierStats(ctx, analytics.CutoffFor(tf, s.now()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load carrier stats")
	}

	groups := buildGroups(rows, groupBy)
	sortGroups(groups, sortKey)
	if len(groups) > limit {
		groups = groups[:limit]
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, groups, s.cacheTTL); err != nil {
			s.logg.Warn(ctx, "leaderboard cache write failed: "+err.Error())
		}
	}
	return groups, nil
}

func buildEntry(row CarrierRow) Entry {
	entry := Entry{
		CarrierID:   row.CarrierID,
		CarrierName: row.CarrierName,
		MCNumber:    row.MCNumber,
		DOTNumber:   row.DOTNumber,
		TotalBids:   row.TotalBids,
		Wins:        row.Wins,
		Revenue:     row.Revenue,
		LastBidAt:   row.LastBidAt,
	}
	if row.TotalBids > 0 {
		total := decimal.NewFromInt(row.TotalBids)
		entry.WinRate = decimal.NewFromInt(row.Wins).Div(total).Mul(hundred).Round(2)
		entry.AvgBid = row.BidSum.Div(total).Round(2)
		entry.Competitiveness = decimal.NewFromInt(row.CompetitiveBids).Div(total).Mul(hundred).Round(2)
	}
	return entry
}

// buildGroups partitions rows by the chosen identity; carriers without
// that identity are left out of the grouped view entirely.
func buildGroups(rows []CarrierRow, groupBy GroupBy) []GroupEntry {
	type bucket struct {
		entry           GroupEntry
		bidSum          decimal.Decimal
		competitiveBids int64
		topCarrierBids  int64
	}
	buckets := make(map[string]*bucket)
	for _, row := range rows {
		key := groupKey(row, groupBy)
		if key == "" {
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{entry: GroupEntry{GroupKey: key}}
			buckets[key] = b
		}
		b.entry.CarrierCount++
		b.entry.TotalBids += row.TotalBids
		b.entry.Wins += row.Wins
		b.entry.Revenue = b.entry.Revenue.Add(row.Revenue)
		b.bidSum = b.bidSum.Add(row.BidSum)
		b.competitiveBids += row.CompetitiveBids
		if row.TotalBids > b.topCarrierBids {
			b.topCarrierBids = row.TotalBids
			b.entry.TopCarrier = row.CarrierName
		}
		if row.LastBidAt != nil && (b.entry.LastBidAt == nil || row.LastBidAt.After(*b.entry.LastBidAt)) {
			b.entry.LastBidAt = row.LastBidAt
		}
	}

	groups := make([]GroupEntry, 0, len(buckets))
	for _, b := range buckets {
		if b.entry.TotalBids > 0 {
			total := decimal.NewFromInt(b.entry.TotalBids)
			b.entry.WinRate = decimal.NewFromInt(b.entry.Wins).Div(total).Mul(hundred).Round(2)
			b.entry.AvgBid = b.bidSum.Div(total).Round(2)
			b.entry.Competitiveness = decimal.NewFromInt(b.competitiveBids).Div(total).Mul(hundred).Round(2)
		}
		groups = append(groups, b.entry)
	}
	return groups
}

func groupKey(row CarrierRow, groupBy GroupBy) string {
	switch groupBy {
	case GroupByMC:
		if row.MCNumber != nil {
			return *row.MCNumber
		}
	case GroupByDOT:
		if row.DOTNumber != nil {
			return *row.DOTNumber
		}
	}
	return ""
}

// sortEntries orders descending on the chosen key, with carrier id as
// the final tie-break so the order is total.
func sortEntries(entries []Entry, sortKey enums.LeaderboardSortKey) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if cmp := compareEntry(a, b, sortKey); cmp != 0 {
			return cmp > 0
		}
		return a.CarrierID.String() < b.CarrierID.String()
	})
}

func compareEntry(a, b Entry, sortKey enums.LeaderboardSortKey) int {
	switch sortKey {
	case enums.SortByWins:
		return compareInt(a.Wins, b.Wins)
	case enums.SortByWinRate:
		return a.WinRate.Cmp(b.WinRate)
	case enums.SortByAvgBid:
		return a.AvgBid.Cmp(b.AvgBid)
	case enums.SortByRevenue:
		return a.Revenue.Cmp(b.Revenue)
	case enums.SortByCompetitiveness:
		return a.Competitiveness.Cmp(b.Competitiveness)
	case enums.SortByRecentActivity:
		return compareTime(a.LastBidAt, b.LastBidAt)
	default:
		return compareInt(a.TotalBids, b.TotalBids)
	}
}

func sortGroups(groups []GroupEntry, sortKey enums.LeaderboardSortKey) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if cmp := compareGroup(a, b, sortKey); cmp != 0 {
			return cmp > 0
		}
		return a.GroupKey < b.GroupKey
	})
}

func compareGroup(a, b GroupEntry, sortKey enums.LeaderboardSortKey) int {
	switch sortKey {
	case enums.SortByWins:
		return compareInt(a.Wins, b.Wins)
	case enums.SortByWinRate:
		return a.WinRate.Cmp(b.WinRate)
	case enums.SortByAvgBid:
		return a.AvgBid.Cmp(b.AvgBid)
	case enums.SortByRevenue:
		return a.Revenue.Cmp(b.Revenue)
	case enums.SortByCompetitiveness:
		return a.Competitiveness.Cmp(b.Competitiveness)
	case enums.SortByRecentActivity:
		return compareTime(a.LastBidAt, b.LastBidAt)
	default:
		return compareInt(a.TotalBids, b.TotalBids)
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
