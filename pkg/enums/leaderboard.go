package enums

import "fmt"

// LeaderboardSortKey selects the ranking column for leaderboard queries.
type LeaderboardSortKey string

const (
	SortByTotalBids       LeaderboardSortKey = "total_bids"
	SortByWins            LeaderboardSortKey = "wins"
	SortByWinRate         LeaderboardSortKey = "win_rate"
	SortByAvgBid          LeaderboardSortKey = "avg_bid"
	SortByRevenue         LeaderboardSortKey = "revenue"
	SortByCompetitiveness LeaderboardSortKey = "competitiveness"
	SortByRecentActivity  LeaderboardSortKey = "recent_activity"
)

var validLeaderboardSortKeys = []LeaderboardSortKey{
	SortByTotalBids,
	SortByWins,
	SortByWinRate,
	SortByAvgBid,
	SortByRevenue,
	SortByCompetitiveness,
	SortByRecentActivity,
}

func (k LeaderboardSortKey) IsValid() bool {
	for _, candidate := range validLeaderboardSortKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseLeaderboardSortKey converts raw input into LeaderboardSortKey,
// defaulting to total_bids for empty input.
func ParseLeaderboardSortKey(value string) (LeaderboardSortKey, error) {
	if value == "" {
		return SortByTotalBids, nil
	}
	for _, candidate := range validLeaderboardSortKeys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid leaderboard sort key %q", value)
}

// LeaderboardTimeframe bounds leaderboard aggregation windows.
type LeaderboardTimeframe string

const (
	TimeframeToday LeaderboardTimeframe = "today"
	Timeframe7d    LeaderboardTimeframe = "7d"
	Timeframe30d   LeaderboardTimeframe = "30d"
	Timeframe90d   LeaderboardTimeframe = "90d"
	Timeframe365d  LeaderboardTimeframe = "365d"
	TimeframeAll   LeaderboardTimeframe = "all"
)

var validLeaderboardTimeframes = []LeaderboardTimeframe{
	TimeframeToday,
	Timeframe7d,
	Timeframe30d,
	Timeframe90d,
	Timeframe365d,
	TimeframeAll,
}

func (f LeaderboardTimeframe) IsValid() bool {
	for _, candidate := range validLeaderboardTimeframes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseLeaderboardTimeframe converts raw input into LeaderboardTimeframe,
// defaulting to all time for empty input.
func ParseLeaderboardTimeframe(value string) (LeaderboardTimeframe, error) {
	if value == "" {
		return TimeframeAll, nil
	}
	for _, candidate := range validLeaderboardTimeframes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid leaderboard timeframe %q", value)
}
