package analytics

import (
	"time"

	"github.com/haulbid/bidboard-backend/pkg/enums"
)

// CutoffFor translates a timeframe into the inclusive lower bound applied
// to the underlying rows. Nil means no bound.
func CutoffFor(tf enums.LeaderboardTimeframe, now time.Time) *time.Time {
	var cutoff time.Time
	switch tf {
	case enums.TimeframeToday:
		year, month, day := now.UTC().Date()
		cutoff = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	case enums.Timeframe7d:
		cutoff = now.Add(-7 * 24 * time.Hour)
	case enums.Timeframe30d:
		cutoff = now.Add(-30 * 24 * time.Hour)
	case enums.Timeframe90d:
		cutoff = now.Add(-90 * 24 * time.Hour)
	case enums.Timeframe365d:
		cutoff = now.Add(-365 * 24 * time.Hour)
	default:
		return nil
	}
	return &cutoff
}
