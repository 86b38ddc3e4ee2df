package controllers

import (
	"net/http"
	"strings"

	"github.com/haulbid/bidboard-backend/api/responses"
	"github.com/haulbid/bidboard-backend/api/validators"
	"github.com/haulbid/bidboard-backend/internal/leaderboard"
	"github.com/haulbid/bidboard-backend/pkg/enums"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/logger"
)

// Leaderboard returns individual carrier rankings.
func Leaderboard(svc leaderboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tf, sortKey, limit, err := parseLeaderboardQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.RankIndividual(r.Context(), tf, sortKey, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"timeframe": tf,
			"sortBy":    sortKey,
			"items":     entries,
		})
	}
}

// GroupedLeaderboard returns MC- or DOT-grouped fleet rankings.
func GroupedLeaderboard(svc leaderboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tf, sortKey, limit, err := parseLeaderboardQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupBy, err := leaderboard.ParseGroupBy(strings.TrimSpace(r.URL.Query().Get("groupBy")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid groupBy"))
			return
		}

		groups, err := svc.RankGrouped(r.Context(), tf, groupBy, sortKey, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"timeframe": tf,
			"groupBy":   groupBy,
			"sortBy":    sortKey,
			"items":     groups,
		})
	}
}

func parseLeaderboardQuery(r *http.Request) (enums.LeaderboardTimeframe, enums.LeaderboardSortKey, int, error) {
	tf, err := enums.ParseLeaderboardTimeframe(strings.TrimSpace(r.URL.Query().Get("timeframe")))
	if err != nil {
		return "", "", 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid timeframe")
	}
	sortKey, err := enums.ParseLeaderboardSortKey(strings.TrimSpace(r.URL.Query().Get("sortBy")))
	if err != nil {
		return "", "", 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sortBy")
	}
	limit, err := validators.ParseQueryInt(r, "limit", leaderboard.DefaultLimit, 1, 200)
	if err != nil {
		return "", "", 0, err
	}
	return tf, sortKey, limit, nil
}
