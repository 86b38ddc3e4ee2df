package controllers

import (
	"net/http"
	"strings"

	"github.com/haulbid/bidboard-backend/api/responses"
	"github.com/haulbid/bidboard-backend/internal/analytics"
	"github.com/haulbid/bidboard-backend/pkg/enums"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/logger"
)

// CarrierScore returns one carrier's competitiveness and win rate.
func CarrierScore(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		carrierID, err := parseUUIDParam(r, "carrierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tf, err := parseTimeframe(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		score, err := svc.CompetitivenessScore(r.Context(), carrierID, tf)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		winRate, err := svc.WinRate(r.Context(), carrierID, tf)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"carrierId":       carrierID,
			"timeframe":       tf,
			"competitiveness": score,
			"winRate":         winRate,
		})
	}
}

// MarketInsights returns the market-wide auction rollup.
func MarketInsights(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tf, err := parseTimeframe(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		insights, err := svc.AuctionInsights(r.Context(), tf)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, insights)
	}
}

func parseTimeframe(r *http.Request) (enums.LeaderboardTimeframe, error) {
	tf, err := enums.ParseLeaderboardTimeframe(strings.TrimSpace(r.URL.Query().Get("timeframe")))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid timeframe")
	}
	return tf, nil
}
