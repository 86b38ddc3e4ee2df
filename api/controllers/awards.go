package controllers

import (
	"net/http"

	"github.com/haulbid/bidboard-backend/api/responses"
	"github.com/haulbid/bidboard-backend/api/validators"
	"github.com/haulbid/bidboard-backend/internal/adjudication"
	"github.com/haulbid/bidboard-backend/pkg/logger"
)

// AwardAuction grants the first award on an auction.
func AwardAuction(svc adjudication.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := decodeAwardInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		award, err := svc.Award(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, award)
	}
}

// ReAwardAuction replaces the current award with a new winner.
func ReAwardAuction(svc adjudication.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := decodeAwardInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		award, err := svc.ReAward(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, award)
	}
}

// CurrentAward returns the standing award for an auction.
func CurrentAward(svc adjudication.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auctionID, err := parseUUIDParam(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		award, err := svc.Current(r.Context(), auctionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, award)
	}
}

// AwardHistory returns every award row for an auction, current first.
func AwardHistory(svc adjudication.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auctionID, err := parseUUIDParam(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		awards, err := svc.History(r.Context(), auctionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": awards})
	}
}

// SuggestedWinner returns the top of the ledger ranking.
func SuggestedWinner(svc adjudication.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auctionID, err := parseUUIDParam(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.SuggestWinner(r.Context(), auctionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"suggestedWinner": bid})
	}
}

func decodeAwardInput(r *http.Request) (adjudication.AwardInput, error) {
	auctionID, err := parseUUIDParam(r, "auctionId")
	if err != nil {
		return adjudication.AwardInput{}, err
	}
	var body adjudication.AwardInput
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return adjudication.AwardInput{}, err
	}
	body.AuctionID = auctionID
	return body, nil
}
