package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haulbid/bidboard-backend/api/controllers"
	"github.com/haulbid/bidboard-backend/api/middleware"
	"github.com/haulbid/bidboard-backend/internal/adjudication"
	"github.com/haulbid/bidboard-backend/internal/analytics"
	"github.com/haulbid/bidboard-backend/internal/auctions"
	"github.com/haulbid/bidboard-backend/internal/bids"
	"github.com/haulbid/bidboard-backend/internal/carriers"
	"github.com/haulbid/bidboard-backend/internal/leaderboard"
	"github.com/haulbid/bidboard-backend/internal/notifications"
	"github.com/haulbid/bidboard-backend/pkg/changefeed"
	"github.com/haulbid/bidboard-backend/pkg/config"
	"github.com/haulbid/bidboard-backend/pkg/logger"
	"github.com/haulbid/bidboard-backend/pkg/metrics"
)

// Pinger is the readiness surface for hard dependencies.
type Pinger = controllers.Pinger

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            Pinger
	Redis         Pinger
	HTTPMetrics   *metrics.HTTPMetrics
	Feed          *changefeed.Feed
	Auctions      auctions.Service
	Bids          bids.Service
	Adjudication  adjudication.Service
	Analytics     analytics.Service
	Leaderboard   leaderboard.Service
	Carriers      carriers.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})
	r.Get("/ping", controllers.Ping())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auctions", func(r chi.Router) {
			r.Post("/", controllers.PostAuction(deps.Auctions, logg))
			r.Get("/", controllers.AuctionBoard(deps.Auctions, logg))
			r.Route("/{auctionId}", func(r chi.Router) {
				r.Get("/", controllers.GetAuction(deps.Auctions, logg))

				r.Route("/bids", func(r chi.Router) {
					r.Post("/", controllers.PlaceBid(deps.Bids, logg))
					r.Get("/", controllers.ListBids(deps.Bids, logg))
					r.Get("/lowest", controllers.LowestBid(deps.Bids, logg))
					r.Get("/summary", controllers.BidSummary(deps.Bids, logg))
				})

				r.Route("/award", func(r chi.Router) {
					r.Post("/", controllers.AwardAuction(deps.Adjudication, logg))
					r.Post("/replace", controllers.ReAwardAuction(deps.Adjudication, logg))
					r.Get("/", controllers.CurrentAward(deps.Adjudication, logg))
					r.Get("/history", controllers.AwardHistory(deps.Adjudication, logg))
					r.Get("/suggested", controllers.SuggestedWinner(deps.Adjudication, logg))
				})
			})
		})

		r.Route("/carriers", func(r chi.Router) {
			r.Post("/", controllers.RegisterCarrier(deps.Carriers, logg))
			r.Get("/", controllers.ListCarriers(deps.Carriers, logg))
			r.Route("/{carrierId}", func(r chi.Router) {
				r.Get("/", controllers.GetCarrier(deps.Carriers, logg))
				r.Put("/", controllers.UpdateCarrier(deps.Carriers, logg))
				r.Get("/score", controllers.CarrierScore(deps.Analytics, logg))

				r.Route("/notifications", func(r chi.Router) {
					r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
					r.Get("/unread", controllers.UnreadNotificationCount(deps.Notifications, logg))
					r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
					r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				})
			})
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/insights", controllers.MarketInsights(deps.Analytics, logg))
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", controllers.Leaderboard(deps.Leaderboard, logg))
			r.Get("/grouped", controllers.GroupedLeaderboard(deps.Leaderboard, logg))
		})

		r.Get("/changefeed", controllers.ChangeFeedStream(deps.Feed, logg))
	})

	return r
}
