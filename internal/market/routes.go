package market

import (
	"net/http"

	"github.com/OpenFloor/OF-Backend/internal/middleware"
	"github.com/OpenFloor/OF-Backend/internal/sse"
	"gorm.io/gorm"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(db *gorm.DB, hub *sse.Hub) http.Handler {
	r := chi.NewRouter()
	h := NewHandler(db, hub)
	sessionFetcher := SessionInfo{}

	// Aggregate-only reads; no voter data or price can leak from these.
	r.Get("/debates/{debate_id}/stats", h.GetAggregateStats)
	r.Get("/debates/{debate_id}/spikes", h.GetSpikes)
	r.Get("/reputation/{user_id}", h.GetReputation)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))

		r.Group(func(r chi.Router) {
			r.Use(middleware.VoteRateLimiter())
			r.Post("/debates/{debate_id}/stance/pre", h.RecordPreStance)
			r.Post("/debates/{debate_id}/stance/post", h.RecordPostStance)
			r.Post("/arguments/{argument_id}/mind-change", h.AttributeMindChange)
		})

		r.Get("/debates/{debate_id}/stances/{owner_id}", h.GetOwnStances)
		r.Get("/debates/{debate_id}/delta", h.GetPersuasionDelta)
		r.Get("/debates/{debate_id}/price", h.GetMarketPrice)
		// The price series reveals current sentiment, so it is gated like /price.
		r.Get("/debates/{debate_id}/history", h.GetMarketHistory)
		r.Post("/debates/{debate_id}/settle", h.SettleDebate)
		r.Get("/history", h.GetVotingHistory)
		r.Get("/reputation/{user_id}/history", h.GetReputationHistory)
		r.Post("/reputation/{user_id}/decay", h.ApplyDecay)
	})

	return r
}
