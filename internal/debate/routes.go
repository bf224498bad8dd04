package debate

import (
	"net/http"

	"github.com/OpenFloor/OF-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := SessionInfo{}

	r.Get("/", ListDebates)
	r.Get("/{debate_id}", GetDebate)
	r.Get("/{debate_id}/arguments", ListArguments)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Post("/", CreateDebate)
		r.Post("/{debate_id}/close", CloseDebate)
		r.Post("/{debate_id}/arguments", SubmitArgument)
	})

	return r
}
