package sse

import (
	"net/http"
	"strings"

	"github.com/OpenFloor/OF-Backend/internal/middleware"
	"github.com/OpenFloor/OF-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the event stream. Subscriptions come in as
// ?channels=debate:<id>,user:<id>; a caller may only subscribe to their own
// user channel.
func SetupRoutes(hub *Hub, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			userID, ok := utils.GetUserIDFromContext(req.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			client := hub.NewClient()
			for _, ch := range strings.Split(req.URL.Query().Get("channels"), ",") {
				ch = strings.TrimSpace(ch)
				if ch == "" {
					continue
				}
				if strings.HasPrefix(ch, "user:") && ch != UserChannel(userID) {
					continue
				}
				hub.Subscribe(client, ch)
			}
			defer hub.CloseClient(client)

			hub.ServeStream(w, req, client)
		})
	})

	return r
}
