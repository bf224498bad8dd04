package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/OpenFloor/OF-Backend/internal/auth"
	"github.com/OpenFloor/OF-Backend/internal/db"
	"github.com/OpenFloor/OF-Backend/internal/debate"
	"github.com/OpenFloor/OF-Backend/internal/market"
	"github.com/OpenFloor/OF-Backend/internal/middleware"
	"github.com/OpenFloor/OF-Backend/internal/sse"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	auth.Init()
	debate.Init()
	market.Init()

	hub := sse.NewHub()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/debates", debate.SetupRoutes())
	r.Mount("/market", market.SetupRoutes(db.DB, hub))
	r.Mount("/events", sse.SetupRoutes(hub, auth.SessionInfo{}))

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
