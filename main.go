package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/config"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/db"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/guard"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/middleware"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/profile"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/upload"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db.ConnectDSN(cfg.DatabaseURL)
	profile.Init()

	store := profile.NewStore(db.DB)
	profileHandler := profile.NewHandler(store)

	presigner := upload.NewS3Presigner(
		cfg.Storage.Endpoint,
		cfg.Storage.Bucket,
		cfg.Storage.AccessKeyID,
		cfg.Storage.SecretKey,
	)
	// Device-scoped driver-verified flags; redis when configured so flags
	// survive restarts, in-process otherwise.
	var flags guard.FlagStore = guard.NewMemoryFlagStore()
	if cfg.RedisAddr != "" {
		flags = guard.NewRedisFlagStore(cfg.RedisAddr)
	}

	uploadHandler := upload.NewHandler(presigner, store, flags, cfg.Storage.PublicEndpoint, cfg.Storage.Bucket)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.Metrics)
	r.Use(middleware.EdgeGuard(cfg.SessionCookieName, cfg.ProtectedPrefixes))

	r.Get("/", RootHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Mount("/auth", profile.SetupRoutes(profileHandler))
		api.Mount("/", upload.SetupRoutes(uploadHandler))
	})

	fmt.Println("Server listening on port :" + cfg.Port + "...")

	http.ListenAndServe("0.0.0.0:"+cfg.Port, r)
}
