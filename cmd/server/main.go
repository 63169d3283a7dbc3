package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"courier-route-service/internal/adapters/cache"
	"courier-route-service/internal/adapters/geocode"
	"courier-route-service/internal/adapters/osrm"
	"courier-route-service/internal/adapters/repositories"
	"courier-route-service/internal/api"
	"courier-route-service/internal/config"
	"courier-route-service/internal/platform/db"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"
	"courier-route-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQLite/Postgres, OSRM, Nominatim, Redis)
// behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (using environment variables)")
	}

	logger := obs.Init()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("configuration", "err", err)
	}

	shipmentRepo, workdayRepo, dbHandle, err := openRepositories(cfg)
	if err != nil {
		logger.Fatalw("database", "err", err)
	}
	defer dbHandle.Close()

	optimizer, err := osrm.NewClient(cfg.OSRMBaseURL)
	if err != nil {
		logger.Fatalw("osrm client", "err", err)
	}

	geocoder, err := geocode.NewNominatimGeocoder(cfg.NominatimBaseURL, geocodeCache(cfg))
	if err != nil {
		logger.Fatalw("geocoder", "err", err)
	}

	clock := services.SystemClock()
	planner := &services.RoutePlanner{
		Shipments: shipmentRepo,
		Workdays:  workdayRepo,
		Optimizer: optimizer,
		Depot:     cfg.Depot,
	}

	router := api.NewRouter(api.Deps{
		Shipments: &services.ShipmentService{Shipments: shipmentRepo, Geocoder: geocoder, Clock: clock},
		Workdays:  &services.WorkdaySession{Workdays: workdayRepo, Clock: clock},
		Planner:   planner,
		ETA: &services.ETAEstimator{
			Shipments:   shipmentRepo,
			Workdays:    workdayRepo,
			Planner:     planner,
			Clock:       clock,
			ServiceTime: time.Duration(cfg.ServiceTimeMinutes) * time.Minute,
			FallbackETA: time.Duration(cfg.FallbackETAMinutes) * time.Minute,
		},
		JWTSecret: cfg.JWTSecret,
	})

	// Timeouts are tuned for cold route planning (external solver latency).
	logger.Infow("server listening", "addr", ":"+cfg.Port)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	logger.Fatalw("server stopped", "err", srv.ListenAndServe())
}

// openRepositories selects the persistence backend: Postgres when
// DATABASE_URL is set, the embedded SQLite file otherwise. The SQLite path
// also initializes the schema and seeds demo data for local runs.
func openRepositories(cfg *config.Config) (ports.ShipmentRepository, ports.WorkdayRepository, *sql.DB, error) {
	if cfg.DatabaseURL != "" {
		pg, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return repositories.NewPostgresShipmentRepository(pg), repositories.NewPostgresWorkdayRepository(pg), pg, nil
	}

	lite, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open sqlite database %q: %w", cfg.DBPath, err)
	}
	if err := lite.Ping(); err != nil {
		return nil, nil, nil, fmt.Errorf("verify sqlite connection to %q: %w", cfg.DBPath, err)
	}

	if err := repositories.InitSchema(lite); err != nil {
		return nil, nil, nil, err
	}
	if err := repositories.SeedFromJSON(lite, cfg.SeedPath); err != nil {
		return nil, nil, nil, err
	}

	return repositories.NewSqliteShipmentRepository(lite), repositories.NewSqliteWorkdayRepository(lite), lite, nil
}

// geocodeCache returns the Redis-backed address cache, or nil when no
// REDIS_ADDR is configured. The geocoder works without one; every lookup
// just goes to Nominatim.
func geocodeCache(cfg *config.Config) ports.GeocodeCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return cache.NewRedisGeocodeCache(client, 0)
}
