package config

import (
	"fmt"
	"os"
	"strconv"

	"courier-route-service/internal/domain"
)

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func GetFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Config carries the deployment settings of the service.
type Config struct {
	Port        string
	DBPath      string
	DatabaseURL string
	SeedPath    string

	OSRMBaseURL      string
	NominatimBaseURL string
	RedisAddr        string

	JWTSecret string

	// Depot is the fixed warehouse coordinate all routes start or end at.
	Depot domain.Coordinates

	ServiceTimeMinutes int
	FallbackETAMinutes int
}

// Load reads the configuration from the environment with defaults suited
// to a local run. The depot defaults to the Campus de Vegazana warehouse.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        Get("PORT", "8080"),
		DBPath:      Get("DB_PATH", "data/app.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SeedPath:    Get("SEED_PATH", "data/seeds/shipments.json"),

		OSRMBaseURL:      Get("OSRM_BASE_URL", "http://router.project-osrm.org"),
		NominatimBaseURL: Get("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Depot: domain.Coordinates{
			Lat: GetFloat("DEPOT_LAT", 42.6136),
			Lon: GetFloat("DEPOT_LON", -5.5583),
		},

		ServiceTimeMinutes: GetInt("SERVICE_TIME_MINUTES", 10),
		FallbackETAMinutes: GetInt("FALLBACK_ETA_MINUTES", 60),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	return cfg, nil
}
