package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/climacol/clima-core/internal/security"
	"github.com/climacol/clima-core/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey string

	// Provider base URLs, each checked against the domain allow-list.
	OpenMeteoBase   string
	OpenWeatherBase string
	NominatimBase   string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	// CacheTTL for weather payloads.
	CacheTTL time.Duration

	// RefreshInterval controls the cache-warming scheduler.
	RefreshInterval time.Duration

	// TrackedCities are kept warm by the scheduler.
	TrackedCities []weather.TrackedCity

	Port string
}

// Load reads configuration from environment with sensible defaults. Any
// configured provider base URL outside the allow-list aborts startup.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	cfg.OpenMeteoBase = getenvDefault("OPEN_METEO_BASE", "https://api.open-meteo.com/v1/forecast")
	cfg.OpenWeatherBase = getenvDefault("OPENWEATHER_BASE", "https://api.openweathermap.org/data/2.5")
	cfg.NominatimBase = getenvDefault("NOMINATIM_BASE", "https://nominatim.openstreetmap.org")

	for _, base := range []string{cfg.OpenMeteoBase, cfg.OpenWeatherBase, cfg.NominatimBase} {
		if err := security.ValidateExternalURL(base); err != nil {
			return nil, fmt.Errorf("refusing to start: %w", err)
		}
	}

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	ttlStr := getenvDefault("CACHE_TTL", "60s")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	intervalStr := getenvDefault("REFRESH_INTERVAL", "5m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	cities, err := loadTrackedCities()
	if err != nil {
		return nil, err
	}
	cfg.TrackedCities = cities

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// loadTrackedCities parses TRACKED_CITIES ("Name:lat:lon,..."); the default
// keeps the three largest Colombian cities warm.
func loadTrackedCities() ([]weather.TrackedCity, error) {
	raw := getenvDefault("TRACKED_CITIES",
		"Bogotá:4.6097:-74.0817,Medellín:6.2442:-75.5812,Cali:3.4516:-76.5320")

	var cities []weather.TrackedCity
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid TRACKED_CITIES entry %q; expected Name:lat:lon", entry)
		}

		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in TRACKED_CITIES entry %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in TRACKED_CITIES entry %q: %w", entry, err)
		}

		cities = append(cities, weather.TrackedCity{Name: parts[0], Lat: lat, Lon: lon})
	}

	return cities, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
