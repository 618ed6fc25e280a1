// Package weather holds the canonical data model and the multi-source
// aggregation core: provider orchestration with strict fallback ordering,
// schema normalization, caching, throttling, and derived alerts.
package weather

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/climacol/clima-core/internal/cache"
	"github.com/climacol/clima-core/internal/metrics"
	"github.com/climacol/clima-core/internal/ratelimit"
	"github.com/climacol/clima-core/internal/security"
	"github.com/climacol/clima-core/internal/weather/providers"
)

// Bogotá timezone metadata carried by every snapshot.
const (
	bogotaTimezone      = "America/Bogota"
	bogotaTimezoneAbbr  = "COT"
	bogotaUTCOffsetSecs = -5 * 3600
)

// PrimarySource is the Open-Meteo shaped provider.
type PrimarySource interface {
	Forecast(ctx context.Context, lat, lon float64) (*providers.OpenMeteoData, error)
}

// FallbackSource is the OpenWeather shaped provider.
type FallbackSource interface {
	Current(ctx context.Context, lat, lon float64) (*providers.CurrentConditions, error)
	Forecast(ctx context.Context, lat, lon float64) (*providers.DailyAggregate, error)
}

// Geocoder resolves city queries and coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]providers.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*providers.Place, error)
}

// Aggregator orchestrates the weather providers with strict fallback
// ordering and normalizes both shapes into the canonical snapshot.
type Aggregator struct {
	primary  PrimarySource
	fallback FallbackSource
	geocoder Geocoder
	cache    *cache.Cache
	limiter  *ratelimit.Limiter
	metrics  *metrics.Collector
}

// NewAggregator wires the aggregation core. Cache and limiter are owned by
// the composition root and shared process-wide.
func NewAggregator(
	primary PrimarySource,
	fallback FallbackSource,
	geocoder Geocoder,
	c *cache.Cache,
	l *ratelimit.Limiter,
	m *metrics.Collector,
) *Aggregator {
	return &Aggregator{
		primary:  primary,
		fallback: fallback,
		geocoder: geocoder,
		cache:    c,
		limiter:  l,
		metrics:  m,
	}
}

// FetchWeather returns the canonical snapshot for the coordinates.
//
// It fails with ErrInvalidInput before any network call on malformed
// coordinates, with ErrRateLimited when the local throttle rejects the
// request, and with *AggregationError only when both providers failed.
// Open-Meteo is always attempted before OpenWeather, never raced.
//
// Cache hits return the same *WeatherSnapshot the previous call produced;
// callers must not mutate it.
func (a *Aggregator) FetchWeather(ctx context.Context, lat, lon float64) (*WeatherSnapshot, error) {
	if err := security.ValidateCoordinates(lat, lon); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Throttle on coarse coordinates so near-duplicate locations share a
	// budget. Rejection happens before any network call.
	rateKey := fmt.Sprintf("weather_%.1f_%.1f", lat, lon)
	if !a.limiter.Allow(rateKey) {
		a.metrics.RateLimitRejections.Inc()
		return nil, ErrRateLimited
	}

	cacheKey := weatherCacheKey(lat, lon)
	if cached, ok := a.cache.Get(cacheKey); ok {
		a.metrics.CacheEventsTotal.WithLabelValues("hit").Inc()
		return cached.(*WeatherSnapshot), nil
	}
	a.metrics.CacheEventsTotal.WithLabelValues("miss").Inc()

	meteo, primaryErr := a.primary.Forecast(ctx, lat, lon)
	a.metrics.ProviderOutcome("openmeteo", primaryErr)
	if primaryErr == nil {
		snapshot := snapshotFromOpenMeteo(meteo)
		a.cache.Set(cacheKey, snapshot)
		return snapshot, nil
	}

	log.Printf("openmeteo fetch failed for %.4f,%.4f: %v; falling back to openweather", lat, lon, primaryErr)
	a.metrics.FallbacksTotal.Inc()

	snapshot, fallbackErr := a.fetchFromFallback(ctx, lat, lon)
	a.metrics.ProviderOutcome("openweather", fallbackErr)
	if fallbackErr != nil {
		log.Printf("openweather fallback failed for %.4f,%.4f: %v", lat, lon, fallbackErr)
		return nil, &AggregationError{PrimaryErr: primaryErr, FallbackErr: fallbackErr}
	}

	a.cache.Set(cacheKey, snapshot)
	return snapshot, nil
}

// fetchFromFallback runs the OpenWeather current and forecast calls
// concurrently and assembles the snapshot from the richer current payload.
func (a *Aggregator) fetchFromFallback(ctx context.Context, lat, lon float64) (*WeatherSnapshot, error) {
	var (
		wg          sync.WaitGroup
		current     *providers.CurrentConditions
		daily       *providers.DailyAggregate
		currentErr  error
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = a.fallback.Current(ctx, lat, lon)
	}()
	go func() {
		defer wg.Done()
		daily, forecastErr = a.fallback.Forecast(ctx, lat, lon)
	}()
	wg.Wait()

	if currentErr != nil {
		return nil, currentErr
	}
	if forecastErr != nil {
		return nil, forecastErr
	}

	return snapshotFromOpenWeather(current, daily), nil
}

// SearchCities forward-geocodes a query within Colombia. Geocoding is
// non-fatal: any failure, including an invalid query, degrades to an empty
// slice.
func (a *Aggregator) SearchCities(ctx context.Context, query string) []CitySuggestion {
	if err := security.ValidateCityQuery(query); err != nil {
		return []CitySuggestion{}
	}

	cacheKey := "cities_" + query
	if cached, ok := a.cache.Get(cacheKey); ok {
		a.metrics.CacheEventsTotal.WithLabelValues("hit").Inc()
		return cached.([]CitySuggestion)
	}
	a.metrics.CacheEventsTotal.WithLabelValues("miss").Inc()

	places, err := a.geocoder.Search(ctx, query)
	a.metrics.ProviderOutcome("nominatim", err)
	if err != nil {
		log.Printf("city search failed for %q: %v", query, err)
		return []CitySuggestion{}
	}

	suggestions := make([]CitySuggestion, 0, len(places))
	for _, p := range places {
		suggestions = append(suggestions, suggestionFromPlace(p))
	}

	a.cache.Set(cacheKey, suggestions)
	return suggestions
}

// ReverseGeocode resolves coordinates to a city suggestion, or nil on any
// failure.
func (a *Aggregator) ReverseGeocode(ctx context.Context, lat, lon float64) *CitySuggestion {
	if err := security.ValidateCoordinates(lat, lon); err != nil {
		return nil
	}

	place, err := a.geocoder.Reverse(ctx, lat, lon)
	a.metrics.ProviderOutcome("nominatim", err)
	if err != nil || place == nil {
		log.Printf("reverse geocoding failed for %.4f,%.4f: %v", lat, lon, err)
		return nil
	}

	s := suggestionFromPlace(*place)
	return &s
}

// ClearCache drops every cached payload.
func (a *Aggregator) ClearCache() {
	a.cache.Clear()
}

func weatherCacheKey(lat, lon float64) string {
	return "weather_" + strconv.FormatFloat(lat, 'f', -1, 64) +
		"_" + strconv.FormatFloat(lon, 'f', -1, 64)
}

func suggestionFromPlace(p providers.Place) CitySuggestion {
	return CitySuggestion{
		DisplayName: p.DisplayName,
		Lat:         p.Lat,
		Lon:         p.Lon,
		PlaceID:     p.PlaceIDString(),
	}
}

// snapshotFromOpenMeteo normalizes the primary payload. Open-Meteo's
// current_weather block lacks humidity, pressure, UV, visibility and
// feels-like, so those come from hourly index 0; description and icon stay
// nil rather than being fabricated here.
func snapshotFromOpenMeteo(data *providers.OpenMeteoData) *WeatherSnapshot {
	current := CurrentWeather{
		Temperature:   data.CurrentWeather.Temperature,
		WindSpeed:     data.CurrentWeather.WindSpeed,
		WindDirection: data.CurrentWeather.WindDirection,
		WeatherCode:   data.CurrentWeather.WeatherCode,
		Time:          data.CurrentWeather.Time,
		Humidity:      firstValue(data.Hourly.RelativeHumidity),
		Pressure:      firstValue(data.Hourly.PressureMSL),
		Visibility:    firstVisibilityKm(data.Hourly.Visibility),
		UVIndex:       firstValue(data.Hourly.UVIndex),
		FeelsLike:     firstValue(data.Hourly.ApparentTemperature),
	}

	daily := DailyForecast{
		Time:             data.Daily.Time,
		TemperatureMax:   data.Daily.TemperatureMax,
		TemperatureMin:   data.Daily.TemperatureMin,
		PrecipitationSum: data.Daily.PrecipitationSum,
		WindSpeedMax:     data.Daily.WindSpeedMax,
		WeatherCode:      data.Daily.WeatherCode,
		UVIndex:          data.Daily.UVIndexMax,
		Sunrise:          optionalStrings(data.Daily.Sunrise),
		Sunset:           optionalStrings(data.Daily.Sunset),
	}

	tz, abbr, offset := data.Timezone, data.TimezoneAbbr, data.UTCOffsetSeconds
	if tz == "" {
		tz, abbr, offset = bogotaTimezone, bogotaTimezoneAbbr, bogotaUTCOffsetSecs
	}

	return &WeatherSnapshot{
		Current:          current,
		Daily:            daily,
		Timezone:         tz,
		TimezoneAbbr:     abbr,
		UTCOffsetSeconds: offset,
	}
}

// snapshotFromOpenWeather assembles the snapshot from OpenWeather's current
// payload, which already carries the extension fields, plus the 3-hourly
// forecast bucketed into days.
func snapshotFromOpenWeather(cur *providers.CurrentConditions, daily *providers.DailyAggregate) *WeatherSnapshot {
	current := CurrentWeather{
		Temperature:   cur.Temperature,
		WindSpeed:     cur.WindSpeed,
		WindDirection: cur.WindDirection,
		WeatherCode:   cur.WeatherCode,
		Time:          cur.Time,
		Humidity:      cur.Humidity,
		Pressure:      cur.Pressure,
		Visibility:    cur.Visibility,
		UVIndex:       cur.UVIndex,
		FeelsLike:     cur.FeelsLike,
		Description:   cur.Description,
		Icon:          cur.Icon,
	}

	return &WeatherSnapshot{
		Current: current,
		Daily: DailyForecast{
			Time:             daily.Time,
			TemperatureMax:   daily.TemperatureMax,
			TemperatureMin:   daily.TemperatureMin,
			PrecipitationSum: daily.PrecipitationSum,
			WindSpeedMax:     daily.WindSpeedMax,
			WeatherCode:      daily.WeatherCode,
			Humidity:         daily.Humidity,
			Pressure:         daily.Pressure,
			UVIndex:          daily.UVIndex,
			Sunrise:          daily.Sunrise,
			Sunset:           daily.Sunset,
		},
		Timezone:         bogotaTimezone,
		TimezoneAbbr:     bogotaTimezoneAbbr,
		UTCOffsetSeconds: bogotaUTCOffsetSecs,
	}
}

func firstValue(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// firstVisibilityKm converts Open-Meteo's hourly visibility (meters) to km.
func firstVisibilityKm(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	km := values[0] / 1000
	return &km
}

func optionalStrings(values []string) []*string {
	if len(values) == 0 {
		return nil
	}
	out := make([]*string, len(values))
	for i := range values {
		if values[i] != "" {
			v := values[i]
			out[i] = &v
		}
	}
	return out
}
