// Package providers contains the HTTP clients for the external weather and
// geocoding APIs. Each client owns its request construction, response
// parsing, and error translation.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/climacol/clima-core/internal/security"
)

// DefaultOpenMeteoBase is the Open-Meteo forecast endpoint.
const DefaultOpenMeteoBase = "https://api.open-meteo.com/v1/forecast"

const (
	openMeteoDailyVars = "temperature_2m_max,temperature_2m_min,precipitation_sum," +
		"windspeed_10m_max,weathercode,uv_index_max,sunrise,sunset,precipitation_probability_max"
	openMeteoHourlyVars = "relativehumidity_2m,pressure_msl,uv_index,precipitation_probability," +
		"visibility,apparent_temperature,weathercode,temperature_2m,windspeed_10m"
)

// OpenMeteoCurrent is Open-Meteo's current_weather block. It lacks humidity,
// pressure, UV, visibility and feels-like; those come from hourly index 0.
type OpenMeteoCurrent struct {
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windspeed"`
	WindDirection float64 `json:"winddirection"`
	WeatherCode   int     `json:"weathercode"`
	Time          string  `json:"time"`
}

// OpenMeteoDaily mirrors the provider's daily arrays.
type OpenMeteoDaily struct {
	Time                        []string  `json:"time"`
	TemperatureMax              []float64 `json:"temperature_2m_max"`
	TemperatureMin              []float64 `json:"temperature_2m_min"`
	PrecipitationSum            []float64 `json:"precipitation_sum"`
	WindSpeedMax                []float64 `json:"windspeed_10m_max"`
	WeatherCode                 []int     `json:"weathercode"`
	UVIndexMax                  []float64 `json:"uv_index_max"`
	Sunrise                     []string  `json:"sunrise"`
	Sunset                      []string  `json:"sunset"`
	PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
}

// OpenMeteoHourly mirrors the provider's hourly arrays.
type OpenMeteoHourly struct {
	RelativeHumidity         []float64 `json:"relativehumidity_2m"`
	PressureMSL              []float64 `json:"pressure_msl"`
	UVIndex                  []float64 `json:"uv_index"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	Visibility               []float64 `json:"visibility"`
	ApparentTemperature      []float64 `json:"apparent_temperature"`
	WeatherCode              []int     `json:"weathercode"`
	Temperature              []float64 `json:"temperature_2m"`
	WindSpeed                []float64 `json:"windspeed_10m"`
}

// OpenMeteoData is the full forecast payload requested in a single call.
type OpenMeteoData struct {
	CurrentWeather   OpenMeteoCurrent `json:"current_weather"`
	Daily            OpenMeteoDaily   `json:"daily"`
	Hourly           OpenMeteoHourly  `json:"hourly"`
	Timezone         string           `json:"timezone"`
	TimezoneAbbr     string           `json:"timezone_abbreviation"`
	UTCOffsetSeconds int              `json:"utc_offset_seconds"`
}

// OpenMeteoClient fetches current, daily and hourly data from Open-Meteo.
type OpenMeteoClient struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoClient(client *http.Client, baseURL string) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBase
	}
	return &OpenMeteoClient{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newBreaker("openmeteo"),
	}
}

func (c *OpenMeteoClient) Name() string {
	return c.name
}

// Forecast requests current weather, daily aggregates, and the hourly series
// in one call, in Bogotá time and metric units.
func (c *OpenMeteoClient) Forecast(ctx context.Context, lat, lon float64) (*OpenMeteoData, error) {
	// Guard against malformed query strings the provider would reject.
	if err := security.ValidateCoordinates(lat, lon); err != nil {
		return nil, fmt.Errorf("openmeteo: %w", err)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("current_weather", "true")
		values.Set("daily", openMeteoDailyVars)
		values.Set("hourly", openMeteoHourlyVars)
		values.Set("timezone", "America/Bogota")
		values.Set("temperature_unit", "celsius")
		values.Set("windspeed_unit", "kmh")
		values.Set("precipitation_unit", "mm")

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.name, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload OpenMeteoData
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openmeteo: decode response: %w", err)
	}

	return &payload, nil
}
