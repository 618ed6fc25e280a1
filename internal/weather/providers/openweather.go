package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// DefaultOpenWeatherBase is the OpenWeatherMap v2.5 API root.
	DefaultOpenWeatherBase = "https://api.openweathermap.org/data/2.5"
	// openWeatherOneCallURL is the tier-gated alert feed.
	openWeatherOneCallURL = "https://api.openweathermap.org/data/3.0/onecall"

	// forecastEntryCount caps the 3-hourly forecast at 5 days.
	forecastEntryCount = 40
)

// openWeatherCodeMap translates OpenWeatherMap condition IDs into the
// canonical Open-Meteo taxonomy. It is total over the documented ID ranges;
// MapWeatherCode defaults everything else to 0 (clear).
var openWeatherCodeMap = map[int]int{
	200: 95, 201: 95, 202: 95, 210: 95, 211: 95, 212: 95, 221: 95, 230: 95, 231: 95, 232: 95,
	300: 51, 301: 51, 302: 53, 310: 51, 311: 53, 312: 55, 313: 55, 314: 55, 321: 55,
	500: 61, 501: 63, 502: 65, 503: 65, 504: 65, 511: 75, 520: 80, 521: 81, 522: 82, 531: 82,
	600: 71, 601: 73, 602: 75, 611: 77, 612: 77, 613: 77, 615: 77, 616: 77, 620: 71, 621: 73, 622: 75,
	701: 45, 711: 45, 721: 45, 731: 45, 741: 45, 751: 45, 761: 45, 762: 45, 771: 45, 781: 45,
	800: 0, 801: 1, 802: 2, 803: 3, 804: 3,
}

// MapWeatherCode translates an OpenWeatherMap condition ID to a canonical
// weather code.
func MapWeatherCode(openWeatherID int) int {
	if code, ok := openWeatherCodeMap[openWeatherID]; ok {
		return code
	}
	return 0
}

// CurrentConditions is the shaped current payload from OpenWeather. Units
// are already converted to the canonical ones (km/h, km).
type CurrentConditions struct {
	Temperature   float64
	WindSpeed     float64
	WindDirection float64
	WeatherCode   int
	Time          string

	Humidity    *float64
	Pressure    *float64
	Visibility  *float64
	UVIndex     *float64
	FeelsLike   *float64
	Description *string
	Icon        *string
}

// DailyAggregate holds the 3-hourly forecast bucketed into calendar days.
type DailyAggregate struct {
	Time             []string
	TemperatureMax   []float64
	TemperatureMin   []float64
	PrecipitationSum []float64
	WindSpeedMax     []float64
	WeatherCode      []int
	Humidity         []float64
	Pressure         []float64
	UVIndex          []float64
	Sunrise          []*string
	Sunset           []*string
}

// NativeAlert is an alert reported by the OneCall feed.
type NativeAlert struct {
	Event       string `json:"event"`
	Description string `json:"description"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
}

// OpenWeatherClient fetches current conditions, the 5-day/3-hour forecast,
// and the native alert feed from OpenWeatherMap.
type OpenWeatherClient struct {
	name       string
	apiKey     string
	baseURL    string
	oneCallURL string
	httpCfg    HTTPClientConfig
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(client *http.Client, baseURL, apiKey string) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBase
	}
	return &OpenWeatherClient{
		name:       "openweather",
		apiKey:     apiKey,
		baseURL:    baseURL,
		oneCallURL: openWeatherOneCallURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newBreaker("openweather"),
	}
}

func (c *OpenWeatherClient) Name() string {
	return c.name
}

// currentPayload mirrors /data/2.5/weather.
type currentPayload struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp      float64  `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
		Pressure  *float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility *float64 `json:"visibility"` // meters
	UVI        *float64 `json:"uvi"`
	Weather    []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// Current fetches and shapes the current conditions. OpenWeather's payload
// already carries humidity, pressure, visibility and feels-like, so the
// result needs no hourly stitching.
func (c *OpenWeatherClient) Current(ctx context.Context, lat, lon float64) (*CurrentConditions, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	resp, err := c.get(ctx, c.baseURL+"/weather", func(values url.Values) {
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload currentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openweather: decode current response: %w", err)
	}

	cur := &CurrentConditions{
		Temperature:   payload.Main.Temp,
		WindSpeed:     payload.Wind.Speed * 3.6, // m/s to km/h
		WindDirection: payload.Wind.Deg,
		Time:          time.Unix(payload.Dt, 0).UTC().Format(time.RFC3339),
		Humidity:      payload.Main.Humidity,
		Pressure:      payload.Main.Pressure,
		UVIndex:       payload.UVI,
		FeelsLike:     payload.Main.FeelsLike,
	}
	if payload.Visibility != nil {
		km := *payload.Visibility / 1000
		cur.Visibility = &km
	}
	if len(payload.Weather) > 0 {
		w := payload.Weather[0]
		cur.WeatherCode = MapWeatherCode(w.ID)
		cur.Description = &w.Description
		cur.Icon = &w.Icon
	}

	return cur, nil
}

// forecastEntry mirrors one 3-hourly item from /data/2.5/forecast.
type forecastEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		TempMax  float64 `json:"temp_max"`
		TempMin  float64 `json:"temp_min"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
	} `json:"wind"`
	Rain *struct {
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Weather []struct {
		ID int `json:"id"`
	} `json:"weather"`
	UVI *float64 `json:"uvi"`
	Sys struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

// Forecast fetches the 3-hourly forecast and aggregates it into daily
// buckets keyed by UTC calendar date.
func (c *OpenWeatherClient) Forecast(ctx context.Context, lat, lon float64) (*DailyAggregate, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	resp, err := c.get(ctx, c.baseURL+"/forecast", func(values url.Values) {
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("cnt", strconv.Itoa(forecastEntryCount))
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []forecastEntry `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openweather: decode forecast response: %w", err)
	}

	return aggregateForecast(payload.List), nil
}

// aggregateForecast groups 3-hourly entries by UTC day and reduces each
// bucket: max/min temperature, precipitation sum (missing rain counts as 0),
// max wind (converted to km/h), first entry's mapped weather code, rounded
// mean humidity and pressure, and first-entry sunrise/sunset when present.
func aggregateForecast(entries []forecastEntry) *DailyAggregate {
	buckets := make(map[string][]forecastEntry)
	for _, e := range entries {
		day := time.Unix(e.Dt, 0).UTC().Format("2006-01-02")
		buckets[day] = append(buckets[day], e)
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	agg := &DailyAggregate{}
	anyUVI := false

	for _, day := range days {
		group := buckets[day]
		first := group[0]

		tempMax := group[0].Main.TempMax
		tempMin := group[0].Main.TempMin
		var precip, windMax, humiditySum, pressureSum float64

		for _, e := range group {
			tempMax = math.Max(tempMax, e.Main.TempMax)
			tempMin = math.Min(tempMin, e.Main.TempMin)
			if e.Rain != nil {
				precip += e.Rain.ThreeH
			}
			windMax = math.Max(windMax, e.Wind.Speed*3.6)
			humiditySum += e.Main.Humidity
			pressureSum += e.Main.Pressure
		}

		n := float64(len(group))

		agg.Time = append(agg.Time, day)
		agg.TemperatureMax = append(agg.TemperatureMax, tempMax)
		agg.TemperatureMin = append(agg.TemperatureMin, tempMin)
		agg.PrecipitationSum = append(agg.PrecipitationSum, precip)
		agg.WindSpeedMax = append(agg.WindSpeedMax, windMax)
		agg.Humidity = append(agg.Humidity, math.Round(humiditySum/n))
		agg.Pressure = append(agg.Pressure, math.Round(pressureSum/n))

		code := 0
		if len(first.Weather) > 0 {
			code = MapWeatherCode(first.Weather[0].ID)
		}
		agg.WeatherCode = append(agg.WeatherCode, code)

		if first.UVI != nil {
			agg.UVIndex = append(agg.UVIndex, *first.UVI)
			anyUVI = true
		} else {
			agg.UVIndex = append(agg.UVIndex, 0)
		}

		// The 3-hourly feed does not always carry sys.sunrise/sunset; a
		// missing value stays nil rather than becoming an epoch date.
		agg.Sunrise = append(agg.Sunrise, unixToRFC3339(first.Sys.Sunrise))
		agg.Sunset = append(agg.Sunset, unixToRFC3339(first.Sys.Sunset))
	}

	if !anyUVI {
		agg.UVIndex = nil
	}

	return agg
}

func unixToRFC3339(ts int64) *string {
	if ts <= 0 {
		return nil
	}
	s := time.Unix(ts, 0).UTC().Format(time.RFC3339)
	return &s
}

// Alerts fetches the OneCall alert feed. The endpoint is tier-gated, so
// callers treat failures as best-effort.
func (c *OpenWeatherClient) Alerts(ctx context.Context, lat, lon float64) ([]NativeAlert, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	resp, err := c.get(ctx, c.oneCallURL, func(values url.Values) {
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Alerts []NativeAlert `json:"alerts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openweather: decode onecall response: %w", err)
	}

	return payload.Alerts, nil
}

// get issues an authenticated request with metric units and Spanish texts.
func (c *OpenWeatherClient) get(ctx context.Context, endpoint string, extra func(url.Values)) (*http.Response, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")
		values.Set("lang", "es")
		extra(values)

		u := fmt.Sprintf("%s?%s", endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	return doRequestWithResilience(ctx, c.name, c.httpCfg, c.circuit, buildRequest)
}
