package weather

// Coordinate is a geographic position validated before any network call.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CurrentWeather is the normalized current-conditions view. Required fields
// are populated by every provider; pointer fields are nil when the active
// provider did not supply them, never defaulted to zero.
type CurrentWeather struct {
	Temperature   float64 `json:"temperature"`   // °C
	WindSpeed     float64 `json:"windspeed"`     // km/h
	WindDirection float64 `json:"winddirection"` // degrees 0-360
	WeatherCode   int     `json:"weathercode"`
	Time          string  `json:"time"` // RFC3339

	Humidity    *float64 `json:"humidity"`   // %
	Pressure    *float64 `json:"pressure"`   // hPa
	Visibility  *float64 `json:"visibility"` // km
	UVIndex     *float64 `json:"uv_index"`
	FeelsLike   *float64 `json:"feels_like"` // °C
	Description *string  `json:"description"`
	Icon        *string  `json:"icon"`
}

// DailyForecast holds parallel arrays indexed by day offset (0 = today).
// All required arrays have equal length and index i across arrays describes
// the same day. Optional arrays are either nil or the same length; a
// Sunrise/Sunset element is nil when the provider had no value for that day.
type DailyForecast struct {
	Time             []string  `json:"time"` // YYYY-MM-DD
	TemperatureMax   []float64 `json:"temperature_2m_max"`
	TemperatureMin   []float64 `json:"temperature_2m_min"`
	PrecipitationSum []float64 `json:"precipitation_sum"` // mm
	WindSpeedMax     []float64 `json:"windspeed_10m_max"` // km/h
	WeatherCode      []int     `json:"weathercode"`

	Humidity []float64 `json:"humidity,omitempty"`
	Pressure []float64 `json:"pressure,omitempty"`
	UVIndex  []float64 `json:"uv_index,omitempty"`
	Sunrise  []*string `json:"sunrise,omitempty"`
	Sunset   []*string `json:"sunset,omitempty"`
}

// WeatherSnapshot is the canonical, provider-agnostic result of one
// aggregation call.
type WeatherSnapshot struct {
	Current          CurrentWeather `json:"current_weather"`
	Daily            DailyForecast  `json:"daily"`
	Timezone         string         `json:"timezone"`
	TimezoneAbbr     string         `json:"timezone_abbreviation"`
	UTCOffsetSeconds int            `json:"utc_offset_seconds"`
}

// AlertType classifies a weather alert.
type AlertType string

const (
	AlertHeat  AlertType = "heat"
	AlertRain  AlertType = "rain"
	AlertWind  AlertType = "wind"
	AlertStorm AlertType = "storm"
	AlertUV    AlertType = "uv"
	AlertFog   AlertType = "fog"
	AlertCold  AlertType = "cold"
)

// AlertLevel is the severity of an alert.
type AlertLevel string

const (
	LevelLow      AlertLevel = "low"
	LevelMedium   AlertLevel = "medium"
	LevelHigh     AlertLevel = "high"
	LevelCritical AlertLevel = "critical"
)

// AlertSource identifies who produced an alert.
type AlertSource string

const (
	SourceEngine      AlertSource = "engine"
	SourceOpenMeteo   AlertSource = "open-meteo"
	SourceOpenWeather AlertSource = "openweather"
	SourceIdeam       AlertSource = "ideam"
)

// WeatherAlert is a single alert entry. IDs are unique within one
// FetchAlerts call; they are not stable across calls.
type WeatherAlert struct {
	ID       string      `json:"id"`
	Type     AlertType   `json:"type"`
	Level    AlertLevel  `json:"level"`
	Title    string      `json:"title"`
	Message  string      `json:"message"`
	Source   AlertSource `json:"source"`
	StartsAt string      `json:"startsAt,omitempty"`
	EndsAt   string      `json:"endsAt,omitempty"`
}

// CitySuggestion is a geocoding result. Lat and Lon are kept as strings,
// matching the Nominatim payload.
type CitySuggestion struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	PlaceID     string `json:"place_id"`
}

// WeatherCodeInfo carries presentation metadata for a canonical code.
type WeatherCodeInfo struct {
	Description string
	Icon        string
}

// WeatherCodes is the canonical code table (Open-Meteo taxonomy). Every
// snapshot's weathercode is a key of this map.
var WeatherCodes = map[int]WeatherCodeInfo{
	0:  {"Despejado", "clear"},
	1:  {"Principalmente despejado", "mostly-clear"},
	2:  {"Parcialmente nublado", "partly-cloudy"},
	3:  {"Nublado", "overcast"},
	45: {"Niebla", "fog"},
	48: {"Niebla con escarcha", "fog"},
	51: {"Llovizna ligera", "drizzle"},
	53: {"Llovizna moderada", "drizzle"},
	55: {"Llovizna intensa", "drizzle-heavy"},
	61: {"Lluvia ligera", "rain-light"},
	63: {"Lluvia moderada", "rain"},
	65: {"Lluvia intensa", "rain-heavy"},
	71: {"Nieve ligera", "snow-light"},
	73: {"Nieve moderada", "snow"},
	75: {"Nieve intensa", "snow-heavy"},
	77: {"Granizo fino", "sleet"},
	80: {"Chubascos ligeros", "showers-light"},
	81: {"Chubascos", "showers"},
	82: {"Chubascos fuertes", "showers-heavy"},
	95: {"Tormenta", "storm"},
	96: {"Tormenta con granizo", "storm-hail"},
	99: {"Tormenta severa", "storm-severe"},
}

// TrackedCity is a location the scheduler keeps warm in the cache.
type TrackedCity struct {
	Name string
	Lat  float64
	Lon  float64
}
