package weather

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/climacol/clima-core/internal/metrics"
	"github.com/climacol/clima-core/internal/security"
	"github.com/climacol/clima-core/internal/weather/providers"
)

// Alert thresholds applied to normalized Open-Meteo data.
const (
	uvHighThreshold     = 8.0  // UV index
	windMediumThreshold = 40.0 // km/h, current
	heatHighThreshold   = 35.0 // °C, current
	rainProbThreshold   = 70.0 // %, hourly index 0
	windHighThreshold   = 60.0 // km/h, hourly index 0
	coldMediumThreshold = 5.0  // °C, hourly index 0
)

// AlertFeed is a provider-native alert source.
type AlertFeed interface {
	Alerts(ctx context.Context, lat, lon float64) ([]providers.NativeAlert, error)
}

// AlertEngine derives threshold-based alerts from Open-Meteo data and merges
// in the provider-native alert feed.
type AlertEngine struct {
	feed    AlertFeed
	meteo   PrimarySource
	metrics *metrics.Collector
}

func NewAlertEngine(feed AlertFeed, meteo PrimarySource, m *metrics.Collector) *AlertEngine {
	return &AlertEngine{feed: feed, meteo: meteo, metrics: m}
}

// FetchAlerts returns the active alerts for the coordinates. It never fails:
// each source is independently best-effort, and when nothing fired the
// result carries exactly one synthetic informational entry so callers can
// tell "loaded, nothing to report" from "not yet loaded".
//
// IDs are unique within one call only. They are not stable across polls, so
// downstream notification deduplication by ID cannot suppress repeats of the
// same ongoing event; deriving IDs from semantic content is a pending
// product decision.
func (e *AlertEngine) FetchAlerts(ctx context.Context, lat, lon float64) []WeatherAlert {
	if err := security.ValidateCoordinates(lat, lon); err != nil {
		return []WeatherAlert{noAlertsEntry()}
	}

	// The two sources populate disjoint portions of the result, so they run
	// concurrently.
	var (
		wg      sync.WaitGroup
		native  []WeatherAlert
		derived []WeatherAlert
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		native = e.nativeAlerts(ctx, lat, lon)
	}()
	go func() {
		defer wg.Done()
		derived = e.thresholdAlerts(ctx, lat, lon)
	}()
	wg.Wait()

	alerts := make([]WeatherAlert, 0, len(native)+len(derived))
	alerts = append(alerts, native...)
	alerts = append(alerts, derived...)

	if len(alerts) == 0 {
		alerts = append(alerts, noAlertsEntry())
	}

	for _, a := range alerts {
		e.metrics.AlertsEmittedTotal.WithLabelValues(string(a.Source)).Inc()
	}

	return alerts
}

// nativeAlerts maps the OneCall feed into canonical alerts. The feed is
// tier-gated; failures yield zero alerts from this source.
func (e *AlertEngine) nativeAlerts(ctx context.Context, lat, lon float64) []WeatherAlert {
	feed, err := e.feed.Alerts(ctx, lat, lon)
	if err != nil {
		log.Printf("native alert feed unavailable for %.4f,%.4f: %v", lat, lon, err)
		return nil
	}

	alerts := make([]WeatherAlert, 0, len(feed))
	for _, a := range feed {
		alert := WeatherAlert{
			ID:      newAlertID("ow"),
			Type:    AlertStorm,
			Level:   LevelHigh,
			Title:   a.Event,
			Message: a.Description,
			Source:  SourceOpenWeather,
		}
		if alert.Title == "" {
			alert.Title = "Alerta meteorológica"
		}
		if alert.Message == "" {
			alert.Message = "Alerta emitida por OpenWeather"
		}
		if a.Start > 0 {
			alert.StartsAt = time.Unix(a.Start, 0).UTC().Format(time.RFC3339)
		}
		if a.End > 0 {
			alert.EndsAt = time.Unix(a.End, 0).UTC().Format(time.RFC3339)
		}
		alerts = append(alerts, alert)
	}

	return alerts
}

// thresholdAlerts fetches Open-Meteo data and evaluates the fixed
// thresholds. Each threshold is independent; several alerts may fire from
// one data pull.
func (e *AlertEngine) thresholdAlerts(ctx context.Context, lat, lon float64) []WeatherAlert {
	data, err := e.meteo.Forecast(ctx, lat, lon)
	if err != nil {
		log.Printf("threshold alert source unavailable for %.4f,%.4f: %v", lat, lon, err)
		return nil
	}

	current := snapshotFromOpenMeteo(data).Current
	hourly := data.Hourly

	var alerts []WeatherAlert
	add := func(typ AlertType, level AlertLevel, title, message string) {
		alerts = append(alerts, WeatherAlert{
			ID:      newAlertID(string(typ)),
			Type:    typ,
			Level:   level,
			Title:   title,
			Message: message,
			Source:  SourceOpenMeteo,
		})
	}

	if current.UVIndex != nil && *current.UVIndex >= uvHighThreshold {
		add(AlertUV, LevelHigh, "UV muy alto",
			"Protege tu piel, usa bloqueador y evita el sol directo al mediodía.")
	}
	if current.WindSpeed >= windMediumThreshold {
		add(AlertWind, LevelMedium, "Vientos fuertes",
			"Se esperan ráfagas importantes. Asegura objetos sueltos.")
	}
	if current.Temperature >= heatHighThreshold {
		add(AlertHeat, LevelHigh, "Ola de calor",
			"Temperaturas muy altas. Hidrátate y evita exposición prolongada.")
	}
	if len(hourly.PrecipitationProbability) > 0 && hourly.PrecipitationProbability[0] >= rainProbThreshold {
		add(AlertRain, LevelMedium, "Alta probabilidad de lluvia",
			"Lleva paraguas. Podrían presentarse chubascos en las próximas horas.")
	}
	if len(hourly.WindSpeed) > 0 && hourly.WindSpeed[0] >= windHighThreshold {
		add(AlertWind, LevelHigh, "Ráfagas intensas",
			"Rachas de viento muy fuertes. Precaución en carretera.")
	}
	if len(hourly.Temperature) > 0 && hourly.Temperature[0] <= coldMediumThreshold {
		add(AlertCold, LevelMedium, "Baja temperatura",
			"Ambiente frío. Abrígate adecuadamente.")
	}

	return alerts
}

// noAlertsEntry is the guaranteed non-empty fallback.
func noAlertsEntry() WeatherAlert {
	return WeatherAlert{
		ID:      newAlertID("info"),
		Type:    AlertHeat,
		Level:   LevelLow,
		Title:   "Sin alertas relevantes",
		Message: "Clima estable. Mantente atento a cambios repentinos.",
		Source:  SourceEngine,
	}
}

func newAlertID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
