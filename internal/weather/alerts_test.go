package weather

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climacol/clima-core/internal/metrics"
	"github.com/climacol/clima-core/internal/weather/providers"
)

type fakeAlertFeed struct {
	alerts []providers.NativeAlert
	err    error
}

func (f *fakeAlertFeed) Alerts(_ context.Context, _, _ float64) ([]providers.NativeAlert, error) {
	return f.alerts, f.err
}

func newAlertEngine(feed *fakeAlertFeed, meteo *fakePrimary) *AlertEngine {
	m := metrics.NewCollector("alerts_test", prometheus.NewRegistry())
	return NewAlertEngine(feed, meteo, m)
}

// calmWeather is a payload where no threshold fires.
func calmWeather() *providers.OpenMeteoData {
	data := openMeteoFixture()
	data.CurrentWeather.Temperature = 20
	data.CurrentWeather.WindSpeed = 10
	data.Hourly.UVIndex = []float64{3}
	data.Hourly.PrecipitationProbability = []float64{10}
	data.Hourly.WindSpeed = []float64{10}
	data.Hourly.Temperature = []float64{20}
	return data
}

func TestFetchAlertsNeverEmpty(t *testing.T) {
	engine := newAlertEngine(
		&fakeAlertFeed{err: errors.New("onecall not available on this tier")},
		&fakePrimary{data: calmWeather()},
	)

	alerts := engine.FetchAlerts(context.Background(), 4.6097, -74.0817)

	require.Len(t, alerts, 1, "no thresholds and no native alerts yields exactly one synthetic entry")
	assert.Equal(t, LevelLow, alerts[0].Level)
	assert.Equal(t, SourceEngine, alerts[0].Source)
	assert.Equal(t, "Sin alertas relevantes", alerts[0].Title)
}

func TestFetchAlertsBothSourcesFail(t *testing.T) {
	engine := newAlertEngine(
		&fakeAlertFeed{err: errors.New("feed down")},
		&fakePrimary{err: errors.New("openmeteo down")},
	)

	alerts := engine.FetchAlerts(context.Background(), 4.6097, -74.0817)
	require.Len(t, alerts, 1)
	assert.Equal(t, SourceEngine, alerts[0].Source)
}

func TestFetchAlertsThresholds(t *testing.T) {
	// Heat, current wind, UV, rain probability, hourly wind and cold all
	// past their thresholds at once.
	data := openMeteoFixture()
	data.CurrentWeather.Temperature = 36
	data.CurrentWeather.WindSpeed = 45
	data.Hourly.UVIndex = []float64{9}
	data.Hourly.PrecipitationProbability = []float64{80}
	data.Hourly.WindSpeed = []float64{65}
	data.Hourly.Temperature = []float64{3}

	engine := newAlertEngine(&fakeAlertFeed{}, &fakePrimary{data: data})
	alerts := engine.FetchAlerts(context.Background(), 4.6097, -74.0817)

	// All six thresholds fire independently from one data pull.
	require.Len(t, alerts, 6)

	byTitle := make(map[string]WeatherAlert, len(alerts))
	ids := make(map[string]struct{}, len(alerts))
	for _, a := range alerts {
		byTitle[a.Title] = a
		ids[a.ID] = struct{}{}
		assert.Equal(t, SourceOpenMeteo, a.Source)
	}
	assert.Len(t, ids, len(alerts), "IDs must be unique within one call")

	assert.Equal(t, LevelHigh, byTitle["UV muy alto"].Level)
	assert.Equal(t, AlertUV, byTitle["UV muy alto"].Type)
	assert.Equal(t, LevelMedium, byTitle["Vientos fuertes"].Level)
	assert.Equal(t, LevelHigh, byTitle["Ola de calor"].Level)
	assert.Equal(t, LevelMedium, byTitle["Alta probabilidad de lluvia"].Level)
	assert.Equal(t, LevelHigh, byTitle["Ráfagas intensas"].Level)
	assert.Equal(t, LevelMedium, byTitle["Baja temperatura"].Level)
}

func TestFetchAlertsThresholdBoundaries(t *testing.T) {
	data := calmWeather()
	data.CurrentWeather.Temperature = 35 // >= fires
	data.Hourly.UVIndex = []float64{8}   // >= fires

	engine := newAlertEngine(&fakeAlertFeed{}, &fakePrimary{data: data})
	alerts := engine.FetchAlerts(context.Background(), 4.6097, -74.0817)

	require.Len(t, alerts, 2)
}

func TestFetchAlertsNativeFeed(t *testing.T) {
	feed := &fakeAlertFeed{alerts: []providers.NativeAlert{
		{Event: "Tormenta eléctrica", Description: "Actividad eléctrica en la sabana", Start: 1736950000, End: 1736960000},
		{}, // feed entries may arrive without event/description
	}}
	engine := newAlertEngine(feed, &fakePrimary{data: calmWeather()})

	alerts := engine.FetchAlerts(context.Background(), 4.6097, -74.0817)
	require.Len(t, alerts, 2)

	assert.Equal(t, "Tormenta eléctrica", alerts[0].Title)
	assert.Equal(t, LevelHigh, alerts[0].Level)
	assert.Equal(t, SourceOpenWeather, alerts[0].Source)
	assert.Equal(t, AlertStorm, alerts[0].Type)
	assert.NotEmpty(t, alerts[0].StartsAt)
	assert.NotEmpty(t, alerts[0].EndsAt)

	assert.Equal(t, "Alerta meteorológica", alerts[1].Title)
	assert.Equal(t, "Alerta emitida por OpenWeather", alerts[1].Message)
	assert.Empty(t, alerts[1].StartsAt)
}

func TestFetchAlertsInvalidCoordinates(t *testing.T) {
	meteo := &fakePrimary{data: calmWeather()}
	engine := newAlertEngine(&fakeAlertFeed{}, meteo)

	alerts := engine.FetchAlerts(context.Background(), 91, 181)

	require.Len(t, alerts, 1)
	assert.Equal(t, SourceEngine, alerts[0].Source)
	assert.Zero(t, meteo.calls, "invalid input must not hit a provider")
}
