package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRestrictsToColombia(t *testing.T) {
	var gotQuery url.Values
	var gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"display_name": "Bogotá, Colombia", "lat": "4.6097", "lon": "-74.0817", "place_id": 111},
			{"display_name": "Bogotá D.C., Colombia", "lat": "4.60", "lon": "-74.08", "place_id": 222}
		]`))
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.Client(), srv.URL)
	places, err := client.Search(context.Background(), "Bogotá")
	require.NoError(t, err)

	assert.Equal(t, "Bogotá, Colombia", gotQuery.Get("q"))
	assert.Equal(t, "co", gotQuery.Get("countrycodes"))
	assert.Equal(t, "6", gotQuery.Get("limit"))
	assert.Equal(t, "json", gotQuery.Get("format"))
	assert.Equal(t, "1", gotQuery.Get("addressdetails"))
	assert.Equal(t, "ClimaColombia/1.0", gotUserAgent)

	require.Len(t, places, 2)
	assert.Equal(t, "111", places[0].PlaceIDString())
}

func TestReverseParsesPlace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"display_name": "Medellín, Antioquia, Colombia", "lat": "6.2442", "lon": "-75.5812", "place_id": 333}`))
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.Client(), srv.URL)
	place, err := client.Reverse(context.Background(), 6.2442, -75.5812)
	require.NoError(t, err)

	assert.Equal(t, "Medellín, Antioquia, Colombia", place.DisplayName)
	assert.Equal(t, "6.2442", place.Lat)
	assert.Equal(t, "333", place.PlaceIDString())
}

func TestReverseValidatesCoordinates(t *testing.T) {
	client := NewNominatimClient(http.DefaultClient, DefaultNominatimBase)

	_, err := client.Reverse(context.Background(), 91, 0)
	assert.Error(t, err)
}
