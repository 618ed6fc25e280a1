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

// DefaultNominatimBase is the OpenStreetMap Nominatim endpoint.
const DefaultNominatimBase = "https://nominatim.openstreetmap.org"

// nominatimUserAgent identifies this client, as Nominatim's usage policy
// requires.
const nominatimUserAgent = "ClimaColombia/1.0"

// maxCitySuggestions bounds forward-geocoding results.
const maxCitySuggestions = 6

// Place is a geocoding result as Nominatim returns it. Lat/Lon stay strings
// to match the wire format.
type Place struct {
	DisplayName string          `json:"display_name"`
	Lat         string          `json:"lat"`
	Lon         string          `json:"lon"`
	PlaceID     json.RawMessage `json:"place_id"` // number or string depending on endpoint
}

// PlaceIDString normalizes the place_id field.
func (p Place) PlaceIDString() string {
	var s string
	if err := json.Unmarshal(p.PlaceID, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(p.PlaceID, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return string(p.PlaceID)
}

// NominatimClient performs forward and reverse geocoding, restricted to
// Colombia for forward searches.
type NominatimClient struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewNominatimClient(client *http.Client, baseURL string) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimBase
	}
	return &NominatimClient{
		name:    "nominatim",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newBreaker("nominatim"),
	}
}

func (c *NominatimClient) Name() string {
	return c.name
}

// Search forward-geocodes a city query within Colombia, capped at six
// results.
func (c *NominatimClient) Search(ctx context.Context, query string) ([]Place, error) {
	resp, err := c.get(ctx, c.baseURL+"/search", func(values url.Values) {
		values.Set("q", fmt.Sprintf("%s, Colombia", query))
		values.Set("limit", strconv.Itoa(maxCitySuggestions))
		values.Set("countrycodes", "co")
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var places []Place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("nominatim: decode search response: %w", err)
	}
	if len(places) > maxCitySuggestions {
		places = places[:maxCitySuggestions]
	}

	return places, nil
}

// Reverse resolves coordinates to a place.
func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	if err := security.ValidateCoordinates(lat, lon); err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}

	resp, err := c.get(ctx, c.baseURL+"/reverse", func(values url.Values) {
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var place Place
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return nil, fmt.Errorf("nominatim: decode reverse response: %w", err)
	}

	return &place, nil
}

func (c *NominatimClient) get(ctx context.Context, endpoint string, extra func(url.Values)) (*http.Response, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("format", "json")
		values.Set("addressdetails", "1")
		extra(values)

		u := fmt.Sprintf("%s?%s", endpoint, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", nominatimUserAgent)
		return req, nil
	}

	return doRequestWithResilience(ctx, c.name, c.httpCfg, c.circuit, buildRequest)
}
