// Package security holds input validation, the outbound domain allow-list,
// and the sanitized error catalog shared by the API surface.
package security

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode"
)

// MaxInputLength bounds every user-supplied text input.
const MaxInputLength = 100

// allowedHosts is the fixed outbound allow-list. Any configured base URL
// outside this list aborts startup.
var allowedHosts = map[string]struct{}{
	"api.open-meteo.com":          {},
	"api.openweathermap.org":      {},
	"nominatim.openstreetmap.org": {},
}

var (
	errBadCoordinates = errors.New("coordinates out of range")
	errBadQuery       = errors.New("invalid search query")
)

// ValidateCoordinates checks that lat/lon are finite and within range.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return errBadCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return errBadCoordinates
	}
	return nil
}

// ValidateCityQuery checks a city search string: non-empty after trimming,
// bounded length, and restricted to letters (including Spanish accents),
// digits, spaces, hyphens, commas and periods.
func ValidateCityQuery(q string) error {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" || len(trimmed) > MaxInputLength {
		return errBadQuery
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case ' ', '-', ',', '.':
			continue
		}
		return errBadQuery
	}
	return nil
}

// ValidateExternalURL enforces the scheme and domain allow-list on a
// configured provider base URL.
func ValidateExternalURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("disallowed scheme %q in base URL", u.Scheme)
	}
	if _, ok := allowedHosts[u.Hostname()]; !ok {
		return fmt.Errorf("host %q is not in the provider allow-list", u.Hostname())
	}
	return nil
}

// SanitizeError maps any internal error onto a small fixed catalog of
// user-facing messages. Raw provider bodies and API keys never pass through.
func SanitizeError(err error) string {
	if err == nil {
		return "Error desconocido"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case hasAny(msg, "api key", "appid", "401", "unauthorized"):
		return "Error de autenticación con el servicio meteorológico"
	case hasAny(msg, "timeout", "deadline exceeded"):
		return "Tiempo de espera agotado. Intenta nuevamente"
	case hasAny(msg, "rate limited", "too many requests"):
		return "Demasiadas solicitudes. Intenta nuevamente en un momento"
	case hasAny(msg, "connection refused", "no such host", "network", "dial tcp"):
		return "Error de conexión. Verifica tu conexión a internet"
	default:
		return "Error interno. Intenta nuevamente más tarde"
	}
}

// hasAny reports whether s contains any of the substrings.
func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
