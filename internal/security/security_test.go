package security

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(4.6097, -74.0817))
	assert.NoError(t, ValidateCoordinates(0, 0))
	assert.NoError(t, ValidateCoordinates(-90, 180))

	assert.Error(t, ValidateCoordinates(91, 0))
	assert.Error(t, ValidateCoordinates(-91, 0))
	assert.Error(t, ValidateCoordinates(0, 181))
	assert.Error(t, ValidateCoordinates(0, -181))
	assert.Error(t, ValidateCoordinates(math.NaN(), 0))
	assert.Error(t, ValidateCoordinates(0, math.Inf(1)))
}

func TestValidateCityQuery(t *testing.T) {
	assert.NoError(t, ValidateCityQuery("Bogotá"))
	assert.NoError(t, ValidateCityQuery("Santa Marta, Magdalena"))
	assert.NoError(t, ValidateCityQuery("Bogotá D.C."))

	assert.Error(t, ValidateCityQuery(""))
	assert.Error(t, ValidateCityQuery("   "))
	assert.Error(t, ValidateCityQuery("<script>alert(1)</script>"))
	assert.Error(t, ValidateCityQuery("city; DROP TABLE"))

	long := make([]byte, MaxInputLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidateCityQuery(string(long)))
}

func TestValidateExternalURL(t *testing.T) {
	assert.NoError(t, ValidateExternalURL("https://api.open-meteo.com/v1/forecast"))
	assert.NoError(t, ValidateExternalURL("https://api.openweathermap.org/data/2.5"))
	assert.NoError(t, ValidateExternalURL("https://nominatim.openstreetmap.org"))

	// Only the fixed provider hosts pass, regardless of path tricks.
	assert.Error(t, ValidateExternalURL("https://evil.example.com/api.open-meteo.com"))
	assert.Error(t, ValidateExternalURL("https://api.open-meteo.com.evil.example.com"))
	assert.Error(t, ValidateExternalURL("ftp://api.open-meteo.com"))
	assert.Error(t, ValidateExternalURL("://not a url"))
}

func TestSanitizeError(t *testing.T) {
	assert.Equal(t, "Error de autenticación con el servicio meteorológico",
		SanitizeError(errors.New("openweather: unexpected status 401: invalid API key")))
	assert.Equal(t, "Tiempo de espera agotado. Intenta nuevamente",
		SanitizeError(errors.New("context deadline exceeded")))
	assert.Equal(t, "Error de conexión. Verifica tu conexión a internet",
		SanitizeError(errors.New(`dial tcp 1.2.3.4:443: connection refused`)))
	assert.Equal(t, "Demasiadas solicitudes. Intenta nuevamente en un momento",
		SanitizeError(errors.New("provider rate limited")))
	assert.Equal(t, "Error interno. Intenta nuevamente más tarde",
		SanitizeError(errors.New("something with a secret token inside")))
	assert.Equal(t, "Error desconocido", SanitizeError(nil))

	// Raw provider text never leaks through the catalog.
	sanitized := SanitizeError(errors.New("unexpected status 400: {\"reason\":\"bad latitude\"}"))
	assert.NotContains(t, sanitized, "bad latitude")
}
