package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "London", query.Get("name"))
		assert.Equal(t, "10", query.Get("count"))
		assert.Equal(t, "en", query.Get("language"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{"name": "London", "country": "United Kingdom", "admin1": "England", "latitude": 51.5074, "longitude": -0.1278},
				{"name": "London", "country": "Canada", "admin1": "Ontario", "latitude": 42.9834, "longitude": -81.233}
			]
		}`))
	}))
	defer server.Close()

	client := NewGeocodingClient(server.URL, 0)
	cities, err := client.SearchCities("London")

	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "United Kingdom", cities[0].Country)
	assert.Equal(t, "England", cities[0].Admin1)
	assert.Equal(t, 51.5074, cities[0].Latitude)
}

func TestSearchCitiesNoResults(t *testing.T) {
	// Open-Meteo при пустом результате вообще не присылает поле results
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"generationtime_ms": 0.5}`))
	}))
	defer server.Close()

	client := NewGeocodingClient(server.URL, 0)
	cities, err := client.SearchCities("NonexistentCity")

	require.NoError(t, err)
	assert.Empty(t, cities)
	assert.NotNil(t, cities) // Пустой список, а не null
}

func TestSearchCitiesShortQueryNoNetworkCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewGeocodingClient(server.URL, 0)

	for _, query := range []string{"L", " L ", "", "  "} {
		cities, err := client.SearchCities(query)
		assert.ErrorIs(t, err, ErrQueryTooShort, "запрос %q", query)
		assert.Nil(t, cities)
	}
	assert.False(t, called, "короткий запрос не должен ходить в сеть")
}

func TestSearchCitiesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewGeocodingClient(server.URL, 0)
	cities, err := client.SearchCities("London")

	assert.Error(t, err)
	assert.Nil(t, cities)
}
