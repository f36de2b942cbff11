package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrQueryTooShort запрос короче двух символов, в Open-Meteo не ходим
var ErrQueryTooShort = fmt.Errorf("city name must be at least 2 characters long")

// GeocodingClient клиент для работы с Open-Meteo Geocoding API
type GeocodingClient struct {
	baseURL string
	client  *http.Client
}

// NewGeocodingClient создает новый клиент геокодинга
// baseURL можно переопределить через конфиг (пусто = боевой endpoint)
func NewGeocodingClient(baseURL string, timeout time.Duration) *GeocodingClient {
	if baseURL == "" {
		baseURL = "https://geocoding-api.open-meteo.com/v1/search"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GeocodingClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// CityResult найденный город из геокодинг API
type CityResult struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// geocodingResponse сырой ответ Open-Meteo Geocoding API
type geocodingResponse struct {
	Results []CityResult `json:"results"`
}

// SearchCities ищет города по названию (до 10 совпадений)
// Запросы короче 2 символов отклоняются до обращения к сети
func (gc *GeocodingClient) SearchCities(query string) ([]CityResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, ErrQueryTooShort
	}

	params := url.Values{}
	params.Set("name", query)
	params.Set("count", "10")
	params.Set("language", "en")
	params.Set("format", "json")

	resp, err := gc.client.Get(gc.baseURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to search cities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocoding API error (status %d): %s", resp.StatusCode, string(body))
	}

	var raw geocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// Города здесь не сохраняются: запись в БД происходит только когда
	// пользователь запрашивает погоду по конкретному городу
	cities := make([]CityResult, 0, len(raw.Results))
	cities = append(cities, raw.Results...)

	log.Printf("🔍 Geocoding: найдено %d городов по запросу %q", len(cities), query)
	return cities, nil
}
