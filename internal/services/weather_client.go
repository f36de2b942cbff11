package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Фиксированные наборы метрик Open-Meteo для каждого блока прогноза
var (
	currentMetrics = "temperature_2m,relative_humidity_2m,apparent_temperature,is_day,precipitation,weather_code,cloud_cover,pressure_msl,wind_speed_10m,wind_direction_10m"
	hourlyMetrics  = "temperature_2m,relative_humidity_2m,precipitation_probability,precipitation,weather_code,wind_speed_10m"
	dailyMetrics   = "weather_code,temperature_2m_max,temperature_2m_min,apparent_temperature_max,apparent_temperature_min,precipitation_sum,wind_speed_10m_max,wind_direction_10m_dominant"
)

// WeatherClient клиент для работы с Open-Meteo Forecast API
type WeatherClient struct {
	baseURL string
	client  *http.Client
}

// NewWeatherClient создает новый клиент для получения прогноза погоды
// baseURL можно переопределить через конфиг (пусто = боевой endpoint)
func NewWeatherClient(baseURL string, timeout time.Duration) *WeatherClient {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WeatherClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// forecastResponse сырой ответ Open-Meteo
// Указатели и слайсы указателей: отсутствующее поле или null в массиве
// должны остаться null в нормализованном ответе, а не превратиться в 0
type forecastResponse struct {
	Timezone  *string      `json:"timezone"`
	Elevation *float64     `json:"elevation"`
	Current   currentBlock `json:"current"`
	Hourly    hourlyBlock  `json:"hourly"`
	Daily     dailyBlock   `json:"daily"`
}

type currentBlock struct {
	Time                *string  `json:"time"`
	Temperature2m       *float64 `json:"temperature_2m"`
	RelativeHumidity2m  *float64 `json:"relative_humidity_2m"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	IsDay               *int     `json:"is_day"`
	Precipitation       *float64 `json:"precipitation"`
	WeatherCode         *int     `json:"weather_code"`
	CloudCover          *float64 `json:"cloud_cover"`
	PressureMsl         *float64 `json:"pressure_msl"`
	WindSpeed10m        *float64 `json:"wind_speed_10m"`
	WindDirection10m    *float64 `json:"wind_direction_10m"`
}

type hourlyBlock struct {
	Time                     []string   `json:"time"`
	Temperature2m            []*float64 `json:"temperature_2m"`
	RelativeHumidity2m       []*float64 `json:"relative_humidity_2m"`
	PrecipitationProbability []*float64 `json:"precipitation_probability"`
	Precipitation            []*float64 `json:"precipitation"`
	WeatherCode              []*int     `json:"weather_code"`
	WindSpeed10m             []*float64 `json:"wind_speed_10m"`
}

type dailyBlock struct {
	Time                    []string   `json:"time"`
	WeatherCode             []*int     `json:"weather_code"`
	Temperature2mMax        []*float64 `json:"temperature_2m_max"`
	Temperature2mMin        []*float64 `json:"temperature_2m_min"`
	ApparentTemperatureMax  []*float64 `json:"apparent_temperature_max"`
	ApparentTemperatureMin  []*float64 `json:"apparent_temperature_min"`
	PrecipitationSum        []*float64 `json:"precipitation_sum"`
	WindSpeed10mMax         []*float64 `json:"wind_speed_10m_max"`
	WindDirection10mDominant []*float64 `json:"wind_direction_10m_dominant"`
}

// CurrentWeather текущая погода в плоском формате
type CurrentWeather struct {
	Temperature        *float64 `json:"temperature"`
	FeelsLike          *float64 `json:"feels_like"`
	Humidity           *float64 `json:"humidity"`
	Precipitation      *float64 `json:"precipitation"`
	WeatherCode        *int     `json:"weather_code"`
	WeatherDescription string   `json:"weather_description"`
	CloudCover         *float64 `json:"cloud_cover"`
	Pressure           *float64 `json:"pressure"`
	WindSpeed          *float64 `json:"wind_speed"`
	WindDirection      *float64 `json:"wind_direction"`
	IsDay              *int     `json:"is_day"`
	Time               *string  `json:"time"`
}

// HourlyForecast прогноз на один час
type HourlyForecast struct {
	Time                     string   `json:"time"`
	Temperature              *float64 `json:"temperature"`
	Humidity                 *float64 `json:"humidity"`
	PrecipitationProbability *float64 `json:"precipitation_probability"`
	Precipitation            *float64 `json:"precipitation"`
	WeatherCode              *int     `json:"weather_code"`
	WeatherDescription       string   `json:"weather_description"`
	WindSpeed                *float64 `json:"wind_speed"`
}

// DailyForecast прогноз на один день
type DailyForecast struct {
	Date               string   `json:"date"`
	TemperatureMax     *float64 `json:"temperature_max"`
	TemperatureMin     *float64 `json:"temperature_min"`
	FeelsLikeMax       *float64 `json:"feels_like_max"`
	FeelsLikeMin       *float64 `json:"feels_like_min"`
	Precipitation      *float64 `json:"precipitation"`
	WindSpeedMax       *float64 `json:"wind_speed_max"`
	WindDirection      *float64 `json:"wind_direction"`
	WeatherCode        *int     `json:"weather_code"`
	WeatherDescription string   `json:"weather_description"`
}

// ForecastData нормализованный прогноз погоды
// City заполняется контроллером, если погода запрошена по city_id
type ForecastData struct {
	CurrentWeather CurrentWeather   `json:"current_weather"`
	HourlyForecast []HourlyForecast `json:"hourly_forecast"`
	DailyForecast  []DailyForecast  `json:"daily_forecast"`
	Timezone       *string          `json:"timezone"`
	Elevation      *float64         `json:"elevation"`
	City           interface{}      `json:"city,omitempty"`
}

// GetWeatherData получает и нормализует прогноз погоды по координатам
// Без ретраев: при ошибке сети или не-2xx статусе сразу возвращаем ошибку
func (wc *WeatherClient) GetWeatherData(latitude, longitude float64) (*ForecastData, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%g", latitude))
	params.Set("longitude", fmt.Sprintf("%g", longitude))
	params.Set("current", currentMetrics)
	params.Set("hourly", hourlyMetrics)
	params.Set("daily", dailyMetrics)
	params.Set("timezone", "auto")
	params.Set("forecast_days", "7")

	resp, err := wc.client.Get(wc.baseURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather API error (status %d): %s", resp.StatusCode, string(body))
	}

	var raw forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	data := formatWeatherData(&raw)
	log.Printf("🌤️ Weather: получен прогноз (lat=%.4f, lon=%.4f, часов=%d, дней=%d)",
		latitude, longitude, len(data.HourlyForecast), len(data.DailyForecast))

	return data, nil
}

// formatWeatherData превращает сырой ответ Open-Meteo в плоскую структуру
// Политика для всех блоков одна: нет значения — в ответе null, без ошибок
func formatWeatherData(raw *forecastResponse) *ForecastData {
	current := CurrentWeather{
		Temperature:        raw.Current.Temperature2m,
		FeelsLike:          raw.Current.ApparentTemperature,
		Humidity:           raw.Current.RelativeHumidity2m,
		Precipitation:      raw.Current.Precipitation,
		WeatherCode:        raw.Current.WeatherCode,
		WeatherDescription: WeatherDescription(raw.Current.WeatherCode),
		CloudCover:         raw.Current.CloudCover,
		Pressure:           raw.Current.PressureMsl,
		WindSpeed:          raw.Current.WindSpeed10m,
		WindDirection:      raw.Current.WindDirection10m,
		IsDay:              raw.Current.IsDay,
		Time:               raw.Current.Time,
	}

	// Почасовой прогноз: первые 24 часа (или меньше, если данных меньше)
	hours := len(raw.Hourly.Time)
	if hours > 24 {
		hours = 24
	}
	hourly := make([]HourlyForecast, 0, hours)
	for i := 0; i < hours; i++ {
		code := intAt(raw.Hourly.WeatherCode, i)
		hourly = append(hourly, HourlyForecast{
			Time:                     raw.Hourly.Time[i],
			Temperature:              floatAt(raw.Hourly.Temperature2m, i),
			Humidity:                 floatAt(raw.Hourly.RelativeHumidity2m, i),
			PrecipitationProbability: floatAt(raw.Hourly.PrecipitationProbability, i),
			Precipitation:            floatAt(raw.Hourly.Precipitation, i),
			WeatherCode:              code,
			WeatherDescription:       WeatherDescription(code),
			WindSpeed:                floatAt(raw.Hourly.WindSpeed10m, i),
		})
	}

	// Дневной прогноз: все доступные дни, без ограничения
	daily := make([]DailyForecast, 0, len(raw.Daily.Time))
	for i := range raw.Daily.Time {
		code := intAt(raw.Daily.WeatherCode, i)
		daily = append(daily, DailyForecast{
			Date:               raw.Daily.Time[i],
			TemperatureMax:     floatAt(raw.Daily.Temperature2mMax, i),
			TemperatureMin:     floatAt(raw.Daily.Temperature2mMin, i),
			FeelsLikeMax:       floatAt(raw.Daily.ApparentTemperatureMax, i),
			FeelsLikeMin:       floatAt(raw.Daily.ApparentTemperatureMin, i),
			Precipitation:      floatAt(raw.Daily.PrecipitationSum, i),
			WindSpeedMax:       floatAt(raw.Daily.WindSpeed10mMax, i),
			WindDirection:      floatAt(raw.Daily.WindDirection10mDominant, i),
			WeatherCode:        code,
			WeatherDescription: WeatherDescription(code),
		})
	}

	return &ForecastData{
		CurrentWeather: current,
		HourlyForecast: hourly,
		DailyForecast:  daily,
		Timezone:       raw.Timezone,
		Elevation:      raw.Elevation,
	}
}

// floatAt возвращает элемент массива метрик или nil, если массив короче
// массива времени (Open-Meteo иногда отдает неполные массивы)
func floatAt(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

// intAt то же самое для целочисленных метрик
func intAt(values []*int, i int) *int {
	if i < len(values) {
		return values[i]
	}
	return nil
}
