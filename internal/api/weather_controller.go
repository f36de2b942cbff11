package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"weatherapp/server/internal/models"
	"weatherapp/server/internal/services"
)

// WeatherController управляет API endpoints погоды и истории поисков
type WeatherController struct {
	geocoding *services.GeocodingClient
	weather   *services.WeatherClient
	users     *services.UserService
	history   *services.HistoryService
	stats     *services.StatsService
	events    *SearchEventPublisher // Может быть nil, если Kafka не настроена
}

// NewWeatherController создает новый контроллер погоды
func NewWeatherController(
	geocoding *services.GeocodingClient,
	weather *services.WeatherClient,
	users *services.UserService,
	history *services.HistoryService,
	stats *services.StatsService,
	events *SearchEventPublisher,
) *WeatherController {
	return &WeatherController{
		geocoding: geocoding,
		weather:   weather,
		users:     users,
		history:   history,
		stats:     stats,
		events:    events,
	}
}

// CitySearchRequest запрос поиска города
type CitySearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// WeatherRequest запрос прогноза погоды: либо city_id, либо координаты
type WeatherRequest struct {
	CityID    *uint    `json:"city_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SearchCities ищет города по названию для автодополнения
// POST /api/v1/search-cities
func (wc *WeatherController) SearchCities(c *gin.Context) {
	var req CitySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	// Короткие запросы отклоняем до обращения к геокодингу
	if len(strings.TrimSpace(req.Query)) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "City name must be at least 2 characters long",
		})
		return
	}

	cities, err := wc.geocoding.SearchCities(req.Query)
	if err != nil {
		log.Printf("❌ SearchCities: ошибка геокодинга: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to search cities",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cities": cities,
		"count":  len(cities),
	})
}

// GetWeather возвращает прогноз погоды по city_id или координатам
// Запрос по city_id дополнительно записывается в историю поисков сессии
// POST /api/v1/weather
func (wc *WeatherController) GetWeather(c *gin.Context) {
	var req WeatherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	if req.CityID == nil && (req.Latitude == nil || req.Longitude == nil) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Either city_id or both latitude and longitude must be provided",
		})
		return
	}

	user, err := wc.users.GetOrCreateUser(SessionKey(c))
	if err != nil {
		log.Printf("❌ GetWeather: ошибка получения пользователя: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve session",
		})
		return
	}

	var city *models.City
	var latitude, longitude float64

	if req.CityID != nil {
		// Город должен существовать, иначе 404 без похода за прогнозом
		city, err = wc.users.GetCityByID(*req.CityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error": "City not found",
				})
				return
			}
			log.Printf("❌ GetWeather: ошибка поиска города %d: %v", *req.CityID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to look up city",
			})
			return
		}
		latitude = city.Latitude
		longitude = city.Longitude
	} else {
		latitude = *req.Latitude
		longitude = *req.Longitude
	}

	weatherData, err := wc.weather.GetWeatherData(latitude, longitude)
	if err != nil {
		log.Printf("❌ GetWeather: ошибка получения прогноза: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch weather data",
		})
		return
	}

	// Историю пишем только для запросов по городу; прогноз уже получен,
	// так что при ошибке апстрима никаких частичных записей не остается
	if city != nil {
		entry, err := wc.users.SaveSearch(user, services.CityResult{
			Name:      city.Name,
			Country:   city.Country,
			Admin1:    city.Admin1,
			Latitude:  city.Latitude,
			Longitude: city.Longitude,
		})
		if err != nil {
			log.Printf("❌ GetWeather: ошибка записи истории поиска: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to record search",
			})
			return
		}

		weatherData.City = cityJSON(city)
		wc.events.Publish(SearchEvent{
			SessionKey:  user.SessionKey,
			CityID:      city.ID,
			CityName:    city.Name,
			Country:     city.Country,
			SearchCount: entry.SearchCount,
			SearchedAt:  entry.LastSearched,
		})
	}

	c.JSON(http.StatusOK, weatherData)
}

// GetHistory возвращает до 10 последних поисков текущей сессии
// GET /api/v1/history
func (wc *WeatherController) GetHistory(c *gin.Context) {
	user, err := wc.users.FindUser(SessionKey(c))
	if err != nil {
		log.Printf("❌ GetHistory: ошибка поиска пользователя: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load history",
		})
		return
	}
	if user == nil {
		// Сессия еще не запрашивала погоду
		c.JSON(http.StatusOK, gin.H{"history": []models.SearchHistory{}})
		return
	}

	history, err := wc.history.GetHistory(user)
	if err != nil {
		log.Printf("❌ GetHistory: ошибка чтения истории: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// GetRecent возвращает до 5 последних поисков для подсказок
// GET /api/v1/recent
func (wc *WeatherController) GetRecent(c *gin.Context) {
	user, err := wc.users.FindUser(SessionKey(c))
	if err != nil {
		log.Printf("❌ GetRecent: ошибка поиска пользователя: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load recent searches",
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"recent_searches": []services.RecentSearch{}})
		return
	}

	recent, err := wc.history.GetRecent(user)
	if err != nil {
		log.Printf("❌ GetRecent: ошибка чтения недавних поисков: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load recent searches",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recent_searches": recent})
}

// GetPopular возвращает топ-10 самых искомых городов
// GET /api/v1/popular
func (wc *WeatherController) GetPopular(c *gin.Context) {
	popular, err := wc.stats.GetPopularCities()
	if err != nil {
		log.Printf("❌ GetPopular: ошибка агрегации: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load popular cities",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"popular_cities": popular})
}

// GetStats возвращает полную статистику поисков
// GET /api/v1/stats
func (wc *WeatherController) GetStats(c *gin.Context) {
	stats, err := wc.stats.GetStats()
	if err != nil {
		log.Printf("❌ GetStats: ошибка агрегации: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HealthCheck проверка живости сервиса
// GET /api/v1/health
func (wc *WeatherController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Weather API is running",
	})
}

// cityJSON сериализует город для ответа API (с display_name, как в истории)
func cityJSON(city *models.City) gin.H {
	return gin.H{
		"id":           city.ID,
		"name":         city.Name,
		"country":      city.Country,
		"admin1":       city.Admin1,
		"latitude":     city.Latitude,
		"longitude":    city.Longitude,
		"display_name": city.DisplayName(),
	}
}
