package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"weatherapp/server/internal/api"
	"weatherapp/server/internal/config"
	"weatherapp/server/internal/database"
	"weatherapp/server/internal/models"
	"weatherapp/server/internal/services"
	"weatherapp/server/internal/utils"
)

func main() {
	// Загружаем переменные окружения из .env файла (если существует)
	// Игнорируем ошибку, если файл не найден (для production окружений)
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ .env файл не найден, используем переменные окружения системы")
	} else {
		log.Printf("✅ Переменные окружения загружены из .env файла")
	}

	// Загрузка конфигурации
	cfg := config.Load()

	// Логируем наличие DATABASE_URL (без пароля)
	if cfg.DatabaseURL != "" {
		safeURL := cfg.DatabaseURL
		if idx := strings.Index(safeURL, "@"); idx > 0 {
			if schemeIdx := strings.Index(safeURL, "://"); schemeIdx > 0 {
				safeURL = safeURL[:schemeIdx+3] + "***@" + safeURL[idx+1:]
			}
		}
		log.Printf("📋 DATABASE_URL установлен: %s", safeURL)
	}

	// Подключение к PostgreSQL
	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Printf("❌ PostgreSQL connection failed: %v", err)
		log.Printf("⚠️ Продолжаем без БД (доступен только поиск городов)")
		db = nil
	} else {
		defer database.ClosePostgres(db)

		// Выполняем миграции
		if err := models.AutoMigrate(db); err != nil {
			log.Printf("❌ Migration failed: %v", err)
			log.Printf("⚠️ Continuing with limited functionality")
		} else {
			log.Println("✅ Database migrations completed")
		}
	}

	// Подключение к Redis (с поддержкой Sentinel) — хранилище активности сессий
	redisClient, err := database.ConnectRedis(
		cfg.RedisURL,
		cfg.RedisSentinelAddrs,
		cfg.RedisMasterName,
	)
	var redisUtil *utils.RedisClient
	if err != nil {
		log.Printf("⚠️ Redis connection failed: %v (continuing without Redis)", err)
		redisClient = nil
	} else {
		redisUtil = utils.NewRedisClient(redisClient)
	}
	defer database.CloseRedis(redisClient)

	// Kafka producer событий поиска (опционально)
	searchEvents := api.NewSearchEventPublisher(
		cfg.KafkaBrokers,
		cfg.KafkaSearchTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
		cfg.KafkaCACert,
	)
	if searchEvents == nil {
		log.Println("⚠️ KAFKA_BROKERS не установлен, события поиска не публикуются")
	}
	defer searchEvents.Close()

	// Клиенты Open-Meteo
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	geocodingClient := services.NewGeocodingClient(cfg.GeocodingURL, timeout)
	weatherClient := services.NewWeatherClient(cfg.WeatherURL, timeout)

	// Сервисы поверх БД
	var userService *services.UserService
	var historyService *services.HistoryService
	var statsService *services.StatsService
	if db != nil {
		userService = services.NewUserService(db)
		historyService = services.NewHistoryService(db)
		statsService = services.NewStatsService(db)
		log.Println("✅ User/History/Stats services initialized")
	} else {
		log.Println("⚠️ User/History/Stats services not started: PostgreSQL not available")
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS для фронтенда
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Каждому запросу — идентификатор сессии через cookie
	r.Use(api.SessionMiddleware(redisUtil))

	controller := api.NewWeatherController(
		geocodingClient,
		weatherClient,
		userService,
		historyService,
		statsService,
		searchEvents,
	)

	apiGroup := r.Group("/api/v1")
	{
		apiGroup.GET("/health", controller.HealthCheck)
		apiGroup.POST("/search-cities", controller.SearchCities)

		// Endpoints с персистентностью доступны только при живой БД
		if db != nil {
			apiGroup.POST("/weather", controller.GetWeather)
			apiGroup.GET("/history", controller.GetHistory)
			apiGroup.GET("/recent", controller.GetRecent)
			apiGroup.GET("/popular", controller.GetPopular)
			apiGroup.GET("/stats", controller.GetStats)
			log.Println("✅ Weather endpoints enabled: /api/v1/{weather,history,recent,popular,stats}")
		} else {
			log.Println("⚠️ Weather endpoints NOT enabled: PostgreSQL not available")
		}
	}

	port := cfg.ServerPort
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s", port)
	log.Printf("📡 API доступен на http://0.0.0.0:%s/api/v1", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
