package services

import (
	"fmt"

	"gorm.io/gorm"

	"weatherapp/server/internal/models"
)

// StatsService агрегирует статистику поисков по всем сессиям
// Без кэширования: каждый вызов пересчитывает из текущего состояния БД
type StatsService struct {
	db *gorm.DB
}

// NewStatsService создает новый сервис статистики
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// PopularCity агрегат по одному городу для топа популярных
type PopularCity struct {
	CityID        uint   `json:"city_id"`
	Name          string `json:"name"`
	Country       string `json:"country"`
	TotalSearches int64  `json:"total_searches"`
	UniqueUsers   int64  `json:"unique_users"`
}

// CityStat агрегат по одному городу для полной статистики
type CityStat struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	SearchCount int64  `json:"search_count"`
	UniqueUsers int64  `json:"unique_users"`
}

// Stats полная статистика поисков с глобальными итогами
type Stats struct {
	CityStats     []CityStat `json:"city_stats"`
	TotalSearches int64      `json:"total_searches"`
	TotalUsers    int64      `json:"total_users"`
	TotalCities   int64      `json:"total_cities"`
}

// GetPopularCities возвращает топ-10 городов по суммарному числу поисков
// unique_users считает различные сессии, не реальных людей
func (s *StatsService) GetPopularCities() ([]PopularCity, error) {
	popular := make([]PopularCity, 0, 10)
	err := s.db.Model(&models.SearchHistory{}).
		Select("cities.id AS city_id, cities.name AS name, cities.country AS country, SUM(search_history.search_count) AS total_searches, COUNT(DISTINCT search_history.user_id) AS unique_users").
		Joins("JOIN cities ON cities.id = search_history.city_id").
		Group("cities.id, cities.name, cities.country").
		Order("total_searches DESC").
		Limit(10).
		Scan(&popular).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка агрегации популярных городов: %w", err)
	}
	return popular, nil
}

// GetStats возвращает статистику по всем городам и глобальные итоги
func (s *StatsService) GetStats() (*Stats, error) {
	stats := &Stats{CityStats: make([]CityStat, 0)}

	err := s.db.Model(&models.SearchHistory{}).
		Select("cities.name AS name, cities.country AS country, SUM(search_history.search_count) AS search_count, COUNT(DISTINCT search_history.user_id) AS unique_users").
		Joins("JOIN cities ON cities.id = search_history.city_id").
		Group("cities.name, cities.country").
		Order("search_count DESC").
		Scan(&stats.CityStats).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка агрегации статистики городов: %w", err)
	}

	// COALESCE: при пустой таблице сумма должна быть 0, а не NULL
	err = s.db.Model(&models.SearchHistory{}).
		Select("COALESCE(SUM(search_count), 0)").
		Scan(&stats.TotalSearches).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета суммы поисков: %w", err)
	}

	if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("ошибка подсчета пользователей: %w", err)
	}
	if err := s.db.Model(&models.City{}).Count(&stats.TotalCities).Error; err != nil {
		return nil, fmt.Errorf("ошибка подсчета городов: %w", err)
	}

	return stats, nil
}
