package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"weatherapp/server/internal/models"
)

// HistoryService читает историю поисков одной сессии
type HistoryService struct {
	db *gorm.DB
}

// NewHistoryService создает новый сервис истории
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// RecentSearch элемент списка подсказок "недавние поиски"
type RecentSearch struct {
	CityID       uint      `json:"city_id"`
	DisplayName  string    `json:"display_name"`
	LastSearched time.Time `json:"last_searched"`
}

// GetHistory возвращает до 10 последних поисков пользователя
// Сортировка по last_searched, самые свежие первыми
func (s *HistoryService) GetHistory(user *models.User) ([]models.SearchHistory, error) {
	history := make([]models.SearchHistory, 0, 10)
	err := s.db.Preload("City").
		Where("user_id = ?", user.ID).
		Order("last_searched DESC").
		Limit(10).
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории поисков: %w", err)
	}
	return history, nil
}

// GetRecent возвращает до 5 последних поисков для подсказок
func (s *HistoryService) GetRecent(user *models.User) ([]RecentSearch, error) {
	var entries []models.SearchHistory
	err := s.db.Preload("City").
		Where("user_id = ?", user.ID).
		Order("last_searched DESC").
		Limit(5).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения недавних поисков: %w", err)
	}

	suggestions := make([]RecentSearch, 0, len(entries))
	for _, entry := range entries {
		suggestions = append(suggestions, RecentSearch{
			CityID:       entry.CityID,
			DisplayName:  fmt.Sprintf("%s, %s", entry.City.Name, entry.City.Country),
			LastSearched: entry.LastSearched,
		})
	}
	return suggestions, nil
}
