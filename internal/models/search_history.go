package models

import (
	"time"
)

// SearchHistory запись истории поиска: связывает пользователя (сессию) и город
// Пара (user_id, city_id) уникальна — повторный поиск того же города той же
// сессией увеличивает счетчик, а не создает новую запись
type SearchHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_search_history_user_city" json:"-"`
	CityID       uint      `gorm:"not null;uniqueIndex:idx_search_history_user_city" json:"-"`
	SearchCount  uint      `gorm:"not null;default:1" json:"search_count"` // Всегда >= 1
	LastSearched time.Time `gorm:"not null" json:"last_searched"`
	CreatedAt    time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	City City `gorm:"foreignKey:CityID" json:"city"`
}

// TableName возвращает имя таблицы
func (SearchHistory) TableName() string {
	return "search_history"
}
