package models

import (
	"time"
)

// User модель анонимного пользователя, привязанного к сессии
// Сессионный ключ приходит из cookie, его формат мы не проверяем и не генерируем
// (за это отвечает session middleware)
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionKey string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"session_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName возвращает имя таблицы
func (User) TableName() string {
	return "users"
}
