package models

import (
	"fmt"
)

// City модель города из геокодинг API
// Уникальность определяется кортежем (name, country, latitude, longitude):
// одноименные города в разных странах или с разными координатами — разные записи.
// Запись создается лениво при первом поиске и после этого не изменяется
type City struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"type:varchar(200);not null;uniqueIndex:idx_cities_identity" json:"name"`
	Country   string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_cities_identity" json:"country"`
	Admin1    string  `gorm:"type:varchar(200)" json:"admin1"` // Регион/область (может быть пустым)
	Latitude  float64 `gorm:"not null;uniqueIndex:idx_cities_identity" json:"latitude"`
	Longitude float64 `gorm:"not null;uniqueIndex:idx_cities_identity" json:"longitude"`
}

// TableName возвращает имя таблицы
func (City) TableName() string {
	return "cities"
}

// DisplayName возвращает человекочитаемое имя города для подсказок и истории
func (c *City) DisplayName() string {
	if c.Admin1 != "" {
		return fmt.Sprintf("%s, %s, %s", c.Name, c.Admin1, c.Country)
	}
	return fmt.Sprintf("%s, %s", c.Name, c.Country)
}
