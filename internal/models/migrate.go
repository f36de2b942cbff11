package models

import (
	"log"

	"gorm.io/gorm"
)

// AutoMigrate выполняет миграции всех таблиц приложения
// Порядок важен: search_history ссылается на users и cities
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		log.Printf("❌ AutoMigrate для User failed: %v", err)
		return err
	}

	if err := db.AutoMigrate(&City{}); err != nil {
		log.Printf("❌ AutoMigrate для City failed: %v", err)
		return err
	}

	if err := db.AutoMigrate(&SearchHistory{}); err != nil {
		log.Printf("❌ AutoMigrate для SearchHistory failed: %v", err)
		return err
	}

	log.Println("✅ Таблицы users, cities, search_history мигрированы")
	return nil
}
