package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"weatherapp/server/internal/models"
)

// UserService управляет пользователями-сессиями и журналом поисков
type UserService struct {
	db *gorm.DB
}

// NewUserService создает новый сервис пользователей
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetOrCreateUser возвращает пользователя по сессионному ключу, создавая при отсутствии
// Гонка двух одинаковых запросов разрешается через ON CONFLICT DO NOTHING +
// повторное чтение, уникальный индекс по session_key — последний рубеж
func (s *UserService) GetOrCreateUser(sessionKey string) (*models.User, error) {
	var user models.User
	err := s.db.Where("session_key = ?", sessionKey).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	user = models.User{SessionKey: sessionKey}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	if user.ID == 0 {
		// Вставку выиграл параллельный запрос — перечитываем
		if err := s.db.Where("session_key = ?", sessionKey).First(&user).Error; err != nil {
			return nil, fmt.Errorf("ошибка повторного поиска пользователя: %w", err)
		}
	}

	return &user, nil
}

// FindUser возвращает пользователя по сессионному ключу без создания
// (nil, nil) если сессия еще не делала запросов погоды
func (s *UserService) FindUser(sessionKey string) (*models.User, error) {
	var user models.User
	err := s.db.Where("session_key = ?", sessionKey).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}
	return &user, nil
}

// GetCityByID возвращает город по ID
// gorm.ErrRecordNotFound пробрасывается как есть, контроллер отличает 404 от 500
func (s *UserService) GetCityByID(id uint) (*models.City, error) {
	var city models.City
	if err := s.db.First(&city, id).Error; err != nil {
		return nil, err
	}
	return &city, nil
}

// SaveSearch записывает поиск города пользователем
// Город и запись истории создаются в одной транзакции: get-or-create города по
// кортежу уникальности, затем get-or-create записи (user, city); повторный
// поиск увеличивает счетчик и обновляет last_searched
func (s *UserService) SaveSearch(user *models.User, cityData CityResult) (*models.SearchHistory, error) {
	var entry models.SearchHistory

	err := s.db.Transaction(func(tx *gorm.DB) error {
		city, err := getOrCreateCity(tx, cityData)
		if err != nil {
			return err
		}

		created := false
		err = tx.Where("user_id = ? AND city_id = ?", user.ID, city.ID).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			entry = models.SearchHistory{
				UserID:       user.ID,
				CityID:       city.ID,
				SearchCount:  1,
				LastSearched: time.Now().UTC(),
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
				return fmt.Errorf("ошибка создания записи истории: %w", err)
			}
			created = entry.ID != 0
			if !created {
				// Запись успела создаться параллельно — она существующая, инкрементируем
				if err := tx.Where("user_id = ? AND city_id = ?", user.ID, city.ID).First(&entry).Error; err != nil {
					return fmt.Errorf("ошибка повторного поиска записи истории: %w", err)
				}
			}
		} else if err != nil {
			return fmt.Errorf("ошибка поиска записи истории: %w", err)
		}

		if !created {
			// Инкремент на стороне БД, чтобы не потерять конкурентные обновления
			updates := map[string]interface{}{
				"search_count":  gorm.Expr("search_count + ?", 1),
				"last_searched": time.Now().UTC(),
			}
			if err := tx.Model(&models.SearchHistory{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("ошибка обновления записи истории: %w", err)
			}
			if err := tx.First(&entry, entry.ID).Error; err != nil {
				return fmt.Errorf("ошибка чтения записи истории: %w", err)
			}
		}

		entry.City = *city
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// getOrCreateCity ищет город по кортежу уникальности, создавая при отсутствии
// Регион (admin1) участвует только при создании, в ключ уникальности не входит
func getOrCreateCity(tx *gorm.DB, cityData CityResult) (*models.City, error) {
	lookup := func(dest *models.City) error {
		return tx.Where(
			"name = ? AND country = ? AND latitude = ? AND longitude = ?",
			cityData.Name, cityData.Country, cityData.Latitude, cityData.Longitude,
		).First(dest).Error
	}

	var city models.City
	err := lookup(&city)
	if err == nil {
		return &city, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ошибка поиска города: %w", err)
	}

	city = models.City{
		Name:      cityData.Name,
		Country:   cityData.Country,
		Admin1:    cityData.Admin1,
		Latitude:  cityData.Latitude,
		Longitude: cityData.Longitude,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&city).Error; err != nil {
		return nil, fmt.Errorf("ошибка создания города: %w", err)
	}
	if city.ID == 0 {
		if err := lookup(&city); err != nil {
			return nil, fmt.Errorf("ошибка повторного поиска города: %w", err)
		}
	}

	return &city, nil
}
