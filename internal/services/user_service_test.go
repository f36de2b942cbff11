package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"weatherapp/server/internal/models"
)

// newTestDB поднимает изолированную in-memory SQLite БД со схемой приложения
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Одно соединение, иначе пул откроет вторую пустую in-memory БД
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func londonResult() CityResult {
	return CityResult{
		Name:      "London",
		Country:   "United Kingdom",
		Admin1:    "England",
		Latitude:  51.5074,
		Longitude: -0.1278,
	}
}

func TestGetOrCreateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	first, err := svc.GetOrCreateUser("session-abc")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	// Повторный вызов возвращает ту же строку, не дубликат
	second, err := svc.GetOrCreateUser("session-abc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user, err := svc.FindUser("never-seen")
	require.NoError(t, err)
	assert.Nil(t, user)

	created, err := svc.GetOrCreateUser("session-xyz")
	require.NoError(t, err)

	found, err := svc.FindUser("session-xyz")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestSaveSearchCreatesCityAndEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user, err := svc.GetOrCreateUser("session-abc")
	require.NoError(t, err)

	entry, err := svc.SaveSearch(user, londonResult())
	require.NoError(t, err)
	assert.Equal(t, uint(1), entry.SearchCount)
	assert.Equal(t, "London", entry.City.Name)
	assert.False(t, entry.LastSearched.IsZero())

	city, err := svc.GetCityByID(entry.CityID)
	require.NoError(t, err)
	assert.Equal(t, "England", city.Admin1)
}

func TestSaveSearchIncrementsExisting(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user, err := svc.GetOrCreateUser("session-abc")
	require.NoError(t, err)

	first, err := svc.SaveSearch(user, londonResult())
	require.NoError(t, err)

	second, err := svc.SaveSearch(user, londonResult())
	require.NoError(t, err)

	// Та же запись с увеличенным счетчиком, без нового города
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, uint(2), second.SearchCount)
	assert.False(t, second.LastSearched.Before(first.LastSearched))

	var cityCount, entryCount int64
	require.NoError(t, db.Model(&models.City{}).Count(&cityCount).Error)
	require.NoError(t, db.Model(&models.SearchHistory{}).Count(&entryCount).Error)
	assert.Equal(t, int64(1), cityCount)
	assert.Equal(t, int64(1), entryCount)
}

func TestSaveSearchDistinctUsersShareCity(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	alice, err := svc.GetOrCreateUser("session-alice")
	require.NoError(t, err)
	bob, err := svc.GetOrCreateUser("session-bob")
	require.NoError(t, err)

	aliceEntry, err := svc.SaveSearch(alice, londonResult())
	require.NoError(t, err)
	bobEntry, err := svc.SaveSearch(bob, londonResult())
	require.NoError(t, err)

	// Город общий, записи истории раздельные
	assert.Equal(t, aliceEntry.CityID, bobEntry.CityID)
	assert.NotEqual(t, aliceEntry.ID, bobEntry.ID)
	assert.Equal(t, uint(1), bobEntry.SearchCount)

	var cityCount int64
	require.NoError(t, db.Model(&models.City{}).Count(&cityCount).Error)
	assert.Equal(t, int64(1), cityCount)
}

func TestSaveSearchHomonymCitiesStaySeparate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user, err := svc.GetOrCreateUser("session-abc")
	require.NoError(t, err)

	_, err = svc.SaveSearch(user, londonResult())
	require.NoError(t, err)

	ontario := CityResult{
		Name:      "London",
		Country:   "Canada",
		Admin1:    "Ontario",
		Latitude:  42.9834,
		Longitude: -81.233,
	}
	_, err = svc.SaveSearch(user, ontario)
	require.NoError(t, err)

	var cityCount int64
	require.NoError(t, db.Model(&models.City{}).Count(&cityCount).Error)
	assert.Equal(t, int64(2), cityCount)
}

func TestGetCityByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	city, err := svc.GetCityByID(12345)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, city)
}
