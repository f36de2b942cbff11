package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherapp/server/internal/models"
)

// seedSearch вставляет запись истории с явным временем поиска
func seedSearch(t *testing.T, svc *UserService, user *models.User, city CityResult, lastSearched time.Time) {
	t.Helper()
	entry, err := svc.SaveSearch(user, city)
	require.NoError(t, err)
	require.NoError(t, svc.db.Model(&models.SearchHistory{}).
		Where("id = ?", entry.ID).
		Update("last_searched", lastSearched).Error)
}

func numberedCity(i int) CityResult {
	return CityResult{
		Name:      fmt.Sprintf("City%02d", i),
		Country:   "Testland",
		Latitude:  float64(i),
		Longitude: float64(-i),
	}
}

func TestGetHistoryOrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	history := NewHistoryService(db)

	user, err := users.GetOrCreateUser("session-abc")
	require.NoError(t, err)

	base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 12; i++ {
		seedSearch(t, users, user, numberedCity(i), base.Add(time.Duration(i)*time.Hour))
	}

	entries, err := history.GetHistory(user)
	require.NoError(t, err)

	// 12 поисков, но отдаем только 10 самых свежих
	require.Len(t, entries, 10)
	assert.Equal(t, "City12", entries[0].City.Name)
	assert.Equal(t, "City03", entries[9].City.Name)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i-1].LastSearched.Before(entries[i].LastSearched))
	}
}

func TestGetHistoryEmpty(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	history := NewHistoryService(db)

	user, err := users.GetOrCreateUser("session-abc")
	require.NoError(t, err)

	entries, err := history.GetHistory(user)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestGetHistoryIsolatedPerUser(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	history := NewHistoryService(db)

	alice, err := users.GetOrCreateUser("session-alice")
	require.NoError(t, err)
	bob, err := users.GetOrCreateUser("session-bob")
	require.NoError(t, err)

	_, err = users.SaveSearch(alice, londonResult())
	require.NoError(t, err)

	aliceHistory, err := history.GetHistory(alice)
	require.NoError(t, err)
	assert.Len(t, aliceHistory, 1)

	bobHistory, err := history.GetHistory(bob)
	require.NoError(t, err)
	assert.Empty(t, bobHistory)
}

func TestGetRecent(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	history := NewHistoryService(db)

	user, err := users.GetOrCreateUser("session-abc")
	require.NoError(t, err)

	base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		seedSearch(t, users, user, numberedCity(i), base.Add(time.Duration(i)*time.Hour))
	}

	recent, err := history.GetRecent(user)
	require.NoError(t, err)

	require.Len(t, recent, 5)
	assert.Equal(t, "City07, Testland", recent[0].DisplayName)
	assert.Equal(t, "City03, Testland", recent[4].DisplayName)
	assert.NotZero(t, recent[0].CityID)
}
