package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPopularCities(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	stats := NewStatsService(db)

	alice, err := users.GetOrCreateUser("session-alice")
	require.NoError(t, err)
	bob, err := users.GetOrCreateUser("session-bob")
	require.NoError(t, err)

	// Лондон: 3 поиска от двух сессий; Париж: 1 поиск от одной
	for i := 0; i < 2; i++ {
		_, err = users.SaveSearch(alice, londonResult())
		require.NoError(t, err)
	}
	_, err = users.SaveSearch(bob, londonResult())
	require.NoError(t, err)

	paris := CityResult{Name: "Paris", Country: "France", Latitude: 48.8566, Longitude: 2.3522}
	_, err = users.SaveSearch(bob, paris)
	require.NoError(t, err)

	popular, err := stats.GetPopularCities()
	require.NoError(t, err)

	require.Len(t, popular, 2)
	assert.Equal(t, "London", popular[0].Name)
	assert.Equal(t, int64(3), popular[0].TotalSearches)
	assert.Equal(t, int64(2), popular[0].UniqueUsers)
	assert.Equal(t, "Paris", popular[1].Name)
	assert.Equal(t, int64(1), popular[1].TotalSearches)
	assert.Equal(t, int64(1), popular[1].UniqueUsers)
}

func TestGetPopularCitiesLimit(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	stats := NewStatsService(db)

	user, err := users.GetOrCreateUser("session-abc")
	require.NoError(t, err)

	for i := 1; i <= 12; i++ {
		_, err = users.SaveSearch(user, numberedCity(i))
		require.NoError(t, err)
	}

	popular, err := stats.GetPopularCities()
	require.NoError(t, err)
	assert.Len(t, popular, 10)
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	stats := NewStatsService(db)

	alice, err := users.GetOrCreateUser("session-alice")
	require.NoError(t, err)
	bob, err := users.GetOrCreateUser("session-bob")
	require.NoError(t, err)

	_, err = users.SaveSearch(alice, londonResult())
	require.NoError(t, err)
	_, err = users.SaveSearch(alice, londonResult())
	require.NoError(t, err)
	_, err = users.SaveSearch(bob, londonResult())
	require.NoError(t, err)

	result, err := stats.GetStats()
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.TotalSearches)
	assert.Equal(t, int64(2), result.TotalUsers)
	assert.Equal(t, int64(1), result.TotalCities)

	require.Len(t, result.CityStats, 1)
	assert.Equal(t, "London", result.CityStats[0].Name)
	assert.Equal(t, int64(3), result.CityStats[0].SearchCount)
	assert.Equal(t, int64(2), result.CityStats[0].UniqueUsers)
}

func TestGetStatsEmpty(t *testing.T) {
	db := newTestDB(t)
	stats := NewStatsService(db)

	result, err := stats.GetStats()
	require.NoError(t, err)

	// Пустая БД — нули, а не NULL и не nil-список
	assert.Equal(t, int64(0), result.TotalSearches)
	assert.Equal(t, int64(0), result.TotalUsers)
	assert.Equal(t, int64(0), result.TotalCities)
	assert.NotNil(t, result.CityStats)
	assert.Empty(t, result.CityStats)
}
