package api

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"weatherapp/server/internal/utils"
)

// SessionCookieName имя cookie с идентификатором сессии
const SessionCookieName = "session_id"

// sessionContextKey ключ в gin.Context, под которым лежит идентификатор сессии
const sessionContextKey = "session_key"

// sessionTTL время жизни сессии (две недели, как у cookie-сессий Django)
const sessionTTL = 14 * 24 * time.Hour

// SessionMiddleware выдает анонимной сессии идентификатор через cookie
// Если Redis доступен, отмечает в нем активность сессии с TTL;
// недоступный Redis не мешает обработке запроса
func SessionMiddleware(redisUtil *utils.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionKey, err := c.Cookie(SessionCookieName)
		if err != nil || sessionKey == "" {
			sessionKey = uuid.NewString()
			c.SetCookie(SessionCookieName, sessionKey, int(sessionTTL.Seconds()), "/", "", false, true)
		}

		c.Set(sessionContextKey, sessionKey)

		if redisUtil != nil {
			key := "session:" + sessionKey
			if err := redisUtil.Set(key, time.Now().UTC().Format(time.RFC3339), sessionTTL); err != nil {
				log.Printf("⚠️ Session: не удалось обновить активность сессии в Redis: %v", err)
			}
		}

		c.Next()
	}
}

// SessionKey возвращает идентификатор сессии текущего запроса
func SessionKey(c *gin.Context) string {
	if value, ok := c.Get(sessionContextKey); ok {
		if sessionKey, ok := value.(string); ok {
			return sessionKey
		}
	}
	return ""
}
