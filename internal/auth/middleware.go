package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"news-assistant/internal/config"
)

const sessionContextKey = "sessionId"

// SessionMiddleware attaches a session id to every request. A missing,
// expired or forged cookie starts a new session. The cookie is re-issued once
// less than half of its lifetime remains.
func SessionMiddleware(cfg *config.Config) gin.HandlerFunc {
	ttl := cfg.Session.TTL()
	if ttl <= 0 {
		ttl = time.Hour
	}
	return func(c *gin.Context) {
		var sessionID string
		refresh := true

		if raw, err := c.Cookie(cfg.Server.CookieName); err == nil && raw != "" {
			if claims, err := ParseJWT(cfg.Server.SessionSecret, raw); err == nil {
				sessionID = claims.SessionID
				if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) > ttl/2 {
					refresh = false
				}
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			log.Printf("[Session] Started session %s", sessionID)
		}

		if refresh {
			token, err := GenerateJWT(cfg.Server.SessionSecret, sessionID, ttl)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to issue session"}})
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.Server.CookieName, token, int(ttl.Seconds()), cookiePath(cfg.Server.Subpath), "", false, true)
		}

		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}

// SessionID returns the id set by SessionMiddleware
func SessionID(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}

func cookiePath(subpath string) string {
	if subpath == "" {
		return "/"
	}
	return subpath
}
