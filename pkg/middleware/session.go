package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const SessionName = "voiceshelf"

// NewSessionStore 返回登录会话使用的 cookie store.
// Secure is left off so sessions also work behind plain HTTP; put TLS in
// front of the service in production.
func NewSessionStore(secret string, expireDays int) sessions.Store {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   expireDays * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// Sessions installs the cookie session under SessionName.
func Sessions(secret string, expireDays int) gin.HandlerFunc {
	return sessions.Sessions(SessionName, NewSessionStore(secret, expireDays))
}
