package models

import (
	"VoiceShelf/pkg/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

const (
	UserField        = "_voiceshelf_uid"
	sessionLangField = "_voiceshelf_lang"
)

// Login starts a session for user and remembers their language preference.
func Login(c *gin.Context, user *User, pref *UserPreference) error {
	session := sessions.Default(c)
	session.Set(UserField, user.ID)
	if pref != nil && pref.DefaultLanguage != "" {
		session.Set(sessionLangField, pref.DefaultLanguage)
	} else {
		session.Delete(sessionLangField)
	}
	if err := session.Save(); err != nil {
		return err
	}
	c.Set(UserField, user)
	return nil
}

// RememberLanguage updates the language kept in the session.
func RememberLanguage(c *gin.Context, lang string) error {
	session := sessions.Default(c)
	if lang == "" {
		session.Delete(sessionLangField)
	} else {
		session.Set(sessionLangField, lang)
	}
	return session.Save()
}

func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	c.Set(UserField, nil)
	return session.Save()
}

// SessionLanguage exposes the stored language to middleware.LanguageMiddleware.
func SessionLanguage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if lang := cast.ToString(sessions.Default(c).Get(sessionLangField)); lang != "" {
			c.Set(middleware.PreferredLangKey, lang)
		}
		c.Next()
	}
}

// CurrentUser returns the signed-in user set by AuthRequired, or nil.
func CurrentUser(c *gin.Context) *User {
	if v, ok := c.Get(UserField); ok {
		if u, ok := v.(*User); ok {
			return u
		}
	}
	return nil
}

// AuthRequired loads the session user from the injected database. Requests
// without a valid session are handed to onDenied, which must abort.
func AuthRequired(onDenied gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		uid := cast.ToUint(sessions.Default(c).Get(UserField))
		db := middleware.DB(c)
		if uid == 0 || db == nil {
			onDenied(c)
			return
		}
		user, err := GetUserByID(db, uid)
		if err != nil {
			// deleted user or store failure; either way the session is unusable
			onDenied(c)
			return
		}
		c.Set(UserField, user)
		c.Set(middleware.UserIDKey, user.ID)
		c.Next()
	}
}
