package middleware

import (
	"VoiceShelf/pkg/i18n"

	"github.com/gin-gonic/gin"
)

const (
	// LangKey holds the resolved UI language on the gin context.
	LangKey = "lang"
	// UserIDKey is set by the session middleware for signed-in users.
	UserIDKey = "user_id"
	// PreferredLangKey may be set by an earlier middleware from stored
	// user preferences.
	PreferredLangKey = "preferred_lang"
)

// LanguageMiddleware resolves the response language: the stored
// preference, then ?lang=, then Accept-Language, then the default.
func LanguageMiddleware(i18nSupport *i18n.I18nSupport) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := i18nSupport.DefaultLanguage()
		if p := c.GetString(PreferredLangKey); p != "" && i18nSupport.Supported(p) {
			lang = p
		} else if q := c.Query("lang"); q != "" && i18nSupport.Supported(q) {
			lang = q
		} else if h := c.GetHeader("Accept-Language"); h != "" {
			lang = h
		}

		c.Set(LangKey, lang)
		c.Next()
	}
}

// Lang returns the language set by LanguageMiddleware, or "" when absent.
func Lang(c *gin.Context) string {
	return c.GetString(LangKey)
}
