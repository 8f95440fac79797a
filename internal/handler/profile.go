package handlers

import (
	"net/http"
	"strings"

	"VoiceShelf/internal/models"
	"VoiceShelf/pkg/response"

	"github.com/gin-gonic/gin"
)

type tokenForm struct {
	Token string `json:"token"`
}

// preferencesForm is a partial update; nil fields are kept.
type preferencesForm struct {
	AccentColor     *string `json:"accentColor"`
	DarkMode        *bool   `json:"darkMode"`
	DefaultLanguage *string `json:"defaultLanguage"`
}

func (h *Handlers) handleGetProfile(c *gin.Context) {
	profile, err := models.GetProfile(h.db, models.CurrentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "ok", nil), profile)
}

func (h *Handlers) handleUpdateProfile(c *gin.Context) {
	var upd models.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	profile, err := models.UpdateProfile(h.db, models.CurrentUser(c).ID, upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "profile_updated", nil), profile)
}

func (h *Handlers) handleSetBotnoiToken(c *gin.Context) {
	var form tokenForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	token := strings.TrimSpace(form.Token)
	if err := h.studio.Credentials().Set(c.Request.Context(), models.CurrentUser(c).ID, token); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "api_keys_saved", nil), gin.H{"hasBotnoiToken": token != ""})
}

func (h *Handlers) handleGetPreferences(c *gin.Context) {
	pref, err := models.GetPreferences(h.db, models.CurrentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "ok", nil), pref)
}

func (h *Handlers) handleUpdatePreferences(c *gin.Context) {
	var form preferencesForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	pref, err := models.GetPreferences(h.db, models.CurrentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if form.AccentColor != nil {
		pref.AccentColor = strings.TrimSpace(*form.AccentColor)
	}
	if form.DarkMode != nil {
		pref.DarkMode = *form.DarkMode
	}
	if form.DefaultLanguage != nil {
		lang := strings.ToLower(strings.TrimSpace(*form.DefaultLanguage))
		if lang != "" && !h.i18n.Supported(lang) {
			h.failKey(c, http.StatusBadRequest, "invalid_parameter", map[string]interface{}{"Field": "defaultLanguage"})
			return
		}
		pref.DefaultLanguage = lang
	}
	if err := models.SavePreferences(h.db, pref); err != nil {
		h.fail(c, err)
		return
	}
	if err := models.RememberLanguage(c, pref.DefaultLanguage); err != nil {
		h.fail(c, err)
		return
	}

	lang := pref.DefaultLanguage
	if lang == "" {
		lang = h.i18n.DefaultLanguage()
	}
	response.Success(c, h.i18n.T(lang, "preferences_updated", nil), pref)
}
