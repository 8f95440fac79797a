package handlers

import (
	"net/http"
	"strings"

	"VoiceShelf/internal/models"
	"VoiceShelf/pkg/logger"
	"VoiceShelf/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RegisterUserForm struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

type LoginForm struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) handleUserSignup(c *gin.Context) {
	var form RegisterUserForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	user, err := models.CreateUser(h.db, form.Email, form.Password, form.Username)
	if err != nil {
		h.fail(c, err)
		return
	}
	pref, err := models.GetPreferences(h.db, user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := models.Login(c, user, pref); err != nil {
		h.fail(c, err)
		return
	}
	logger.Info("user registered", zap.Uint("user_id", user.ID))
	response.Created(c, h.t(c, "registered", nil), gin.H{"user": user, "preferences": pref})
}

func (h *Handlers) handleUserSignin(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	user, err := models.Authenticate(h.db, strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	pref, err := models.GetPreferences(h.db, user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := models.Login(c, user, pref); err != nil {
		h.fail(c, err)
		return
	}
	lang := pref.DefaultLanguage
	if lang == "" {
		lang = h.i18n.DefaultLanguage()
	}
	response.Success(c, h.i18n.T(lang, "logged_in", nil), gin.H{"user": user, "preferences": pref})
}

func (h *Handlers) handleUserLogout(c *gin.Context) {
	msg := h.t(c, "logged_out", nil)
	if err := models.Logout(c); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, msg, nil)
}

func (h *Handlers) handleUserInfo(c *gin.Context) {
	user := models.CurrentUser(c)
	profile, err := models.GetProfile(h.db, user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	pref, err := models.GetPreferences(h.db, user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "ok", nil), gin.H{
		"user":        user,
		"profile":     profile,
		"preferences": pref,
	})
}
