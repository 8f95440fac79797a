package handlers

import (
	"context"
	"errors"
	"net/http"

	"VoiceShelf/internal/document"
	"VoiceShelf/internal/models"
	"VoiceShelf/internal/speech"
	"VoiceShelf/internal/studio"
	"VoiceShelf/pkg/botnoi"
	apperr "VoiceShelf/pkg/errors"
	"VoiceShelf/pkg/logger"
	"VoiceShelf/pkg/middleware"
	"VoiceShelf/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// failure is how one error is shown to the user.
type failure struct {
	status int
	key    string
	tmpl   map[string]interface{}
	data   any
}

func classify(err error) failure {
	var (
		extractErr *document.ExtractionError
		validErr   *speech.ValidationError
		remote     *botnoi.RemoteError
		malformed  *botnoi.MalformedResponseError
		timeout    *botnoi.TimeoutError
		bulk       *models.BulkDeleteError
		persist    *models.PersistenceError
	)
	switch {
	case errors.Is(err, studio.ErrUnauthenticated):
		return failure{status: http.StatusUnauthorized, key: "login_required"}
	case errors.Is(err, studio.ErrGenerationInProgress):
		return failure{status: http.StatusConflict, key: "generation_in_progress"}

	case errors.As(err, &extractErr):
		switch {
		case errors.Is(err, document.ErrUnsupportedFormat):
			return failure{status: http.StatusUnprocessableEntity, key: "unsupported_file_type"}
		case errors.Is(err, document.ErrTooLarge):
			return failure{status: http.StatusUnprocessableEntity, key: "file_too_large"}
		}
		return failure{status: http.StatusUnprocessableEntity, key: "extraction_failed"}

	case errors.As(err, &validErr):
		switch {
		case errors.Is(err, speech.ErrEmptyText):
			return failure{status: http.StatusBadRequest, key: "empty_text"}
		case errors.Is(err, speech.ErrMissingCredential):
			return failure{status: http.StatusBadRequest, key: "missing_credential"}
		}
		return failure{
			status: http.StatusBadRequest,
			key:    "invalid_parameter",
			tmpl:   map[string]interface{}{"Field": validErr.Field},
			data:   gin.H{"field": validErr.Field},
		}
	case errors.Is(err, models.ErrTitleRequired):
		return failure{status: http.StatusBadRequest, key: "title_required"}
	case errors.Is(err, models.ErrTextRequired):
		return failure{status: http.StatusBadRequest, key: "empty_text"}
	case errors.Is(err, models.ErrInvalidCategory):
		return failure{
			status: http.StatusBadRequest,
			key:    "invalid_parameter",
			tmpl:   map[string]interface{}{"Field": "category"},
			data:   gin.H{"field": "category", "allowed": models.Categories},
		}

	case errors.As(err, &remote):
		return failure{
			status: http.StatusBadGateway,
			key:    "remote_error",
			tmpl:   map[string]interface{}{"Status": remote.Status, "Body": remote.Body},
			data:   gin.H{"status": remote.Status, "body": remote.Body},
		}
	case errors.As(err, &malformed):
		return failure{status: http.StatusBadGateway, key: "malformed_response"}
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return failure{status: http.StatusGatewayTimeout, key: "synthesis_timeout"}

	case errors.Is(err, models.ErrCollectionNotFound):
		return failure{status: http.StatusNotFound, key: "collection_not_found"}
	case errors.As(err, &bulk):
		return failure{
			status: http.StatusNotFound,
			key:    "bulk_delete_rejected",
			tmpl:   map[string]interface{}{"Count": len(bulk.Missing)},
			data:   gin.H{"missing": bulk.Missing},
		}

	case errors.Is(err, models.ErrEmailTaken):
		return failure{status: http.StatusConflict, key: "email_taken"}
	case errors.Is(err, models.ErrInvalidCredentials):
		return failure{status: http.StatusUnauthorized, key: "invalid_credentials"}
	case errors.Is(err, studio.ErrUnsupportedImage):
		return failure{status: http.StatusUnprocessableEntity, key: "unsupported_file_type"}

	case errors.As(err, &persist):
		return failure{status: http.StatusInternalServerError, key: "persistence_error"}
	}
	return failure{status: http.StatusInternalServerError, key: "internal_error"}
}

// fail answers with the localized message for err.
func (h *Handlers) fail(c *gin.Context, err error) {
	f := classify(err)
	msg := h.i18n.T(middleware.Lang(c), f.key, f.tmpl)
	wrapped := apperr.Wrap(err, f.status, f.key)
	if f.status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", f.status),
			zap.Error(err),
			zap.String("stack", apperr.GetStack(wrapped)))
	}
	response.AbortWithError(c, wrapped, msg, f.data)
}

// failKey answers with a fixed status and message key.
func (h *Handlers) failKey(c *gin.Context, status int, key string, tmpl map[string]interface{}) {
	response.AbortWithStatus(c, status, h.i18n.T(middleware.Lang(c), key, tmpl), nil)
}

func (h *Handlers) t(c *gin.Context, key string, tmpl map[string]interface{}) string {
	return h.i18n.T(middleware.Lang(c), key, tmpl)
}

// session builds the studio session for the signed-in user.
func (h *Handlers) session(c *gin.Context) studio.Session {
	user := models.CurrentUser(c)
	if user == nil {
		return studio.Session{}
	}
	pref, err := models.GetPreferences(h.db.WithContext(c.Request.Context()), user.ID)
	if err != nil {
		logger.Warn("load preferences failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return studio.Session{User: user, Preferences: pref}
}
