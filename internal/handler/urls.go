package handlers

import (
	"VoiceShelf/internal/models"
	"VoiceShelf/internal/studio"
	"VoiceShelf/pkg/config"
	"VoiceShelf/pkg/i18n"
	"VoiceShelf/pkg/middleware"
	"VoiceShelf/pkg/sse"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handlers struct {
	db     *gorm.DB
	studio *studio.Studio
	i18n   *i18n.I18nSupport
	// limit guards the endpoints that call the speech provider
	limit  gin.HandlerFunc
	events *sse.Hub
}

// NewHandlers wires the HTTP layer. limit may be nil.
func NewHandlers(db *gorm.DB, st *studio.Studio, tr *i18n.I18nSupport, limit gin.HandlerFunc) *Handlers {
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	return &Handlers{
		db:     db,
		studio: st,
		i18n:   tr,
		limit:  limit,
	}
}

// WithEvents enables GET /collections/events.
func (h *Handlers) WithEvents(hub *sse.Hub) *Handlers {
	h.events = hub
	return h
}

// Register mounts every route under APIPrefix. The engine must already run
// the sessions middleware.
func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	// Register Global Singleton DB
	r.Use(middleware.InjectDB(h.db))
	r.Use(models.SessionLanguage(), middleware.LanguageMiddleware(h.i18n))

	h.registerSystemRoutes(r)
	h.registerAuthRoutes(r)
	h.registerProfileRoutes(r)
	h.registerSpeechRoutes(r)
	h.registerCollectionRoutes(r)
}

func (h *Handlers) authRequired() gin.HandlerFunc {
	return models.AuthRequired(func(c *gin.Context) {
		h.fail(c, studio.ErrUnauthenticated)
	})
}

// User Module
func (h *Handlers) registerAuthRoutes(r *gin.RouterGroup) {
	auth := r.Group(config.GlobalConfig.AuthPrefix)
	{
		auth.POST("/register", h.handleUserSignup)

		auth.POST("/login", h.handleUserSignin)

		auth.GET("/logout", h.authRequired(), h.handleUserLogout)

		auth.GET("/info", h.authRequired(), h.handleUserInfo)
	}
}

func (h *Handlers) registerProfileRoutes(r *gin.RouterGroup) {
	profile := r.Group("profile")
	profile.Use(h.authRequired())
	{
		profile.GET("", h.handleGetProfile)

		profile.PUT("", h.handleUpdateProfile)

		profile.PUT("/token", h.handleSetBotnoiToken)

		profile.GET("/preferences", h.handleGetPreferences)

		profile.PUT("/preferences", h.handleUpdatePreferences)
	}
}

func (h *Handlers) registerSpeechRoutes(r *gin.RouterGroup) {
	speech := r.Group("speech")
	speech.Use(h.authRequired())
	{
		speech.POST("/extract", h.handleExtract)

		speech.POST("/generate", h.limit, h.handleGenerate)
	}
}

func (h *Handlers) registerCollectionRoutes(r *gin.RouterGroup) {
	collections := r.Group("collections")
	collections.Use(h.authRequired())
	{
		collections.GET("", h.handleListCollections)

		collections.POST("", h.handleCreateCollection)

		collections.GET("/search", h.handleSearchCollections)

		if h.events != nil {
			collections.GET("/events", h.handleCollectionEvents)
		}

		collections.POST("/delete", h.handleBulkDelete)

		collections.GET("/:id", h.handleGetCollection)

		collections.PUT("/:id", h.handleUpdateCollection)

		collections.DELETE("/:id", h.handleDeleteCollection)

		collections.POST("/:id/generate", h.limit, h.handleRegenerate)

		collections.POST("/:id/cover", h.handleUploadCover)
	}
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.GET("/health", h.HealthCheck)
	}
}
