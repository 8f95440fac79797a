package studio

import (
	"context"
	"fmt"
	"time"

	"VoiceShelf/internal/models"
	"VoiceShelf/pkg/cache"
	"VoiceShelf/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CredentialStore reads the Botnoi token from the user's profile and keeps
// it in the cache for ttl.
type CredentialStore struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
}

// NewCredentialStore builds a store. A nil cache reads the database every time.
func NewCredentialStore(db *gorm.DB, c cache.Cache, ttl time.Duration) *CredentialStore {
	return &CredentialStore{db: db, cache: c, ttl: ttl}
}

func credentialKey(userID uint) string {
	return fmt.Sprintf("botnoi_token:%d", userID)
}

// Get returns the token, or "" when the user has not set one.
func (s *CredentialStore) Get(ctx context.Context, userID uint) (string, error) {
	key := credentialKey(userID)
	if s.cache != nil {
		if tok, ok := cache.GetString(ctx, s.cache, key); ok && tok != "" {
			return tok, nil
		}
	}

	p, err := models.GetProfile(s.db.WithContext(ctx), userID)
	if err != nil {
		return "", err
	}
	if s.cache != nil && p.BotnoiToken != "" {
		if err := s.cache.Set(ctx, key, p.BotnoiToken, s.ttl); err != nil {
			logger.Warn("cache botnoi token failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return p.BotnoiToken, nil
}

// Set stores token and drops the cached copy.
func (s *CredentialStore) Set(ctx context.Context, userID uint, token string) error {
	if err := models.SetBotnoiToken(s.db.WithContext(ctx), userID, token); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, credentialKey(userID)); err != nil {
			logger.Warn("evict botnoi token failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return nil
}
