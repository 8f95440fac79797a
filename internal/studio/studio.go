// Package studio runs the user-facing workflows: extract a document, turn
// text into speech and keep the results as voice collections.
package studio

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"VoiceShelf/internal/document"
	"VoiceShelf/internal/models"
	"VoiceShelf/internal/speech"
	"VoiceShelf/pkg/botnoi"
	"VoiceShelf/pkg/cache"
	"VoiceShelf/pkg/logger"
	"VoiceShelf/pkg/metrics"
	"VoiceShelf/pkg/search"
	"VoiceShelf/pkg/storage"
	"VoiceShelf/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"lukechampine.com/blake3"
)

// guardMargin keeps the in-progress marker a little longer than the provider
// deadline so a slow release never lets a duplicate through.
const guardMargin = 10 * time.Second

// Session is the signed-in user with the preferences loaded at sign-in.
type Session struct {
	User        *models.User
	Preferences *models.UserPreference
}

func (s Session) owner() (uint, error) {
	if s.User == nil || s.User.ID == 0 {
		return 0, ErrUnauthenticated
	}
	return s.User.ID, nil
}

type Options struct {
	DB          *gorm.DB
	Extractor   *document.Pipeline
	Synthesizer speech.Synthesizer
	Credentials *CredentialStore
	// Guard holds in-progress generation markers; nil disables the check.
	Guard cache.Cache
	// Search is optional; without it search falls back to a database scan.
	Search  search.Engine
	Storage storage.Store
	Signals *util.Signals
	Metrics *metrics.Metrics
	// Timeout is the provider deadline, used to size the guard TTL.
	Timeout time.Duration
}

type Studio struct {
	db      *gorm.DB
	extract *document.Pipeline
	synth   speech.Synthesizer
	creds   *CredentialStore
	guard   cache.Cache
	search  search.Engine
	store   storage.Store
	signals *util.Signals
	metrics *metrics.Metrics
	timeout time.Duration
}

func New(opts Options) *Studio {
	if opts.Signals == nil {
		opts.Signals = util.Sig()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = botnoi.DefaultTimeout
	}
	if opts.Credentials == nil {
		opts.Credentials = NewCredentialStore(opts.DB, nil, 0)
	}
	return &Studio{
		db:      opts.DB,
		extract: opts.Extractor,
		synth:   opts.Synthesizer,
		creds:   opts.Credentials,
		guard:   opts.Guard,
		search:  opts.Search,
		store:   opts.Storage,
		signals: opts.Signals,
		metrics: opts.Metrics,
		timeout: opts.Timeout,
	}
}

func (s *Studio) Credentials() *CredentialStore { return s.creds }

// SearchEnabled reports whether full-text search is backed by an index.
func (s *Studio) SearchEnabled() bool { return s.search != nil }

// Extract reads the text of an uploaded file.
func (s *Studio) Extract(ctx context.Context, sess Session, u document.Upload) (document.Result, error) {
	if _, err := sess.owner(); err != nil {
		return document.Result{}, err
	}
	select {
	case res := <-s.extract.ExtractAsync(ctx, u):
		err := res.Err
		res.Err = nil
		return res, err
	case <-ctx.Done():
		return document.Result{}, ctx.Err()
	}
}

// GenerateInput is text plus the sound settings to read it with.
type GenerateInput struct {
	Text   string
	Voice  speech.VoiceParameters
	Format string
}

// Generate synthesizes speech for unsaved text and returns the audio URL.
func (s *Studio) Generate(ctx context.Context, sess Session, in GenerateInput) (string, error) {
	owner, err := sess.owner()
	if err != nil {
		return "", err
	}
	req, err := s.buildRequest(ctx, owner, in)
	if err != nil {
		return "", err
	}
	release, err := s.acquire(ctx, textGuardKey(owner, req))
	if err != nil {
		return "", err
	}
	defer release()
	return s.synth.Synthesize(ctx, req)
}

// SaveInput holds the descriptive fields of a new collection.
type SaveInput struct {
	Title         string
	Category      string
	BookSeries    string
	CoverImageURL string
}

// GenerateAndSave synthesizes and then stores the record with its audio.
// Nothing is stored when synthesis fails.
func (s *Studio) GenerateAndSave(ctx context.Context, sess Session, in GenerateInput, meta SaveInput) (*models.VoiceCollection, error) {
	owner, err := sess.owner()
	if err != nil {
		return nil, err
	}
	req, err := s.buildRequest(ctx, owner, in)
	if err != nil {
		return nil, err
	}
	// fail before spending a provider call
	if err := checkSaveInput(meta); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, textGuardKey(owner, req))
	if err != nil {
		return nil, err
	}
	defer release()

	audioURL, err := s.synth.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, owner, models.CollectionInput{
		Title:         meta.Title,
		Text:          req.Text,
		AudioURL:      audioURL,
		Voice:         req.Voice,
		Category:      meta.Category,
		BookSeries:    meta.BookSeries,
		CoverImageURL: meta.CoverImageURL,
	})
}

// Regenerate synthesizes the stored text of a record with new settings and
// replaces only its audio and sound settings.
func (s *Studio) Regenerate(ctx context.Context, sess Session, id string, voice speech.VoiceParameters, format string) (*models.VoiceCollection, error) {
	owner, err := sess.owner()
	if err != nil {
		return nil, err
	}
	rec, err := models.GetCollection(s.db.WithContext(ctx), owner, id)
	if err != nil {
		return nil, err
	}
	req, err := s.buildRequest(ctx, owner, GenerateInput{Text: rec.OriginalText, Voice: voice, Format: format})
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, "gen:record:"+rec.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	audioURL, err := s.synth.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	vc, err := models.UpdateCollectionAudio(s.db.WithContext(ctx), owner, rec.ID, audioURL, req.Voice)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCollectionOperation("regenerate")
	s.signals.Emit(models.SigCollectionSaved, vc)
	return vc, nil
}

func (s *Studio) buildRequest(ctx context.Context, owner uint, in GenerateInput) (speech.Request, error) {
	token, err := s.creds.Get(ctx, owner)
	if err != nil {
		return speech.Request{}, err
	}
	return speech.Build(in.Text, in.Voice, in.Format, token)
}

// acquire marks key as in progress. A cache failure is logged and the call
// goes ahead unguarded.
func (s *Studio) acquire(ctx context.Context, key string) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}
	ok, err := s.guard.SetNX(ctx, key, time.Now().Unix(), s.timeout+guardMargin)
	if err != nil {
		logger.Warn("generation guard unavailable", zap.String("key", key), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, ErrGenerationInProgress
	}
	return func() {
		if err := s.guard.Delete(context.Background(), key); err != nil {
			logger.Warn("release generation guard failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// textGuardKey identifies unsaved text by owner and a digest of what would
// be sent to the provider.
func textGuardKey(owner uint, req speech.Request) string {
	sum := blake3.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%v\x00%s\x00%s",
		req.Text, req.Voice.Speaker, req.Voice.Volume, req.Voice.Speed, req.Voice.Language, req.OutputFormat)))
	return fmt.Sprintf("gen:text:%d:%s", owner, hex.EncodeToString(sum[:16]))
}
