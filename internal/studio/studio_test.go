package studio

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"VoiceShelf/internal/document"
	"VoiceShelf/internal/listeners"
	"VoiceShelf/internal/models"
	"VoiceShelf/internal/speech"
	"VoiceShelf/pkg/botnoi"
	"VoiceShelf/pkg/cache"
	"VoiceShelf/pkg/search"
	"VoiceShelf/pkg/storage"
	"VoiceShelf/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	mu      sync.Mutex
	calls   []speech.Request
	url     string
	err     error
	started chan struct{}
	block   chan struct{}
}

func (f *fakeSynth) Synthesize(ctx context.Context, req speech.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.url, f.err
}

func (f *fakeSynth) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fixture struct {
	studio *Studio
	sess   Session
	sig    *util.Signals
	opts   Options
}

func newFixture(t *testing.T, synth speech.Synthesizer, mutate ...func(*Options)) *fixture {
	t.Helper()
	db, err := util.InitDatabase(nil, "sqlite", "")
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	user, err := models.CreateUser(db, "reader@example.com", "secret", "reader")
	require.NoError(t, err)
	pref, err := models.GetPreferences(db, user.ID)
	require.NoError(t, err)

	pipeline, err := document.NewPipeline(document.Options{CacheSize: 8})
	require.NoError(t, err)

	c := cache.NewGoCache(cache.LocalConfig{DefaultExpiration: time.Minute, CleanupInterval: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	sig := util.NewSignals()
	opts := Options{
		DB:          db,
		Extractor:   pipeline,
		Synthesizer: synth,
		Credentials: NewCredentialStore(db, c, time.Minute),
		Guard:       c,
		Signals:     sig,
		Timeout:     time.Second,
	}
	for _, m := range mutate {
		m(&opts)
	}
	s := New(opts)
	require.NoError(t, s.Credentials().Set(context.Background(), user.ID, "token-1"))
	return &fixture{studio: s, sess: Session{User: user, Preferences: pref}, sig: sig, opts: opts}
}

func voice() speech.VoiceParameters { return speech.DefaultVoice() }

func TestUnauthenticated(t *testing.T) {
	f := newFixture(t, &fakeSynth{url: "https://x/a.mp3"})
	_, err := f.studio.Generate(context.Background(), Session{}, GenerateInput{Text: "hi", Voice: voice()})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.studio.List(context.Background(), Session{}, models.CollectionQuery{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestExtractHelloWorld(t *testing.T) {
	f := newFixture(t, &fakeSynth{})
	res, err := f.studio.Extract(context.Background(), f.sess, document.Upload{
		Filename: "greeting.txt", ContentType: "text/plain", Data: []byte("Hello world"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, "greeting", res.Title)
	assert.Equal(t, 11, res.Chars)

	_, err = f.studio.Extract(context.Background(), f.sess, document.Upload{Filename: "a.png", ContentType: "image/png", Data: []byte{1}})
	var exErr *document.ExtractionError
	assert.ErrorAs(t, err, &exErr)
}

func TestGenerateValidation(t *testing.T) {
	synth := &fakeSynth{url: "https://x/a.mp3"}
	f := newFixture(t, synth)
	ctx := context.Background()

	_, err := f.studio.Generate(ctx, f.sess, GenerateInput{Text: "  \n ", Voice: voice()})
	assert.ErrorIs(t, err, speech.ErrEmptyText)

	v := voice()
	v.Speed = 3.5
	_, err = f.studio.Generate(ctx, f.sess, GenerateInput{Text: "hello", Voice: v})
	assert.ErrorIs(t, err, speech.ErrInvalidParameter)

	require.NoError(t, f.studio.Credentials().Set(ctx, f.sess.User.ID, ""))
	_, err = f.studio.Generate(ctx, f.sess, GenerateInput{Text: "hello", Voice: voice()})
	assert.ErrorIs(t, err, speech.ErrMissingCredential)

	assert.Zero(t, synth.count())
}

func TestGenerateAndSaveChecksTitleBeforeSynthesis(t *testing.T) {
	synth := &fakeSynth{url: "https://x/a.mp3"}
	f := newFixture(t, synth)

	_, err := f.studio.GenerateAndSave(context.Background(), f.sess, GenerateInput{Text: "hello", Voice: voice()}, SaveInput{Title: " "})
	assert.ErrorIs(t, err, models.ErrTitleRequired)
	_, err = f.studio.GenerateAndSave(context.Background(), f.sess, GenerateInput{Text: "hello", Voice: voice()}, SaveInput{Title: "T", Category: "Cooking"})
	assert.ErrorIs(t, err, models.ErrInvalidCategory)
	assert.Zero(t, synth.count())
}

func TestGenerateAndSaveStoresAudio(t *testing.T) {
	synth := &fakeSynth{url: "https://cdn.example/abc.mp3"}
	f := newFixture(t, synth)
	var saved []string
	f.sig.Connect(models.SigCollectionSaved, func(sender any, _ ...any) {
		saved = append(saved, sender.(*models.VoiceCollection).ID)
	})

	vc, err := f.studio.GenerateAndSave(context.Background(), f.sess,
		GenerateInput{Text: "  once upon a time ", Voice: voice(), Format: "mp3"},
		SaveInput{Title: "Fairy tale", Category: "fiction"})
	require.NoError(t, err)
	require.NotNil(t, vc.AudioURL)
	assert.Equal(t, "https://cdn.example/abc.mp3", *vc.AudioURL)
	assert.Equal(t, "once upon a time", vc.OriginalText)
	assert.Equal(t, "Fiction", vc.Category)
	assert.True(t, vc.Generated)
	assert.Equal(t, []string{vc.ID}, saved)
	assert.Equal(t, "token-1", synth.calls[0].Credential)
}

func TestProviderUnauthorizedCreatesNoRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid token"}`))
	}))
	defer srv.Close()

	synth := speech.NewRemoteSynthesizer(botnoi.NewClient(srv.URL, time.Second, nil), nil)
	f := newFixture(t, synth)

	_, err := f.studio.GenerateAndSave(context.Background(), f.sess,
		GenerateInput{Text: "hello", Voice: voice()}, SaveInput{Title: "Hello"})
	var remote *botnoi.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnauthorized, remote.Status)
	assert.Contains(t, remote.Body, "invalid token")

	rows, err := f.studio.List(context.Background(), f.sess, models.CollectionQuery{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRetriggerWhilePendingIsRejected(t *testing.T) {
	synth := &fakeSynth{url: "https://x/a.mp3", started: make(chan struct{}, 4), block: make(chan struct{})}
	f := newFixture(t, synth)
	ctx := context.Background()
	in := GenerateInput{Text: "same text", Voice: voice()}

	type outcome struct {
		url string
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		url, err := f.studio.Generate(ctx, f.sess, in)
		first <- outcome{url, err}
	}()
	<-synth.started

	_, err := f.studio.Generate(ctx, f.sess, in)
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	// different settings are a different request
	other := in
	other.Voice.Speaker = "2"
	otherDone := make(chan error, 1)
	go func() {
		_, err := f.studio.Generate(ctx, f.sess, other)
		otherDone <- err
	}()
	<-synth.started

	close(synth.block)
	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, "https://x/a.mp3", res.url)
	require.NoError(t, <-otherDone)

	// released once finished
	_, err = f.studio.Generate(ctx, f.sess, in)
	assert.NoError(t, err)
}

func TestRegenerateWhilePendingIsRejected(t *testing.T) {
	synth := &fakeSynth{url: "https://x/new.mp3", started: make(chan struct{}, 4), block: make(chan struct{})}
	f := newFixture(t, synth)
	ctx := context.Background()

	vc, err := f.studio.Save(ctx, f.sess, models.CollectionInput{Title: "Draft", Text: "stored text", Voice: voice()})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.studio.Regenerate(ctx, f.sess, vc.ID, voice(), "mp3")
		done <- err
	}()
	<-synth.started

	v := voice()
	v.Speed = 2
	_, err = f.studio.Regenerate(ctx, f.sess, vc.ID, v, "mp3")
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	close(synth.block)
	require.NoError(t, <-done)
}

func TestRegenerateKeepsTextAndTitle(t *testing.T) {
	synth := &fakeSynth{url: "https://x/new.mp3"}
	f := newFixture(t, synth)
	ctx := context.Background()

	vc, err := f.studio.Save(ctx, f.sess, models.CollectionInput{Title: "Draft", Text: "stored text", Voice: voice()})
	require.NoError(t, err)
	assert.False(t, vc.Generated)

	v := voice()
	v.Speaker = "3"
	v.Speed = 1.5
	got, err := f.studio.Regenerate(ctx, f.sess, vc.ID, v, "wav")
	require.NoError(t, err)
	require.NotNil(t, got.AudioURL)
	assert.Equal(t, "https://x/new.mp3", *got.AudioURL)
	assert.Equal(t, "Draft", got.Title)
	assert.Equal(t, "stored text", got.OriginalText)
	assert.Equal(t, "3", got.Speaker)
	assert.Equal(t, 1.5, got.Speed)
	assert.True(t, vc.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, "stored text", synth.calls[0].Text)
	assert.Equal(t, "wav", synth.calls[0].OutputFormat)

	_, err = f.studio.Regenerate(ctx, f.sess, "missing", v, "mp3")
	assert.ErrorIs(t, err, models.ErrCollectionNotFound)
}

func TestProviderFailureLeavesRecordUngenerated(t *testing.T) {
	synth := &fakeSynth{err: &botnoi.TimeoutError{After: time.Second}}
	f := newFixture(t, synth)
	ctx := context.Background()

	vc, err := f.studio.Save(ctx, f.sess, models.CollectionInput{Title: "Draft", Text: "text", Voice: voice()})
	require.NoError(t, err)
	_, err = f.studio.Regenerate(ctx, f.sess, vc.ID, voice(), "mp3")
	var timeout *botnoi.TimeoutError
	require.ErrorAs(t, err, &timeout)

	got, err := f.studio.Get(ctx, f.sess, vc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AudioURL)
}

func TestDeleteManyEmitsOnlyOnSuccess(t *testing.T) {
	f := newFixture(t, &fakeSynth{})
	ctx := context.Background()
	var deleted [][]any
	f.sig.Connect(models.SigCollectionDeleted, func(_ any, params ...any) {
		deleted = append(deleted, params)
	})

	a, err := f.studio.Save(ctx, f.sess, models.CollectionInput{Title: "A", Text: "a", Voice: voice()})
	require.NoError(t, err)
	b, err := f.studio.Save(ctx, f.sess, models.CollectionInput{Title: "B", Text: "b", Voice: voice()})
	require.NoError(t, err)

	_, err = f.studio.DeleteMany(ctx, f.sess, []string{a.ID, b.ID, "ghost"})
	var bulk *models.BulkDeleteError
	require.ErrorAs(t, err, &bulk)
	assert.Equal(t, []string{"ghost"}, bulk.Missing)
	assert.Empty(t, deleted)

	n, err := f.studio.DeleteMany(ctx, f.sess, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][]any{{a.ID, b.ID}}, deleted)
}

func TestCredentialCacheIsInvalidated(t *testing.T) {
	f := newFixture(t, &fakeSynth{})
	ctx := context.Background()
	creds := f.studio.Credentials()
	uid := f.sess.User.ID

	tok, err := creds.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	require.NoError(t, creds.Set(ctx, uid, "token-2"))
	tok, err = creds.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
}

func TestSearchWithIndexAndFallback(t *testing.T) {
	ctx := context.Background()

	plain := newFixture(t, &fakeSynth{})
	_, err := plain.studio.Save(ctx, plain.sess, models.CollectionInput{Title: "Ocean Tales", Text: "waves", Voice: voice()})
	require.NoError(t, err)
	rows, err := plain.studio.Search(ctx, plain.sess, "ocean", 0, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.False(t, plain.studio.SearchEnabled())

	engine, err := search.New(search.Config{}, search.BuildIndexMapping(), search.CollectionSearchFields)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	indexed := newFixture(t, &fakeSynth{}, func(o *Options) { o.Search = engine })
	listeners.InitCollectionListeners(indexed.sig, engine)

	vc, err := indexed.studio.Save(ctx, indexed.sess, models.CollectionInput{Title: "Mountain Diary", Text: "snow and wind", Voice: voice()})
	require.NoError(t, err)
	rows, err = indexed.studio.Search(ctx, indexed.sess, "snow", 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, vc.ID, rows[0].ID)

	require.NoError(t, indexed.studio.Delete(ctx, indexed.sess, vc.ID))
	rows, err = indexed.studio.Search(ctx, indexed.sess, "snow", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSetCover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeSynth{})
	_, err := f.studio.SetCover(ctx, f.sess, "x", "image/png", bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrStorageDisabled)

	store, err := storage.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	f = newFixture(t, &fakeSynth{}, func(o *Options) { o.Storage = store })

	vc, err := f.studio.Save(ctx, f.sess, models.CollectionInput{Title: "Cover me", Text: "t", Voice: voice()})
	require.NoError(t, err)

	_, err = f.studio.SetCover(ctx, f.sess, vc.ID, "application/pdf", bytes.NewReader([]byte("x")), 1)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	img := []byte("\x89PNG fake")
	got, err := f.studio.SetCover(ctx, f.sess, vc.ID, "image/png", bytes.NewReader(img), int64(len(img)))
	require.NoError(t, err)
	require.NotNil(t, got.CoverImageURL)
	assert.Equal(t, "/media/covers/1/"+vc.ID+".png", *got.CoverImageURL)

	ok, err := store.Exists(ctx, "covers/1/"+vc.ID+".png")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.studio.SetCover(ctx, f.sess, "missing", "image/png", bytes.NewReader(img), int64(len(img)))
	assert.True(t, errors.Is(err, models.ErrCollectionNotFound))
}
