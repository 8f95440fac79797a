package models

import (
	"errors"
	"testing"
	"time"

	"VoiceShelf/internal/speech"
	"VoiceShelf/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := util.InitDatabase(nil, "sqlite", "")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, owner uint, in CollectionInput) *VoiceCollection {
	t.Helper()
	if in.Voice == (speech.VoiceParameters{}) {
		in.Voice = speech.DefaultVoice()
	}
	vc, err := CreateCollection(db, owner, in)
	require.NoError(t, err)
	return vc
}

func TestUngeneratedThenAudioUpdate(t *testing.T) {
	db := newTestDB(t)

	vc := mustCreate(t, db, 1, CollectionInput{Title: " My Book ", Text: " Chapter one. ", BookSeries: "  ", CoverImageURL: ""})
	assert.NotEmpty(t, vc.ID)
	assert.Nil(t, vc.AudioURL)
	assert.Nil(t, vc.BookSeries)
	assert.Nil(t, vc.CoverImageURL)
	assert.Equal(t, CategoryUncategorized, vc.Category)
	assert.Equal(t, StatusUngenerated, vc.Status)
	assert.Equal(t, "My Book", vc.Title)
	assert.Equal(t, "Chapter one.", vc.OriginalText)

	loaded, err := GetCollection(db, 1, vc.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.AudioURL)
	assert.False(t, loaded.Generated)

	time.Sleep(5 * time.Millisecond)
	voice := speech.VoiceParameters{Speaker: "2", Volume: speech.VolumeHigh, Speed: 1.5, Language: "en"}
	updated, err := UpdateCollectionAudio(db, 1, vc.ID, "https://audio.example/1.mp3", voice)
	require.NoError(t, err)

	require.NotNil(t, updated.AudioURL)
	assert.Equal(t, "https://audio.example/1.mp3", *updated.AudioURL)
	assert.Equal(t, StatusGenerated, updated.Status)
	assert.Equal(t, voice, updated.Voice())
	assert.Equal(t, loaded.Title, updated.Title)
	assert.Equal(t, loaded.OriginalText, updated.OriginalText)
	assert.True(t, loaded.CreatedAt.Equal(updated.CreatedAt))
}

func TestCollectionsAreOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	vc := mustCreate(t, db, 1, CollectionInput{Title: "a", Text: "b"})

	_, err := GetCollection(db, 2, vc.ID)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	_, err = UpdateCollectionAudio(db, 2, vc.ID, "x", speech.DefaultVoice())
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	assert.ErrorIs(t, DeleteCollection(db, 2, vc.ID), ErrCollectionNotFound)
	assert.NoError(t, DeleteCollection(db, 1, vc.ID))
	assert.ErrorIs(t, DeleteCollection(db, 1, vc.ID), ErrCollectionNotFound)
}

func TestCreateCollectionValidation(t *testing.T) {
	db := newTestDB(t)
	_, err := CreateCollection(db, 1, CollectionInput{Title: "  ", Text: "x"})
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = CreateCollection(db, 1, CollectionInput{Title: "x", Text: "\n"})
	assert.ErrorIs(t, err, ErrTextRequired)
	_, err = CreateCollection(db, 1, CollectionInput{Title: "x", Text: "y", Category: "Poetry"})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	fast := speech.DefaultVoice()
	fast.Speed = 10
	_, err = CreateCollection(db, 1, CollectionInput{Title: "x", Text: "y", Voice: fast})
	assert.ErrorIs(t, err, speech.ErrInvalidParameter)
	var count int64
	require.NoError(t, db.Model(&VoiceCollection{}).Count(&count).Error)
	assert.Zero(t, count)

	vc, err := CreateCollection(db, 1, CollectionInput{Title: "x", Text: "y", Category: "sci-fi", AudioURL: "https://a/b.mp3", Voice: speech.DefaultVoice()})
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi", vc.Category)
	assert.True(t, vc.Generated)
}

func TestBulkDeleteAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	a := mustCreate(t, db, 1, CollectionInput{Title: "a", Text: "a"})
	b := mustCreate(t, db, 1, CollectionInput{Title: "b", Text: "b"})
	other := mustCreate(t, db, 2, CollectionInput{Title: "c", Text: "c"})

	_, err := DeleteCollections(db, 1, []string{a.ID, b.ID, "does-not-exist"})
	var bulk *BulkDeleteError
	require.True(t, errors.As(err, &bulk))
	assert.Equal(t, []string{"does-not-exist"}, bulk.Missing)

	rows, err := ListCollections(db, 1, CollectionQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 2, "nothing deleted")

	// someone else's record counts as missing
	_, err = DeleteCollections(db, 1, []string{a.ID, other.ID})
	require.True(t, errors.As(err, &bulk))
	assert.Equal(t, []string{other.ID}, bulk.Missing)

	n, err := DeleteCollections(db, 1, []string{a.ID, b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	rows, err = ListCollections(db, 1, CollectionQuery{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateCollectionDetails(t *testing.T) {
	db := newTestDB(t)
	vc := mustCreate(t, db, 1, CollectionInput{Title: "a", Text: "a", BookSeries: "Saga"})

	title, cat, series, cover := " Renamed ", "Mystery", "", "https://img/x.png"
	got, err := UpdateCollectionDetails(db, 1, vc.ID, CollectionDetails{
		Title: &title, Category: &cat, BookSeries: &series, CoverImageURL: &cover,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "Mystery", got.Category)
	assert.Nil(t, got.BookSeries)
	require.NotNil(t, got.CoverImageURL)
	assert.Equal(t, cover, *got.CoverImageURL)
	assert.Equal(t, "a", got.OriginalText)

	empty := ""
	_, err = UpdateCollectionDetails(db, 1, vc.ID, CollectionDetails{Title: &empty})
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = UpdateCollectionDetails(db, 1, "nope", CollectionDetails{})
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestListCollectionsFilterAndSort(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, 1, CollectionInput{Title: "Zebra", Text: "stripes", Category: "Education"})
	time.Sleep(5 * time.Millisecond)
	mustCreate(t, db, 1, CollectionInput{Title: "apple pie", Text: "Baking", Category: "Fiction", BookSeries: "Kitchen"})
	time.Sleep(5 * time.Millisecond)
	mustCreate(t, db, 1, CollectionInput{Title: "Moon", Text: "night", Category: "Fiction", BookSeries: "Sky"})
	mustCreate(t, db, 2, CollectionInput{Title: "Hidden", Text: "kitchen", Category: "Fiction"})

	titles := func(rows []VoiceCollection) []string {
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Title)
		}
		return out
	}

	rows, err := ListCollections(db, 1, CollectionQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Moon", "apple pie", "Zebra"}, titles(rows))

	rows, err = ListCollections(db, 1, CollectionQuery{Search: "KITCHEN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple pie"}, titles(rows))

	rows, err = ListCollections(db, 1, CollectionQuery{Search: "baking"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple pie"}, titles(rows))

	rows, err = ListCollections(db, 1, CollectionQuery{Category: "Fiction", Sort: "series"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple pie", "Moon"}, titles(rows))

	rows, err = ListCollections(db, 1, CollectionQuery{Series: "Sky", Category: "all"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Moon"}, titles(rows))

	rows, err = ListCollections(db, 1, CollectionQuery{Sort: "category"})
	require.NoError(t, err)
	assert.Equal(t, "Education", rows[0].Category)

	groups := GroupBySeries([]VoiceCollection{
		{Title: "1"}, {Title: "2", BookSeries: strPtr("Sky")}, {Title: "3"},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, NoSeries, groups[0].Series)
	assert.Len(t, groups[0].Collections, 2)
	assert.Equal(t, "Sky", groups[1].Series)
}

func TestGetCollectionsByIDsKeepsOrder(t *testing.T) {
	db := newTestDB(t)
	a := mustCreate(t, db, 1, CollectionInput{Title: "a", Text: "a"})
	b := mustCreate(t, db, 1, CollectionInput{Title: "b", Text: "b"})

	rows, err := GetCollectionsByIDs(db, 1, []string{b.ID, "gone", a.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, b.ID, rows[0].ID)
	assert.Equal(t, a.ID, rows[1].ID)
}

func strPtr(s string) *string { return &s }

func TestUsersProfilesPreferences(t *testing.T) {
	db := newTestDB(t)

	u, err := CreateUser(db, " Reader@Example.com ", "s3cret", "reader")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", u.Email)

	_, err = CreateUser(db, "reader@example.com", "other", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = Authenticate(db, "reader@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = Authenticate(db, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	logged, err := Authenticate(db, "READER@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotNil(t, logged.LastLogin)

	p, err := GetProfile(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader", p.Username)
	assert.False(t, p.HasToken)

	require.NoError(t, SetBotnoiToken(db, u.ID, " tok "))
	p, err = GetProfile(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", p.BotnoiToken)
	assert.True(t, p.HasToken)

	dark := true
	p, err = UpdateProfile(db, u.ID, ProfileUpdate{DarkMode: &dark})
	require.NoError(t, err)
	assert.True(t, p.DarkMode)
	assert.Equal(t, "reader", p.Username)

	pref, err := GetPreferences(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccentColor, pref.AccentColor)

	require.NoError(t, SavePreferences(db, &UserPreference{UserID: u.ID, AccentColor: "#ff0000", DefaultLanguage: "en"}))
	pref, err = GetPreferences(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", pref.AccentColor)
	assert.Equal(t, "en", pref.DefaultLanguage)

	// saving a loaded row updates it in place
	pref.DarkMode = true
	require.NoError(t, SavePreferences(db, pref))
	pref, err = GetPreferences(db, u.ID)
	require.NoError(t, err)
	assert.True(t, pref.DarkMode)

	var n int64
	require.NoError(t, db.Model(&UserPreference{}).Where("user_id = ?", u.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	pref, err = GetPreferences(db, 999)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccentColor, pref.AccentColor)
}
