package models

import (
	"errors"
	"strings"
	"time"

	"VoiceShelf/internal/speech"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategoryUncategorized = "Uncategorized"
	NoSeries              = "No Series"

	StatusGenerated   = "generated"
	StatusUngenerated = "ungenerated"
)

var Categories = []string{
	CategoryUncategorized,
	"Fiction",
	"Non-Fiction",
	"Education",
	"Business",
	"Romance",
	"Mystery",
	"Sci-Fi",
}

// VoiceCollection is a saved text with its voice settings. AudioURL is nil
// until speech has been generated.
type VoiceCollection struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	UserID        uint      `json:"userId" gorm:"index"`
	Title         string    `json:"title" gorm:"size:255"`
	OriginalText  string    `json:"originalText" gorm:"type:text"`
	AudioURL      *string   `json:"audioUrl" gorm:"size:1024"`
	Speaker       string    `json:"speaker" gorm:"size:8"`
	Volume        string    `json:"volume" gorm:"size:8"`
	Speed         float64   `json:"speed"`
	Language      string    `json:"language" gorm:"size:8"`
	Category      string    `json:"category" gorm:"size:64;index"`
	BookSeries    *string   `json:"bookSeries" gorm:"size:255"`
	CoverImageURL *string   `json:"coverImageUrl" gorm:"size:1024"`
	Generated     bool      `json:"generated" gorm:"-"`
	Status        string    `json:"status" gorm:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (v *VoiceCollection) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

func (v *VoiceCollection) AfterFind(tx *gorm.DB) error {
	v.derive()
	return nil
}

func (v *VoiceCollection) derive() {
	v.Generated = v.AudioURL != nil && *v.AudioURL != ""
	if v.Generated {
		v.Status = StatusGenerated
	} else {
		v.Status = StatusUngenerated
	}
}

// Voice returns the stored sound settings.
func (v *VoiceCollection) Voice() speech.VoiceParameters {
	return speech.VoiceParameters{Speaker: v.Speaker, Volume: v.Volume, Speed: v.Speed, Language: v.Language}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeCategory(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" {
		return CategoryUncategorized, nil
	}
	for _, known := range Categories {
		if strings.EqualFold(known, c) {
			return known, nil
		}
	}
	return "", ErrInvalidCategory
}

// CheckCategory reports ErrInvalidCategory for names outside Categories.
// Empty is allowed and means Uncategorized.
func CheckCategory(c string) error {
	_, err := normalizeCategory(c)
	return err
}

type CollectionInput struct {
	Title         string
	Text          string
	AudioURL      string
	Voice         speech.VoiceParameters
	Category      string
	BookSeries    string
	CoverImageURL string
}

// CreateCollection saves a new record. An empty AudioURL stores an
// ungenerated record.
func CreateCollection(db *gorm.DB, owner uint, in CollectionInput) (*VoiceCollection, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrTextRequired
	}
	category, err := normalizeCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if err := speech.CheckSpeed(in.Voice.Speed); err != nil {
		return nil, err
	}

	vc := &VoiceCollection{
		UserID:        owner,
		Title:         title,
		OriginalText:  text,
		AudioURL:      optional(in.AudioURL),
		Speaker:       in.Voice.Speaker,
		Volume:        in.Voice.Volume,
		Speed:         in.Voice.Speed,
		Language:      in.Voice.Language,
		Category:      category,
		BookSeries:    optional(in.BookSeries),
		CoverImageURL: optional(in.CoverImageURL),
	}
	if err := db.Create(vc).Error; err != nil {
		return nil, persistErr("create collection", err)
	}
	vc.derive()
	return vc, nil
}

func GetCollection(db *gorm.DB, owner uint, id string) (*VoiceCollection, error) {
	var vc VoiceCollection
	err := db.Where("id = ? AND user_id = ?", id, owner).First(&vc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, persistErr("load collection", err)
	}
	return &vc, nil
}

// GetCollectionsByIDs loads the owner's records and keeps the order of ids.
// Unknown ids are skipped.
func GetCollectionsByIDs(db *gorm.DB, owner uint, ids []string) ([]VoiceCollection, error) {
	if len(ids) == 0 {
		return []VoiceCollection{}, nil
	}
	var rows []VoiceCollection
	if err := db.Where("user_id = ? AND id IN ?", owner, ids).Find(&rows).Error; err != nil {
		return nil, persistErr("load collections", err)
	}
	byID := make(map[string]VoiceCollection, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]VoiceCollection, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// UpdateCollectionAudio sets the audio and the settings it was made with.
// Title, text and creation time are left alone.
func UpdateCollectionAudio(db *gorm.DB, owner uint, id, audioURL string, voice speech.VoiceParameters) (*VoiceCollection, error) {
	if _, err := GetCollection(db, owner, id); err != nil {
		return nil, err
	}
	err := db.Model(&VoiceCollection{}).
		Where("id = ? AND user_id = ?", id, owner).
		Updates(map[string]any{
			"audio_url": audioURL,
			"speaker":   voice.Speaker,
			"volume":    voice.Volume,
			"speed":     voice.Speed,
			"language":  voice.Language,
		}).Error
	if err != nil {
		return nil, persistErr("update collection audio", err)
	}
	return GetCollection(db, owner, id)
}

// CollectionDetails is a partial edit; nil fields are kept. Empty series or
// cover clear the value.
type CollectionDetails struct {
	Title         *string `json:"title"`
	Category      *string `json:"category"`
	BookSeries    *string `json:"bookSeries"`
	CoverImageURL *string `json:"coverImageUrl"`
}

func UpdateCollectionDetails(db *gorm.DB, owner uint, id string, d CollectionDetails) (*VoiceCollection, error) {
	vals := map[string]any{}
	if d.Title != nil {
		t := strings.TrimSpace(*d.Title)
		if t == "" {
			return nil, ErrTitleRequired
		}
		vals["title"] = t
	}
	if d.Category != nil {
		c, err := normalizeCategory(*d.Category)
		if err != nil {
			return nil, err
		}
		vals["category"] = c
	}
	if d.BookSeries != nil {
		vals["book_series"] = optional(*d.BookSeries)
	}
	if d.CoverImageURL != nil {
		vals["cover_image_url"] = optional(*d.CoverImageURL)
	}

	if _, err := GetCollection(db, owner, id); err != nil {
		return nil, err
	}
	if len(vals) > 0 {
		err := db.Model(&VoiceCollection{}).Where("id = ? AND user_id = ?", id, owner).Updates(vals).Error
		if err != nil {
			return nil, persistErr("update collection", err)
		}
	}
	return GetCollection(db, owner, id)
}

func DeleteCollection(db *gorm.DB, owner uint, id string) error {
	res := db.Where("id = ? AND user_id = ?", id, owner).Delete(&VoiceCollection{})
	if res.Error != nil {
		return persistErr("delete collection", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

// DeleteCollections removes all of ids or none of them. Ids that are missing
// or belong to someone else are reported in a *BulkDeleteError.
func DeleteCollections(db *gorm.DB, owner uint, ids []string) (int, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int
	err := db.Transaction(func(tx *gorm.DB) error {
		var found []string
		if err := tx.Model(&VoiceCollection{}).
			Where("user_id = ? AND id IN ?", owner, ids).
			Pluck("id", &found).Error; err != nil {
			return persistErr("load collections", err)
		}
		if missing := difference(ids, found); len(missing) > 0 {
			return &BulkDeleteError{Missing: missing}
		}

		res := tx.Where("user_id = ? AND id IN ?", owner, ids).Delete(&VoiceCollection{})
		if res.Error != nil {
			return persistErr("delete collections", res.Error)
		}
		deleted = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func difference(want, have []string) []string {
	got := make(map[string]struct{}, len(have))
	for _, h := range have {
		got[h] = struct{}{}
	}
	var missing []string
	for _, w := range want {
		if _, ok := got[w]; !ok {
			missing = append(missing, w)
		}
	}
	return missing
}
