package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultAccentColor = "#8b5cf6"

type UserPreference struct {
	ID              uint      `json:"-" gorm:"primaryKey"`
	UserID          uint      `json:"userId" gorm:"uniqueIndex"`
	AccentColor     string    `json:"accentColor" gorm:"size:16"`
	DarkMode        bool      `json:"darkMode"`
	DefaultLanguage string    `json:"defaultLanguage" gorm:"size:8"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func defaultPreference(userID uint) *UserPreference {
	return &UserPreference{UserID: userID, AccentColor: DefaultAccentColor}
}

// GetPreferences never fails on a missing row; defaults are returned instead.
func GetPreferences(db *gorm.DB, userID uint) (*UserPreference, error) {
	var pref UserPreference
	err := db.Where("user_id = ?", userID).Limit(1).Find(&pref).Error
	if err != nil {
		return nil, persistErr("load preferences", err)
	}
	if pref.ID == 0 {
		return defaultPreference(userID), nil
	}
	return &pref, nil
}

// SavePreferences upserts on user_id. pref may come from GetPreferences, so
// its primary key is ignored.
func SavePreferences(db *gorm.DB, pref *UserPreference) error {
	if pref.AccentColor == "" {
		pref.AccentColor = DefaultAccentColor
	}
	row := *pref
	row.ID = 0
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"accent_color", "dark_mode", "default_language", "updated_at"}),
	}).Create(&row).Error
	return persistErr("save preferences", err)
}
