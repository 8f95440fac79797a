package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Profile holds per-user display settings and the Botnoi credential.
type Profile struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	UserID      uint      `json:"userId" gorm:"uniqueIndex"`
	Username    string    `json:"username" gorm:"size:64"`
	DarkMode    bool      `json:"darkMode"`
	BotnoiToken string    `json:"-" gorm:"size:512"`
	HasToken    bool      `json:"hasBotnoiToken" gorm:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Profile) AfterFind(tx *gorm.DB) error {
	p.HasToken = p.BotnoiToken != ""
	return nil
}

// GetProfile returns the user's profile, creating an empty one if needed.
func GetProfile(db *gorm.DB, userID uint) (*Profile, error) {
	var p Profile
	if err := db.Where(Profile{UserID: userID}).FirstOrCreate(&p).Error; err != nil {
		return nil, persistErr("load profile", err)
	}
	p.HasToken = p.BotnoiToken != ""
	return &p, nil
}

type ProfileUpdate struct {
	Username *string `json:"username"`
	DarkMode *bool   `json:"darkMode"`
}

func UpdateProfile(db *gorm.DB, userID uint, upd ProfileUpdate) (*Profile, error) {
	p, err := GetProfile(db, userID)
	if err != nil {
		return nil, err
	}
	vals := map[string]any{}
	if upd.Username != nil {
		vals["username"] = strings.TrimSpace(*upd.Username)
	}
	if upd.DarkMode != nil {
		vals["dark_mode"] = *upd.DarkMode
	}
	if len(vals) > 0 {
		if err := db.Model(p).Updates(vals).Error; err != nil {
			return nil, persistErr("update profile", err)
		}
	}
	return GetProfile(db, userID)
}

// SetBotnoiToken stores the credential; an empty token clears it.
func SetBotnoiToken(db *gorm.DB, userID uint, token string) error {
	p, err := GetProfile(db, userID)
	if err != nil {
		return err
	}
	return persistErr("save botnoi token",
		db.Model(p).Update("botnoi_token", strings.TrimSpace(token)).Error)
}
